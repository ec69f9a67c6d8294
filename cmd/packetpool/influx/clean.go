package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	influxCmd.AddCommand(influxCleanCmd)
}

var influxCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete previously loaded pool metrics",
	Args:  cobra.NoArgs,
	Run:   influxClean,
}

func influxClean(_ *cobra.Command, _ []string) {
	client := influxdb2.NewClient(influxDbUrl, influxDbToken)
	defer client.Close()

	err := client.DeleteAPI().DeleteWithName(context.Background(), influxDbOrg, influxDbBucket, time.Unix(0, 0), time.Now(), `type="pool"`)
	if err != nil {
		logrus.Fatalf("error deleting pool metrics (%v)", err)
	}
	logrus.Infof("cleaned bucket [%s]", influxDbBucket)
}
