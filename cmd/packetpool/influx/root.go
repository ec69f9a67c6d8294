package influx

import (
	"github.com/netgore/packetpool/cmd/packetpool/packetpool"
	"github.com/spf13/cobra"
)

func init() {
	influxCmd.PersistentFlags().StringVar(&influxDbUrl, "url", "http://localhost:8086", "InfluxDB URL")
	influxCmd.PersistentFlags().StringVar(&influxDbToken, "token", "", "InfluxDB token")
	influxCmd.PersistentFlags().StringVar(&influxDbOrg, "org", "", "InfluxDB organization")
	influxCmd.PersistentFlags().StringVar(&influxDbBucket, "bucket", "packetpool", "InfluxDB bucket")
	packetpool.RootCmd.AddCommand(influxCmd)
}

var influxCmd = &cobra.Command{
	Use:   "influx",
	Short: "Manage pool metrics in InfluxDB",
}
var influxDbUrl string
var influxDbToken string
var influxDbOrg string
var influxDbBucket string
