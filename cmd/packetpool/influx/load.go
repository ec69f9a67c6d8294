package influx

import (
	"context"
	"path/filepath"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/netgore/packetpool/pool"
	"github.com/netgore/packetpool/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	influxCmd.AddCommand(influxLoadCmd)
}

var influxLoadCmd = &cobra.Command{
	Use:   "load <metricsRoot>",
	Short: "Load pool metrics written by the metrics instrument",
	Args:  cobra.ExactArgs(1),
	Run:   influxLoad,
}

func influxLoad(_ *cobra.Command, args []string) {
	client := influxdb2.NewClient(influxDbUrl, influxDbToken)
	defer client.Close()

	n, err := loadPoolMetrics(context.Background(), args[0], client.WriteAPIBlocking(influxDbOrg, influxDbBucket))
	if err != nil {
		logrus.Fatalf("error loading metrics (%v)", err)
	}
	logrus.Infof("complete, wrote [%d] points", n)
}

// pointWriter is the part of api.WriteAPIBlocking used for loading.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

func loadPoolMetrics(ctx context.Context, root string, writeApi pointWriter) (int, error) {
	metrics, err := util.DiscoverMetrics(root)
	if err != nil {
		return 0, errors.Wrap(err, "discover metrics")
	}

	total := 0
	for path, metricsId := range metrics {
		if metricsId.Id != pool.MetricsId {
			logrus.Debugf("skipping [%s] with id [%s]", path, metricsId.Id)
			continue
		}
		poolId := metricsId.Values["pool"]
		for _, dataset := range pool.MetricsDatasets {
			samples, err := util.ReadSamples(filepath.Join(path, dataset+".csv"))
			if err != nil {
				return total, errors.Wrapf(err, "error reading dataset [%s]", dataset)
			}
			for _, sample := range samples {
				p := influxdb2.NewPoint(dataset, nil, map[string]interface{}{"v": sample.V}, sample.Ts).
					AddTag("type", "pool").
					AddTag("pool", poolId).
					AddTag("run", filepath.Base(path))
				if err := writeApi.WritePoint(ctx, p); err != nil {
					return total, errors.Wrapf(err, "error writing [%s] point", dataset)
				}
			}
			total += len(samples)
			logrus.Infof("wrote [%d] points for pool [%s] dataset [%s]", len(samples), poolId, dataset)
		}
	}
	return total, nil
}
