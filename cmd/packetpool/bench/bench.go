package bench

import (
	"fmt"
	"time"

	"github.com/netgore/packetpool/cmd/packetpool/packetpool"
	"github.com/netgore/packetpool/packet"
	"github.com/netgore/packetpool/pool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	benchCmd.Flags().IntVarP(&workers, "workers", "w", 8, "Concurrent writers")
	benchCmd.Flags().IntVarP(&iterations, "iterations", "n", 100000, "Packets per worker")
	benchCmd.Flags().IntVarP(&fields, "fields", "f", 16, "Fields written per packet")
	packetpool.RootCmd.AddCommand(benchCmd)
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Hammer a writer pool from concurrent workers",
	Args:  cobra.NoArgs,
	Run:   bench,
}
var workers int
var iterations int
var fields int

type result struct {
	packets int
	bytes   int64
	elapsed time.Duration
	stats   pool.Stats
}

func bench(_ *cobra.Command, _ []string) {
	env, err := packetpool.NewEnvironment()
	if err != nil {
		logrus.Fatalf("error creating environment (%v)", err)
	}
	defer env.Finish()

	r, err := run(env, workers, iterations, fields)
	if err != nil {
		logrus.Fatalf("bench failed (%v)", err)
	}
	fmt.Printf("%d packets (%d bytes) in %s, %.0f packets/s\n", r.packets, r.bytes, r.elapsed, float64(r.packets)/r.elapsed.Seconds())
	fmt.Printf("allocated %d, high water %d, outstanding %d, free %d\n", r.stats.Allocated, r.stats.HighWater, r.stats.Outstanding, r.stats.Free)
}

func run(env *packetpool.Environment, workers, iterations, fields int) (*result, error) {
	if workers < 1 {
		return nil, errors.Errorf("invalid workers [%d]", workers)
	}
	wp, err := packet.NewWriterPool("bench", env.Profile, env.Instrument)
	if err != nil {
		return nil, err
	}
	defer wp.Close()

	start := time.Now()
	bytes := make([]int64, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		worker := i
		g.Go(func() error {
			for j := 0; j < iterations; j++ {
				err := wp.With(func(w *packet.Writer) error {
					for k := 0; k < fields; k++ {
						if err := w.WriteBool(k%3 == 0); err != nil {
							return err
						}
						if err := w.WriteVarUint(uint64(j * k)); err != nil {
							return err
						}
					}
					payload, err := w.Payload()
					if err != nil {
						return err
					}
					bytes[worker] += int64(len(payload))
					return nil
				})
				if err != nil {
					return errors.Wrapf(err, "worker #%d failed at iteration %d", worker, j)
				}
			}
			return nil
		})
	}
	err = g.Wait()
	r := &result{packets: workers * iterations, elapsed: time.Since(start), stats: wp.Stats()}
	for _, b := range bytes {
		r.bytes += b
	}
	return r, err
}
