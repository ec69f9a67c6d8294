package echo

import (
	"fmt"
	"time"

	"github.com/netgore/packetpool/bitstream"
	"github.com/netgore/packetpool/cmd/packetpool/packetpool"
	"github.com/netgore/packetpool/packet"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	echoClientCmd.Flags().IntVarP(&echoCount, "count", "n", 1000, "Number of messages to echo")
	echoClientCmd.Flags().StringVarP(&echoText, "text", "t", "hello, packet", "Message text")
	echoCmd.AddCommand(echoClientCmd)
}

var echoClientCmd = &cobra.Command{
	Use:   "client <serverAddress>",
	Short: "Start echo client",
	Args:  cobra.ExactArgs(1),
	Run:   echoClient,
}
var echoCount int
var echoText string

func echoClient(_ *cobra.Command, args []string) {
	if echoCount < 1 {
		logrus.Fatalf("invalid count [%d]", echoCount)
	}
	env, err := packetpool.NewEnvironment()
	if err != nil {
		logrus.Fatalf("error creating environment (%v)", err)
	}
	defer env.Finish()

	conn, err := env.Protocol.Dial(args[0])
	if err != nil {
		logrus.Fatalf("error dialing [%s] (%v)", args[0], err)
	}
	defer func() { _ = conn.Close() }()
	logrus.Infof("connected to [%s]", args[0])

	wp, err := packet.NewWriterPool("client/tx", env.Profile, env.Instrument)
	if err != nil {
		logrus.Fatalf("error creating writer pool (%v)", err)
	}
	defer wp.Close()

	sender := packet.NewSender(conn, env.Profile)
	go sender.Run()

	replies := 0
	var rtt time.Duration
	rx, err := packet.NewReceiver("client/rx", conn, env.Profile, func(seq uint32, bs *bitstream.BitStream) error {
		m, err := decode(bs)
		if err != nil {
			return err
		}
		if !m.reply {
			return errors.Errorf("expected reply for #%d", m.id)
		}
		rtt += time.Since(m.stamp)
		replies++
		if replies == echoCount {
			return errDone
		}
		return nil
	}, env.Instrument)
	if err != nil {
		logrus.Fatalf("error creating receiver (%v)", err)
	}

	start := time.Now()
	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < echoCount; i++ {
			w := wp.Acquire()
			m := &message{id: uint64(i), stamp: time.Now(), text: echoText}
			if err := m.encode(w); err != nil {
				_ = w.Close()
				_ = conn.Close()
				return errors.Wrapf(err, "error encoding #%d", i)
			}
			if err := sender.SendWait(w); err != nil {
				_ = conn.Close()
				return errors.Wrapf(err, "error sending #%d", i)
			}
		}
		return nil
	})
	g.Go(func() error {
		rx.Run()
		if err := rx.Err(); err != nil && errors.Cause(err) != errDone {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logrus.Errorf("echo failed (%v)", err)
	}
	sender.Close()
	<-sender.Done

	elapsed := time.Since(start)
	if replies > 0 {
		fmt.Printf("%d replies in %s, mean rtt %s\n", replies, elapsed, rtt/time.Duration(replies))
	}
	logrus.Infof("writers %+v", wp.Stats())
}

var errDone = errors.New("done")
