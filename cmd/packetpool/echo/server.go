package echo

import (
	"fmt"
	"net"

	"github.com/michaelquigley/pfxlog"
	"github.com/netgore/packetpool/bitstream"
	"github.com/netgore/packetpool/cmd/packetpool/packetpool"
	"github.com/netgore/packetpool/packet"
	"github.com/netgore/packetpool/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	echoCmd.AddCommand(echoServerCmd)
}

var echoServerCmd = &cobra.Command{
	Use:   "server <listenAddress>",
	Short: "Start echo server",
	Args:  cobra.ExactArgs(1),
	Run:   echoServer,
}

func echoServer(_ *cobra.Command, args []string) {
	env, err := packetpool.NewEnvironment()
	if err != nil {
		logrus.Fatalf("error creating environment (%v)", err)
	}
	defer env.Finish()

	listener, err := env.Protocol.Listen(args[0])
	if err != nil {
		logrus.Fatalf("error listening at [%s] (%v)", args[0], err)
	}
	defer func() { _ = listener.Close() }()
	logrus.Infof("listening at [%s]", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			logrus.Errorf("error accepting (%v)", err)
			return
		}
		go echoServerHandler(env, conn)
	}
}

func echoServerHandler(env *packetpool.Environment, conn net.Conn) {
	id := fmt.Sprintf("echo/%s", util.NewSessionId()[:12])
	log := pfxlog.ContextLogger(id)
	defer func() { _ = conn.Close() }()

	wp, err := packet.NewWriterPool(id+"/tx", env.Profile, env.Instrument)
	if err != nil {
		log.Errorf("error creating writer pool (%v)", err)
		return
	}
	defer wp.Close()

	sender := packet.NewSender(conn, env.Profile)
	go sender.Run()

	rx, err := packet.NewReceiver(id+"/rx", conn, env.Profile, func(seq uint32, bs *bitstream.BitStream) error {
		m, err := decode(bs)
		if err != nil {
			return err
		}
		log.Debugf("#%d: [%d] '%s'", seq, m.id, m.text)
		m.reply = true
		w := wp.Acquire()
		if err := m.encode(w); err != nil {
			_ = w.Close()
			return err
		}
		return sender.SendWait(w)
	}, env.Instrument)
	if err != nil {
		log.Errorf("error creating receiver (%v)", err)
		return
	}
	log.Infof("connected from [%s]", conn.RemoteAddr())

	rx.Run()
	sender.Close()
	<-sender.Done
	if err := rx.Err(); err != nil {
		log.Errorf("receiver failed (%v)", err)
	}
	log.Infof("disconnected, writers %+v", wp.Stats())
}
