package main

import (
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/michaelquigley/pfxlog"
	_ "github.com/netgore/packetpool/cmd/packetpool/bench"
	_ "github.com/netgore/packetpool/cmd/packetpool/ctrl"
	_ "github.com/netgore/packetpool/cmd/packetpool/echo"
	_ "github.com/netgore/packetpool/cmd/packetpool/influx"
	"github.com/netgore/packetpool/cmd/packetpool/packetpool"
	"github.com/sirupsen/logrus"
)

func init() {
	pfxlog.Global(logrus.InfoLevel)
	pfxlog.SetPrefix("github.com/netgore/")
}

func main() {
	defer logrus.Debugf("finished")

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			log.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n", buf[:stacklen])
		}
	}()

	if err := packetpool.RootCmd.Execute(); err != nil {
		logrus.Fatalf("error (%v)", err)
	}
}
