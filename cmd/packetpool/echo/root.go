package echo

import (
	"github.com/netgore/packetpool/cmd/packetpool/packetpool"
	"github.com/spf13/cobra"
)

func init() {
	packetpool.RootCmd.AddCommand(echoCmd)
}

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Echo pooled packets over the selected protocol",
}
