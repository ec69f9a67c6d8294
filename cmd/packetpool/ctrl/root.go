package ctrl

import (
	"github.com/netgore/packetpool/cmd/packetpool/packetpool"
	"github.com/spf13/cobra"
)

func init() {
	packetpool.RootCmd.AddCommand(ctrlCmd)
}

var ctrlCmd = &cobra.Command{
	Use:   "ctrl",
	Short: "Control metrics instruments",
}
