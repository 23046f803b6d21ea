package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set at build time via -ldflags
var version = "dev"

func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the console version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("narration-console %s\n", version)
		},
	}
}
