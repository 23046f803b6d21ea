package main

import (
	"os"

	"github.com/scriptvoice/narration-planner/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	command := NewConsoleCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewConsoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "narration-console [flags] [options]",
		Short: "narration-console controls the narration planner service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdSubmit())
	cmd.AddCommand(cli.NewCmdWatch())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdAssign())
	cmd.AddCommand(cli.NewCmdAdvance())
	cmd.AddCommand(cli.NewCmdEdit())
	cmd.AddCommand(cli.NewCmdDelete())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
