package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/ledger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type WatchOptions struct {
	GlobalOptions

	PollInterval   time.Duration
	ResyncInterval time.Duration
}

func DefaultWatchOptions() *WatchOptions {
	return &WatchOptions{
		GlobalOptions:  DefaultGlobalOptions(),
		PollInterval:   2 * time.Second,
		ResyncInterval: 30 * time.Second,
	}
}

// NewCmdWatch tails the job ledger: it picks up the caller's jobs, polls
// the non-terminal ones and reprints the table on every observed change.
func NewCmdWatch() *cobra.Command {
	o := DefaultWatchOptions()
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch submitted jobs until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *WatchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "Per-job poll cadence")
	fs.DurationVar(&o.ResyncInterval, "resync-interval", o.ResyncInterval, "Full list reconciliation cadence")
}

func (o *WatchOptions) Run(ctx context.Context) error {
	producer, err := o.Producer()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	controller := ledger.NewController(producer,
		ledger.WithPollInterval(o.PollInterval),
		ledger.WithResyncInterval(o.ResyncInterval),
	)

	jobs, err := producer.FetchAll(ctx)
	if err != nil {
		return err
	}
	for _, snapshot := range jobs {
		controller.Track(ctx, snapshot)
	}

	controller.Start(ctx)
	defer controller.Stop()

	o.printLedger(controller.List())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-controller.Updates():
			o.printLedger(controller.List())
		}
	}
}

func (o *WatchOptions) printLedger(jobs []api.JobSnapshot) {
	fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
	for _, j := range jobs {
		detail := ""
		switch {
		case j.Status == api.JobStatusCompleted && j.Result != nil:
			detail = fmt.Sprintf("%d words", j.Result.WordCount)
		case j.Status == api.JobStatusFailed && j.Error != nil:
			detail = *j.Error
		}
		fmt.Printf("%s  %-12s %s\n", j.ID, j.Status, detail)
	}
}
