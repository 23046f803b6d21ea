package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type EditOptions struct {
	GlobalOptions

	Priority int
	Reader   string
}

func DefaultEditOptions() *EditOptions {
	return &EditOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

// NewCmdEdit changes an assignment's priority or moves it to another
// reader. Blocking is recomputed on the next read, so the effect of a
// priority edit is immediately visible in `get assignments`.
func NewCmdEdit() *cobra.Command {
	o := DefaultEditOptions()
	cmd := &cobra.Command{
		Use:   "edit ASSIGNMENT_ID",
		Short: "Edit an assignment's priority or reader.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *EditOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.IntVar(&o.Priority, "priority", o.Priority, "New priority: 1=low, 2=medium, 3=high")
	fs.StringVar(&o.Reader, "reader", o.Reader, "Username of the new reader")
}

func (o *EditOptions) Validate(args []string) error {
	if _, err := uuid.Parse(args[0]); err != nil {
		return fmt.Errorf("invalid assignment id: %s", args[0])
	}
	if o.Priority == 0 && o.Reader == "" {
		return fmt.Errorf("one of --priority or --reader is required")
	}
	if o.Priority != 0 && (o.Priority < api.PriorityLow || o.Priority > api.PriorityHigh) {
		return fmt.Errorf("priority must be between %d and %d", api.PriorityLow, api.PriorityHigh)
	}
	return nil
}

func (o *EditOptions) Run(ctx context.Context, args []string) error {
	repository, err := o.Repository()
	if err != nil {
		return err
	}

	id := uuid.MustParse(args[0])

	if o.Priority != 0 {
		assignment, err := repository.UpdatePriority(ctx, id, api.AssignmentPriorityUpdate{Priority: o.Priority})
		if err != nil {
			return err
		}
		fmt.Printf("assignment %s priority set to %d\n", assignment.ID, assignment.Priority)
	}

	if o.Reader != "" {
		assignment, err := repository.UpdateReader(ctx, id, api.AssignmentReaderUpdate{AssignedTo: o.Reader})
		if err != nil {
			return err
		}
		fmt.Printf("assignment %s moved to %s\n", assignment.ID, assignment.AssignedTo)
	}

	return nil
}
