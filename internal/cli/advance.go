package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type AdvanceOptions struct {
	GlobalOptions

	To    string
	Notes string
}

func DefaultAdvanceOptions() *AdvanceOptions {
	return &AdvanceOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

// NewCmdAdvance drives one workflow transition. Skipping requires --notes;
// the server rejects anything the state machine does not allow.
func NewCmdAdvance() *cobra.Command {
	o := DefaultAdvanceOptions()
	cmd := &cobra.Command{
		Use:   "advance ASSIGNMENT_ID",
		Short: "Advance an assignment to the next workflow state.",
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

func (o *AdvanceOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.To, "to", o.To, "Target status: in_progress, audio_submitted, completed or skipped")
	fs.StringVar(&o.Notes, "notes", o.Notes, "Transition notes (required to skip)")
}

func (o *AdvanceOptions) Validate(args []string) error {
	if _, err := uuid.Parse(args[0]); err != nil {
		return fmt.Errorf("invalid assignment id: %s", args[0])
	}
	if o.To == "" {
		return fmt.Errorf("--to is required")
	}
	if o.To == string(api.AssignmentStatusSkipped) && o.Notes == "" {
		return fmt.Errorf("skipping requires --notes with the reason")
	}
	return nil
}

func (o *AdvanceOptions) Run(ctx context.Context, args []string) error {
	repository, err := o.Repository()
	if err != nil {
		return err
	}

	update := api.AssignmentStatusUpdate{Status: api.AssignmentStatus(o.To)}
	if o.Notes != "" {
		update.Notes = &o.Notes
	}

	assignment, err := repository.UpdateStatus(ctx, uuid.MustParse(args[0]), update)
	if err != nil {
		return err
	}

	fmt.Printf("assignment %s is now %s\n", assignment.ID, assignment.Status)
	return nil
}
