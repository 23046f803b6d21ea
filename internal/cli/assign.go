package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

type AssignOptions struct {
	GlobalOptions

	Reader   string
	Type     string
	Priority int
	Notes    string
}

func DefaultAssignOptions() *AssignOptions {
	return &AssignOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Type:          string(api.AssignmentTypeRecord),
		Priority:      api.PriorityMedium,
	}
}

func NewCmdAssign() *cobra.Command {
	o := DefaultAssignOptions()
	cmd := &cobra.Command{
		Use:   "assign JOB_ID",
		Short: "Assign a completed job to a reader.",
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

func (o *AssignOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Reader, "reader", o.Reader, "Username of the reader")
	fs.StringVar(&o.Type, "type", o.Type, "Assignment type: record, evaluate or review")
	fs.IntVar(&o.Priority, "priority", o.Priority, "Priority: 1=low, 2=medium, 3=high")
	fs.StringVar(&o.Notes, "notes", o.Notes, "Optional notes for the reader")
}

func (o *AssignOptions) Validate(args []string) error {
	if _, err := uuid.Parse(args[0]); err != nil {
		return fmt.Errorf("invalid job id: %s", args[0])
	}
	if o.Reader == "" {
		return fmt.Errorf("--reader is required")
	}
	if !funk.Contains([]string{
		string(api.AssignmentTypeRecord),
		string(api.AssignmentTypeEvaluate),
		string(api.AssignmentTypeReview),
	}, o.Type) {
		return fmt.Errorf("invalid assignment type: %s", o.Type)
	}
	if o.Priority < api.PriorityLow || o.Priority > api.PriorityHigh {
		return fmt.Errorf("priority must be between %d and %d", api.PriorityLow, api.PriorityHigh)
	}
	return nil
}

func (o *AssignOptions) Run(ctx context.Context, args []string) error {
	repository, err := o.Repository()
	if err != nil {
		return err
	}

	form := api.AssignmentCreate{
		JobID:          uuid.MustParse(args[0]),
		AssignedTo:     o.Reader,
		AssignmentType: api.AssignmentType(o.Type),
		Priority:       o.Priority,
	}
	if o.Notes != "" {
		form.Notes = &o.Notes
	}

	assignment, err := repository.Create(ctx, form)
	if err != nil {
		return err
	}

	fmt.Printf("assignment %s created for %s\n", assignment.ID, assignment.AssignedTo)
	return nil
}
