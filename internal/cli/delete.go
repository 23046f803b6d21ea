package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type DeleteOptions struct {
	GlobalOptions
}

func DefaultDeleteOptions() *DeleteOptions {
	return &DeleteOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

// NewCmdDelete removes an assignment, returning its job to the available
// pool.
func NewCmdDelete() *cobra.Command {
	o := DefaultDeleteOptions()
	cmd := &cobra.Command{
		Use:   "delete assignment/ID",
		Short: "Delete an assignment.",
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

func (o *DeleteOptions) Validate(args []string) error {
	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}
	if kind != AssignmentKind {
		return fmt.Errorf("only assignments can be deleted")
	}
	if id == "" {
		return fmt.Errorf("an assignment id is required")
	}
	return nil
}

func (o *DeleteOptions) Run(ctx context.Context, args []string) error {
	_, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	repository, err := o.Repository()
	if err != nil {
		return err
	}

	if err := repository.Delete(ctx, uuid.MustParse(id)); err != nil {
		return err
	}

	fmt.Printf("assignment %s deleted\n", id)
	return nil
}
