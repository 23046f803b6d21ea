package cli

import (
	"context"
	"fmt"

	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type SubmitOptions struct {
	GlobalOptions

	Vertical      string
	TargetLength  int
	Density       string
	Language      string
	EncounterType string
	Vocabulary    []string
}

func DefaultSubmitOptions() *SubmitOptions {
	return &SubmitOptions{
		GlobalOptions: DefaultGlobalOptions(),
		TargetLength:  120,
		Density:       "medium",
		Language:      "en-US",
	}
}

func NewCmdSubmit() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a script generation job.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *SubmitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Vertical, "vertical", o.Vertical, "Business vertical of the encounter (e.g. pharmacy)")
	fs.IntVar(&o.TargetLength, "length", o.TargetLength, "Target script length in words")
	fs.StringVar(&o.Density, "density", o.Density, "Vocabulary density: sparse, medium or dense")
	fs.StringVar(&o.Language, "language", o.Language, "Script language tag (e.g. en-US)")
	fs.StringVar(&o.EncounterType, "encounter", o.EncounterType, "Encounter type within the vertical")
	fs.StringSliceVar(&o.Vocabulary, "term", o.Vocabulary, "Vocabulary term to weave in (repeatable)")
}

func (o *SubmitOptions) Validate(args []string) error {
	if o.Vertical == "" {
		return fmt.Errorf("--vertical is required")
	}
	return nil
}

func (o *SubmitOptions) Run(ctx context.Context) error {
	producer, err := o.Producer()
	if err != nil {
		return err
	}

	id, err := producer.Submit(ctx, api.JobRequest{
		Vertical:      o.Vertical,
		TargetLength:  o.TargetLength,
		Density:       o.Density,
		Language:      o.Language,
		EncounterType: o.EncounterType,
		Vocabulary:    o.Vocabulary,
	})
	if err != nil {
		return err
	}

	fmt.Printf("job %s submitted\n", id)
	return nil
}
