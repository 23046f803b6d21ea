package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var legalOutputTypes = []string{jsonFormat, yamlFormat}

type GetOptions struct {
	GlobalOptions

	Output       string
	StatusFilter string
	TypeFilter   string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (TYPE | TYPE/ID)",
		Short: "Display one or many resources.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.StringVar(&o.StatusFilter, "status", o.StatusFilter, "Filter assignments by status")
	fs.StringVar(&o.TypeFilter, "type", o.TypeFilter, "Filter assignments by type")
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	if _, _, err := parseAndValidateKindId(args[0]); err != nil {
		return err
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	kind, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	switch kind {
	case JobKind:
		return o.runJobs(ctx, id)
	case AssignmentKind:
		return o.runAssignments(ctx)
	case ReaderKind:
		return o.runReaders(ctx)
	default:
		return fmt.Errorf("unsupported resource kind: %s", kind)
	}
}

func (o *GetOptions) runJobs(ctx context.Context, id string) error {
	producer, err := o.Producer()
	if err != nil {
		return err
	}

	if id != "" {
		snapshot, err := producer.FetchStatus(ctx, uuid.MustParse(id))
		if err != nil {
			return err
		}
		return o.print([]api.JobSnapshot{*snapshot}, o.printJobTable)
	}

	jobs, err := producer.FetchAll(ctx)
	if err != nil {
		return err
	}
	return o.print(jobs, o.printJobTable)
}

func (o *GetOptions) runAssignments(ctx context.Context) error {
	repository, err := o.Repository()
	if err != nil {
		return err
	}

	var statusFilter *api.AssignmentStatus
	if o.StatusFilter != "" {
		s := api.AssignmentStatus(o.StatusFilter)
		statusFilter = &s
	}
	var typeFilter *api.AssignmentType
	if o.TypeFilter != "" {
		t := api.AssignmentType(o.TypeFilter)
		typeFilter = &t
	}

	assignments, err := repository.ListMine(ctx, statusFilter, typeFilter)
	if err != nil {
		return err
	}
	return o.print(assignments, o.printAssignmentTable)
}

func (o *GetOptions) runReaders(ctx context.Context) error {
	repository, err := o.Repository()
	if err != nil {
		return err
	}

	readers, err := repository.AvailableReaders(ctx)
	if err != nil {
		return err
	}
	return o.print(readers, o.printReaderTable)
}

func (o *GetOptions) print(v any, table func(v any) error) error {
	switch o.Output {
	case jsonFormat:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case yamlFormat:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return table(v)
	}
}

func (o *GetOptions) printJobTable(v any) error {
	jobs := v.([]api.JobSnapshot)
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tVERTICAL\tWORDS\tUPDATED")
	for _, j := range jobs {
		words := "-"
		if j.Result != nil {
			words = fmt.Sprintf("%d", j.Result.WordCount)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Status, j.Request.Vertical, words, j.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func (o *GetOptions) printAssignmentTable(v any) error {
	assignments := v.([]api.Assignment)
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tJOB\tTYPE\tPRIORITY\tSTATUS\tBLOCKED\tREASON")
	for _, a := range assignments {
		reason := ""
		if a.BlockedReason != nil {
			reason = *a.BlockedReason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%t\t%s\n", a.ID, a.JobID, a.AssignmentType, a.Priority, a.Status, a.Blocked, reason)
	}
	return w.Flush()
}

func (o *GetOptions) printReaderTable(v any) error {
	readers := v.([]api.Reader)
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tACTIVE")
	for _, r := range readers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", r.ID, r.Username, r.Name, r.Active)
	}
	return w.Flush()
}
