package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yravipati/countydata/internal/lookup"
	"github.com/yravipati/countydata/internal/store"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	Zip     string
	Measure string
	Coffee  string
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up a county health measure by ZIP code",
		Long: `Resolve a ZIP code to its county and print the county's records for
one measure, in load order.

Exit codes:
  0 - Records found
  1 - No data for the ZIP code or measure
  2 - Invalid ZIP code or measure name, or database not found

Examples:
  countydata lookup --db data.db --zip 02138 --measure "Adult obesity"
  countydata lookup --db data.db --zip 02138 --measure Unemployment --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Zip, "zip", "", "5-digit ZIP code (required)")
	cmd.Flags().StringVar(&opts.Measure, "measure", "", "measure name (required)")
	cmd.Flags().StringVar(&opts.Coffee, "coffee", "", "")
	_ = cmd.MarkFlagRequired("zip")
	_ = cmd.MarkFlagRequired("measure")
	_ = cmd.Flags().MarkHidden("coffee")

	return cmd
}

func runLookup(opts *LookupOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := store.OpenReadOnly(opts.Config.DBPath)
	if err != nil {
		if errors.Is(err, store.ErrDatabaseNotFound) {
			return WrapExitError(ExitCommandError, "database not found", err)
		}
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	defer st.Close()

	svc := lookup.New(st.DB(), lookup.WithLogger(opts.Logger))
	records, err := svc.Lookup(cmd.Context(), lookup.Request{
		Zip:         opts.Zip,
		MeasureName: opts.Measure,
		Coffee:      opts.Coffee,
	})
	if err != nil {
		return reportLookupError(out, err)
	}

	switch opts.Format {
	case "json":
		return out.Success(records)
	case "csv":
		return out.CSV(records)
	}

	tw := tabwriter.NewWriter(out.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tCOUNTY\tYEAR SPAN\tMEASURE\tRAW VALUE\tCI LOWER\tCI UPPER\tRELEASE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			cell(r.State), cell(r.County), cell(r.YearSpan), cell(r.MeasureName),
			cell(r.RawValue), cell(r.ConfidenceIntervalLowerBound),
			cell(r.ConfidenceIntervalUpperBound), cell(r.DataReleaseYear))
	}
	return tw.Flush()
}

// reportLookupError prints a lookup error and maps it onto an exit code.
func reportLookupError(out *OutputFormatter, err error) error {
	var le *lookup.Error
	if !errors.As(err, &le) {
		return WrapExitError(ExitFailure, "lookup failed", err)
	}

	code := ExitFailure
	if le.Code == lookup.CodeBadRequest {
		code = ExitCommandError
	}

	if out.Format == "json" {
		if outErr := out.Error(string(le.Code), le.Message, nil); outErr != nil {
			return outErr
		}
	}
	return WrapExitError(code, "lookup failed", err)
}

// cell renders a nullable cell for text output.
func cell(v *string) string {
	if v == nil {
		return "NULL"
	}
	return *v
}
