package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yravipati/countydata/internal/ident"
	"github.com/yravipati/countydata/internal/loader"
	"github.com/yravipati/countydata/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Table string // explicit table name, single source only
}

// LoadResult is the payload of a load command.
type LoadResult struct {
	Tables []*loader.Result `json:"tables"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <csv>...",
		Short: "Load CSV files into all-TEXT tables",
		Long: `Load each CSV file into a SQLite table named after the file.

Every column is TEXT. An existing table of the same name is dropped and
recreated in the same transaction, so a failed load leaves the previous
table in place. Sources are loaded in order; the first failure stops the run.
Files ending in .gz are decompressed.

Exit codes:
  0 - All sources loaded
  1 - Store error (locked database, disk full); retrying may succeed
  2 - Schema or name error; the input must be fixed

Examples:
  countydata load --db data.db zip_county.csv county_health_rankings.csv
  countydata load --db data.db --table zips "ZIP County 2020.csv"
  countydata load --db data.db --format json rankings.csv.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table name to load into (single source only)")

	return cmd
}

func runLoad(opts *LoadOptions, paths []string, cmd *cobra.Command) error {
	if opts.Table != "" && len(paths) > 1 {
		return NewExitError(ExitCommandError, "--table requires exactly one source")
	}
	if opts.Format == "csv" {
		return NewExitError(ExitCommandError, "load does not support csv output")
	}

	out := opts.formatter(cmd)
	logger := opts.Logger

	st, err := store.Open(opts.Config.DBPath)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	l := loader.New(st, loader.WithLogger(logger))
	ctx := cmd.Context()

	var results []*loader.Result
	if opts.Table != "" {
		var res *loader.Result
		res, err = l.LoadAs(ctx, paths[0], opts.Table)
		if res != nil {
			results = append(results, res)
		}
	} else {
		results, err = l.LoadAll(ctx, paths)
	}

	if err != nil {
		return reportLoadError(out, results, err)
	}

	if opts.Format == "json" {
		return out.Success(LoadResult{Tables: results})
	}

	w := out.Writer
	for _, res := range results {
		fmt.Fprintf(w, "✓ %s: %d rows, %d columns (%s)\n", res.Table, res.Rows, len(res.Columns), res.Source)
		if res.Padded > 0 || res.Truncated > 0 {
			fmt.Fprintf(w, "  %d short rows padded, %d long rows truncated\n", res.Padded, res.Truncated)
		}
		out.VerboseLog("  columns: %s", strings.Join(ident.Names(res.Columns), ", "))
	}
	return nil
}

// reportLoadError prints the loads that succeeded and the failure, and maps
// the failure onto an exit code.
func reportLoadError(out *OutputFormatter, loaded []*loader.Result, err error) error {
	code := ExitFailure
	if loader.IsSchemaError(err) || loader.IsNameError(err) {
		code = ExitCommandError
	}

	var le *loader.LoadError
	if !errors.As(err, &le) {
		return WrapExitError(code, "load failed", err)
	}

	if out.Format != "json" {
		for _, res := range loaded {
			fmt.Fprintf(out.Writer, "✓ %s: %d rows (%s)\n", res.Table, res.Rows, res.Source)
		}
		fmt.Fprintf(out.Writer, "✗ %s\n", le.Source)
		return WrapExitError(code, "load failed", err)
	}

	details := map[string]any{
		"source": le.Source,
		"input":  le.Input,
		"loaded": loaded,
	}
	if outErr := out.Error(string(le.Kind), le.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(code, "load failed", err)
}
