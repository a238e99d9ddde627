package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yravipati/countydata/internal/store"
)

// ColumnRow is one column of a described table.
type ColumnRow struct {
	Position int    `json:"position" csv:"position"`
	Name     string `json:"name" csv:"name"`
	Type     string `json:"type" csv:"type"`
}

// TableSummary describes one loaded table.
type TableSummary struct {
	Table   string      `json:"table" csv:"table"`
	Rows    int64       `json:"rows" csv:"rows"`
	Columns []ColumnRow `json:"columns,omitempty" csv:"-"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [table]",
		Short: "Describe loaded tables",
		Long: `Describe the tables in a database.

Without arguments, lists every table with its row count. With a table name,
prints its columns in order and its row count.

Examples:
  countydata describe --db data.db
  countydata describe --db data.db zip_county
  countydata describe --db data.db zip_county --format csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runDescribe(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := store.OpenReadOnly(opts.Config.DBPath)
	if err != nil {
		if errors.Is(err, store.ErrDatabaseNotFound) {
			return WrapExitError(ExitCommandError, "database not found", err)
		}
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	defer st.Close()

	if len(args) == 0 {
		return describeAll(opts, out, st, cmd)
	}

	name := args[0]
	cols, err := st.Columns(ctx, name)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read columns", err)
	}
	if len(cols) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("table not found: %s", name))
	}
	rows, err := st.CountRows(ctx, name)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count rows", err)
	}

	summary := TableSummary{Table: name, Rows: rows, Columns: make([]ColumnRow, len(cols))}
	for i, c := range cols {
		summary.Columns[i] = ColumnRow{Position: c.Position, Name: c.Name, Type: c.Type}
	}

	switch opts.Format {
	case "json":
		return out.Success(summary)
	case "csv":
		return out.CSV(summary.Columns)
	}

	w := out.Writer
	fmt.Fprintf(w, "Table: %s\n", summary.Table)
	fmt.Fprintf(w, "Rows:  %d\n", summary.Rows)
	fmt.Fprintln(w, "Columns:")
	for _, c := range summary.Columns {
		fmt.Fprintf(w, "  %d  %s  %s\n", c.Position, c.Name, c.Type)
	}
	return nil
}

func describeAll(opts *RootOptions, out *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	ctx := cmd.Context()

	names, err := st.Tables(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list tables", err)
	}

	summaries := make([]TableSummary, 0, len(names))
	for _, name := range names {
		rows, err := st.CountRows(ctx, name)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to count rows of %s", name), err)
		}
		summaries = append(summaries, TableSummary{Table: name, Rows: rows})
	}

	switch opts.Format {
	case "json":
		return out.Success(summaries)
	case "csv":
		return out.CSV(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out.Writer, "No tables loaded.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(out.Writer, "%s  %d rows\n", s.Table, s.Rows)
	}
	return nil
}
