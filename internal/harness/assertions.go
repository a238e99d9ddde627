package harness

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/yravipati/countydata/internal/ident"
	"github.com/yravipati/countydata/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Type, describeEvent(event))
		}
	}

	return buf.String()
}

func describeEvent(e TraceEvent) string {
	switch e.Type {
	case EventLoad:
		return fmt.Sprintf("%s -> %s: %s (%d rows)", e.Source, e.Table, e.Case, e.Rows)
	case EventLookup:
		if e.Request == nil {
			return fmt.Sprintf("%s (%d rows)", e.Case, e.Rows)
		}
		return fmt.Sprintf("zip=%s measure=%q: %s (%d rows)", e.Request.Zip, e.Request.MeasureName, e.Case, e.Rows)
	default:
		return e.Case
	}
}

// assertTraceCount checks that events of the given type (and case, if set)
// appear exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	var count int64
	for _, event := range trace {
		if event.Type != assertion.Event {
			continue
		}
		if assertion.Case != "" && event.Case != assertion.Case {
			continue
		}
		count++
	}

	if count != *assertion.Count {
		what := assertion.Event
		if assertion.Case != "" {
			what += " with case " + assertion.Case
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s to appear %d times", what, *assertion.Count),
			Actual:   fmt.Sprintf("appeared %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTableExists checks whether the table is present.
func assertTableExists(ctx context.Context, st *store.Store, assertion Assertion, want bool) error {
	ok, err := st.TableExists(ctx, assertion.Table)
	if err != nil {
		return fmt.Errorf("check table %s: %w", assertion.Table, err)
	}
	if ok != want {
		expected, actual := "present", "missing"
		if !want {
			expected, actual = actual, expected
		}
		return &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("table %s %s", assertion.Table, expected),
			Actual:   fmt.Sprintf("table %s %s", assertion.Table, actual),
		}
	}
	return nil
}

// assertRowCount checks the number of rows in the table.
func assertRowCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	n, err := st.CountRows(ctx, assertion.Table)
	if err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s", *assertion.Count, assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if n != *assertion.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s", *assertion.Count, assertion.Table),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

// assertColumns checks the table's column names, in order, and that every
// column is TEXT.
func assertColumns(ctx context.Context, st *store.Store, assertion Assertion) error {
	cols, err := st.Columns(ctx, assertion.Table)
	if err != nil {
		return fmt.Errorf("read columns of %s: %w", assertion.Table, err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		if c.Type != "TEXT" {
			return &AssertionError{
				Type:     AssertColumns,
				Expected: fmt.Sprintf("column %s.%s to be TEXT", assertion.Table, c.Name),
				Actual:   fmt.Sprintf("type %q", c.Type),
			}
		}
	}

	if !slices.Equal(names, assertion.Columns) {
		return &AssertionError{
			Type:     AssertColumns,
			Expected: fmt.Sprintf("%s columns %v", assertion.Table, assertion.Columns),
			Actual:   fmt.Sprintf("%v", names),
		}
	}
	return nil
}

// assertFinalState checks that exactly one row of the table matches Where
// and that it holds the Expect values (subset semantics).
//
// Identifiers are quoted and values are bound, never interpolated.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	whereSQL, whereArgs := buildWhereClause(assertion.Where)

	query := "SELECT * FROM " + ident.Quote(assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]sql.NullString, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Check for multiple matching rows (would indicate ambiguous assertion)
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]*string, len(columns))
	for i, col := range columns {
		if values[i].Valid {
			v := values[i].String
			actualRow[col] = &v
		} else {
			actualRow[col] = nil
		}
	}

	for _, key := range sortedKeys(assertion.Expect) {
		actual, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !cellEqual(assertion.Expect[key], actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %s", key, formatCell(assertion.Expect[key])),
				Actual:   fmt.Sprintf("field %q = %s", key, formatCell(actual)),
			}
		}
	}

	return nil
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are sorted
// for determinism; a nil value matches NULL.
func buildWhereClause(where map[string]*string) (string, []any) {
	if len(where) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(where))
	args := make([]any, 0, len(where))
	for _, key := range sortedKeys(where) {
		if where[key] == nil {
			clauses = append(clauses, ident.Quote(key)+" IS NULL")
			continue
		}
		clauses = append(clauses, ident.Quote(key)+" = ?")
		args = append(args, *where[key])
	}

	return strings.Join(clauses, " AND "), args
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]*string) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatCell(where[k])))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]*string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cellEqual compares two cells, nil meaning NULL.
func cellEqual(expected, actual *string) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	return *expected == *actual
}

func formatCell(v *string) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%q", *v)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for table assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTableExists, AssertTableAbsent, AssertRowCount, AssertColumns, AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
				break
			}
			err = evaluateTableAssertion(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func evaluateTableAssertion(actx *AssertionContext, assertion Assertion) error {
	switch assertion.Type {
	case AssertTableExists:
		return assertTableExists(actx.Ctx, actx.Store, assertion, true)
	case AssertTableAbsent:
		return assertTableExists(actx.Ctx, actx.Store, assertion, false)
	case AssertRowCount:
		return assertRowCount(actx.Ctx, actx.Store, assertion)
	case AssertColumns:
		return assertColumns(actx.Ctx, actx.Store, assertion)
	default:
		return assertFinalState(actx.Ctx, actx.Store, assertion)
	}
}
