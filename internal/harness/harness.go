package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yravipati/countydata/internal/loader"
	"github.com/yravipati/countydata/internal/lookup"
	"github.com/yravipati/countydata/internal/store"
	"github.com/yravipati/countydata/internal/testutil"
)

// CaseError is the outcome of a step that failed without a typed error.
const CaseError = "ERROR"

// Harness executes one scenario against its own store.
type Harness struct {
	store  *store.Store
	loader *loader.Loader
	lookup *lookup.Service
	seq    *testutil.Sequence
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh database file in a temporary directory,
// removed when Run returns.
//
// Execution flow:
// 1. Load every source (any failure aborts the run with an error)
// 2. Execute flow steps, checking expect clauses
// 3. Evaluate assertions against the trace and tables
//
// Failed expectations and assertions are reported in the Result, not as an
// error.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "countydata-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	logger := testutil.DiscardLogger()
	h := &Harness{
		store:  st,
		loader: loader.New(st, loader.WithLogger(logger)),
		lookup: lookup.New(st.DB(), lookup.WithLogger(logger)),
		seq:    testutil.NewSequence(),
	}

	result := NewResult()

	for _, src := range scenario.Sources {
		res, err := h.loader.Load(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("failed to load source %s: %w", filepath.Base(src), err)
		}
		result.AddTrace(TraceEvent{
			Type:   EventLoad,
			Seq:    h.seq.Next(),
			Source: filepath.Base(src),
			Table:  res.Table,
			Case:   CaseOK,
			Rows:   res.Rows,
		})
	}

	for i, step := range scenario.Flow {
		event := h.execute(ctx, step)
		result.AddTrace(event)
		if step.Expect == nil {
			continue
		}
		for _, msg := range checkExpect(event, step.Expect) {
			result.AddError(fmt.Sprintf("flow[%d]: %s", i, msg))
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs one flow step and records its outcome.
func (h *Harness) execute(ctx context.Context, step FlowStep) TraceEvent {
	if step.Load != "" {
		event := TraceEvent{Type: EventLoad, Seq: h.seq.Next(), Source: filepath.Base(step.Load)}
		res, err := h.loader.LoadAs(ctx, step.Load, step.Table)
		if err != nil {
			event.Case, event.Message = loadOutcome(err)
			return event
		}
		event.Table = res.Table
		event.Case = CaseOK
		event.Rows = res.Rows
		return event
	}

	req := *step.Lookup
	event := TraceEvent{Type: EventLookup, Seq: h.seq.Next(), Request: &req}
	records, err := h.lookup.Lookup(ctx, req)
	if err != nil {
		event.Case, event.Message = lookupOutcome(err)
		return event
	}
	event.Case = CaseOK
	event.Rows = int64(len(records))
	event.Records = records
	return event
}

func loadOutcome(err error) (string, string) {
	var le *loader.LoadError
	if errors.As(err, &le) {
		return string(le.Kind), le.Message
	}
	return CaseError, err.Error()
}

func lookupOutcome(err error) (string, string) {
	var le *lookup.Error
	if errors.As(err, &le) {
		return string(le.Code), le.Message
	}
	return CaseError, err.Error()
}

// checkExpect compares an executed step with its expect clause.
func checkExpect(event TraceEvent, expect *ExpectClause) []string {
	var errs []string

	if event.Case != expect.Case {
		msg := fmt.Sprintf("expected case %q, got %q", expect.Case, event.Case)
		if event.Message != "" {
			msg += fmt.Sprintf(" (%s)", event.Message)
		}
		// Nothing else is meaningful once the case differs.
		return append(errs, msg)
	}

	if expect.Rows != nil && *expect.Rows != event.Rows {
		errs = append(errs, fmt.Sprintf("expected %d rows, got %d", *expect.Rows, event.Rows))
	}

	if expect.Message != "" && expect.Message != event.Message {
		errs = append(errs, fmt.Sprintf("expected message %q, got %q", expect.Message, event.Message))
	}

	if len(expect.First) > 0 {
		if len(event.Records) == 0 {
			return append(errs, "expected a first record, got none")
		}
		first, err := recordFields(event.Records[0])
		if err != nil {
			return append(errs, err.Error())
		}
		for _, key := range sortedKeys(expect.First) {
			actual, ok := first[key]
			if !ok {
				errs = append(errs, fmt.Sprintf("first record has no field %q", key))
				continue
			}
			if !cellEqual(expect.First[key], actual) {
				errs = append(errs, fmt.Sprintf("first record field %q = %s, want %s",
					key, formatCell(actual), formatCell(expect.First[key])))
			}
		}
	}

	return errs
}

// recordFields flattens a record into its column names and values.
func recordFields(rec lookup.Record) (map[string]*string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	fields := make(map[string]*string)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return fields, nil
}
