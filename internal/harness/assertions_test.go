package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yravipati/countydata/internal/loader"
	"github.com/yravipati/countydata/internal/lookup"
	"github.com/yravipati/countydata/internal/store"
)

func newAssertionContext(t *testing.T, sources ...string) *AssertionContext {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "assert.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	l := loader.New(st)
	for _, src := range sources {
		_, err := l.Load(ctx, src)
		require.NoError(t, err)
	}
	return &AssertionContext{Store: st, Ctx: ctx}
}

func sampleTrace() *Result {
	r := NewResult()
	r.AddTrace(TraceEvent{Type: EventLoad, Seq: 1, Case: CaseOK})
	r.AddTrace(TraceEvent{Type: EventLoad, Seq: 2, Case: "SCHEMA_ERROR"})
	r.AddTrace(TraceEvent{Type: EventLookup, Seq: 3, Case: CaseOK})
	r.AddTrace(TraceEvent{Type: EventLookup, Seq: 4, Case: "NOT_FOUND"})
	r.AddTrace(TraceEvent{Type: EventLookup, Seq: 5, Case: "NOT_FOUND"})
	return r
}

func TestAssertTraceCount(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		kase   string
		count  int64
		passes bool
	}{
		{"all loads", EventLoad, "", 2, true},
		{"all lookups", EventLookup, "", 3, true},
		{"lookups by case", EventLookup, "NOT_FOUND", 2, true},
		{"absent case", EventLookup, "TEAPOT", 0, true},
		{"wrong count", EventLoad, CaseOK, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleTrace(), []Assertion{
				{Type: AssertTraceCount, Event: tt.event, Case: tt.kase, Count: ptr(tt.count)},
			}, nil)
			if tt.passes {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Contains(t, errs[0], "load with case ok to appear 2 times")
				assert.Contains(t, errs[0], "appeared 1 times")
				assert.Contains(t, errs[0], "Full trace:")
				assert.Contains(t, errs[0], "[3] lookup ok (0 rows)")
			}
		})
	}
}

func TestDescribeEvent(t *testing.T) {
	withRequest := TraceEvent{
		Type:    EventLookup,
		Case:    CaseOK,
		Rows:    1,
		Request: &lookup.Request{Zip: "02138", MeasureName: "Adult obesity"},
	}
	assert.Equal(t, `zip=02138 measure="Adult obesity": ok (1 rows)`, describeEvent(withRequest))

	withoutRequest := TraceEvent{Type: EventLookup, Case: "NOT_FOUND"}
	assert.Equal(t, "NOT_FOUND (0 rows)", describeEvent(withoutRequest))
}

func TestTableAssertions_RequireStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertRowCount, Table: "t", Count: ptr(int64(0))},
	}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}

func TestUnknownAssertionType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "trace_order"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "trace_order"`)
}

func TestTableExistsAndAbsent(t *testing.T) {
	actx := newAssertionContext(t, "testdata/data/zip_county.csv")

	assert.Empty(t, EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertTableExists, Table: "zip_county"},
		{Type: AssertTableAbsent, Table: "county_health_rankings"},
	}, actx))

	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertTableExists, Table: "county_health_rankings"},
		{Type: AssertTableAbsent, Table: "zip_county"},
	}, actx)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "table county_health_rankings present")
	assert.Contains(t, errs[1], "table zip_county missing")
}

func TestRowCount(t *testing.T) {
	actx := newAssertionContext(t, "testdata/data/zip_county.csv")

	assert.Empty(t, EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertRowCount, Table: "zip_county", Count: ptr(int64(4))},
	}, actx))

	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertRowCount, Table: "zip_county", Count: ptr(int64(5))},
		{Type: AssertRowCount, Table: "missing", Count: ptr(int64(0))},
	}, actx)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "Actual: 4 rows")
	assert.Contains(t, errs[1], "query error")
}

func TestColumns(t *testing.T) {
	actx := newAssertionContext(t, "testdata/data/ragged.csv")

	assert.Empty(t, EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertColumns, Table: "ragged", Columns: []string{"a", "b"}},
	}, actx))

	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertColumns, Table: "ragged", Columns: []string{"b", "a"}},
	}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "[a b]")
}

func TestFinalState(t *testing.T) {
	actx := newAssertionContext(t, "testdata/data/zip_county.csv", "testdata/data/ragged.csv")

	tests := []struct {
		name      string
		assertion Assertion
		errMsg    string
	}{
		{
			name: "match",
			assertion: Assertion{
				Table:  "zip_county",
				Where:  map[string]*string{"zip": ptr("10001")},
				Expect: map[string]*string{"county": ptr("New York County"), "state_abbreviation": ptr("NY")},
			},
		},
		{
			name: "null cell",
			assertion: Assertion{
				Table:  "ragged",
				Where:  map[string]*string{"a": ptr("3")},
				Expect: map[string]*string{"b": nil},
			},
		},
		{
			name: "where on null",
			assertion: Assertion{
				Table:  "ragged",
				Where:  map[string]*string{"b": nil},
				Expect: map[string]*string{"a": ptr("3")},
			},
		},
		{
			name: "value mismatch",
			assertion: Assertion{
				Table:  "zip_county",
				Where:  map[string]*string{"zip": ptr("10001")},
				Expect: map[string]*string{"county": ptr("Kings County")},
			},
			errMsg: `field "county" = "New York County"`,
		},
		{
			name: "null expected",
			assertion: Assertion{
				Table:  "zip_county",
				Where:  map[string]*string{"zip": ptr("10001")},
				Expect: map[string]*string{"county": nil},
			},
			errMsg: `field "county" = NULL`,
		},
		{
			name: "missing field",
			assertion: Assertion{
				Table:  "zip_county",
				Where:  map[string]*string{"zip": ptr("10001")},
				Expect: map[string]*string{"fips": ptr("36061")},
			},
			errMsg: `field "fips" not present`,
		},
		{
			name: "no row",
			assertion: Assertion{
				Table:  "zip_county",
				Where:  map[string]*string{"zip": ptr("00000")},
				Expect: map[string]*string{"county": ptr("x")},
			},
			errMsg: "row not found",
		},
		{
			name: "ambiguous",
			assertion: Assertion{
				Table:  "zip_county",
				Where:  map[string]*string{"zip": ptr("02138")},
				Expect: map[string]*string{"default_city": ptr("Cambridge")},
			},
			errMsg: "multiple rows matched",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assertion.Type = AssertFinalState
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.assertion}, actx)
			if tt.errMsg == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.errMsg)
		})
	}
}

func TestBuildWhereClause(t *testing.T) {
	clause, args := buildWhereClause(map[string]*string{
		"zip":    ptr("02138"),
		"county": nil,
		"order":  ptr("1"),
	})
	assert.Equal(t, `"county" IS NULL AND "order" = ? AND "zip" = ?`, clause)
	assert.Equal(t, []any{"1", "02138"}, args)

	clause, args = buildWhereClause(nil)
	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestCellEqual(t *testing.T) {
	assert.True(t, cellEqual(nil, nil))
	assert.True(t, cellEqual(ptr(""), ptr("")))
	assert.False(t, cellEqual(nil, ptr("")))
	assert.False(t, cellEqual(ptr(""), nil))
	assert.False(t, cellEqual(ptr("a"), ptr("b")))
}
