package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yravipati/countydata/internal/lookup"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sources lists CSV files loaded, in order, before the flow runs.
	// Each must load successfully.
	Sources []string `yaml:"sources"`

	// Flow contains the steps to execute, with expected outcomes.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and tables.
	// Supported types: trace_count, table_exists, table_absent, row_count,
	// columns, final_state.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one step of the flow. Exactly one of Load or Lookup is set.
type FlowStep struct {
	// Load is a CSV path to load.
	Load string `yaml:"load,omitempty"`

	// Table overrides the table name derived from Load.
	Table string `yaml:"table,omitempty"`

	// Lookup is a lookup request to run.
	Lookup *lookup.Request `yaml:"lookup,omitempty"`

	// Expect specifies the expected outcome. If nil, any outcome is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Case is "ok" or the error kind or code: SCHEMA_ERROR, NAME_ERROR,
	// STORE_ERROR, BAD_REQUEST, NOT_FOUND, TEAPOT.
	Case string `yaml:"case"`

	// Rows is the expected number of rows loaded or returned.
	Rows *int64 `yaml:"rows,omitempty"`

	// Message is the expected lookup error message.
	Message string `yaml:"message,omitempty"`

	// First is a subset match against the first returned record, keyed by
	// column name. A null value expects NULL.
	First map[string]*string `yaml:"first,omitempty"`
}

// Assertion validates the trace or the final tables.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": Event (and Case, if set) appears exactly Count times
	// - "table_exists" / "table_absent": Table is present or missing
	// - "row_count": Table holds exactly Count rows
	// - "columns": Table has exactly Columns, in order, all TEXT
	// - "final_state": the single row matching Where has the Expect values
	Type string `yaml:"type"`

	Event   string             `yaml:"event,omitempty"`
	Case    string             `yaml:"case,omitempty"`
	Table   string             `yaml:"table,omitempty"`
	Count   *int64             `yaml:"count,omitempty"`
	Columns []string           `yaml:"columns,omitempty"`
	Where   map[string]*string `yaml:"where,omitempty"`
	Expect  map[string]*string `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount  = "trace_count"
	AssertTableExists = "table_exists"
	AssertTableAbsent = "table_absent"
	AssertRowCount    = "row_count"
	AssertColumns     = "columns"
	AssertFinalState  = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Source and load paths
// are resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, src := range scenario.Sources {
		scenario.Sources[i] = resolve(base, src)
	}
	for i := range scenario.Flow {
		if scenario.Flow[i].Load != "" {
			scenario.Flow[i].Load = resolve(base, scenario.Flow[i].Load)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Sources) == 0 && len(s.Flow) == 0 {
		return fmt.Errorf("sources or flow must be non-empty")
	}

	for _, src := range s.Sources {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", src)
		}
	}

	for i, step := range s.Flow {
		if (step.Load == "") == (step.Lookup == nil) {
			return fmt.Errorf("flow[%d]: exactly one of load or lookup is required", i)
		}
		if step.Table != "" && step.Load == "" {
			return fmt.Errorf("flow[%d]: table is only valid with load", i)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Event != EventLoad && a.Event != EventLookup {
			return fmt.Errorf("assertions[%d]: event must be %q or %q for trace_count", index, EventLoad, EventLookup)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for trace_count", index)
		}
	case AssertTableExists, AssertTableAbsent:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for %s", index, a.Type)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for row_count", index)
		}
	case AssertColumns:
		if a.Table == "" || len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: table and columns are required for columns", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
