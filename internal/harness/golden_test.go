package harness

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Unemployment(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/unemployment.yaml")
	require.NoError(t, err)

	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_Unemployment -update
	result, err := RunWithGolden(t, context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Shape(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Type: EventLoad, Seq: 1, Source: "a.csv", Table: "a", Case: CaseOK, Rows: 2})

	data, err := Snapshot("shape", result)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "}\n"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "shape", decoded["scenario_name"])

	trace := decoded["trace"].([]any)
	require.Len(t, trace, 1)
	event := trace[0].(map[string]any)
	assert.Equal(t, "load", event["type"])
	assert.NotContains(t, event, "request")
	assert.NotContains(t, event, "records")
	assert.NotContains(t, event, "message")
}

func TestSnapshot_EmptyTrace(t *testing.T) {
	data, err := Snapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"scenario_name\": \"empty\",\n  \"trace\": []\n}\n", string(data))
}
