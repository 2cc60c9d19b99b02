package annotate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSummary(t *testing.T) {
	s := NewSummary(10, 7, 3)
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 7, s.Successful)
	assert.Equal(t, 3, s.Failed)
	assert.InDelta(t, 0.7, s.SuccessRate, 1e-9)
}

func TestNewSummary_EmptyRun(t *testing.T) {
	s := NewSummary(0, 0, 0)
	assert.Zero(t, s.SuccessRate)
}

func TestSummaryPath(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"out.csv", "out_summary.json"},
		{"/data/annotated.xlsx", "/data/annotated_summary.json"},
		{"noext", "noext_summary.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SummaryPath(tt.output))
	}
}

func TestSummary_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_summary.json")
	require.NoError(t, NewSummary(4, 3, 1).WriteFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(4), got["total"])
	assert.Equal(t, float64(3), got["successful"])
	assert.Equal(t, float64(1), got["failed"])
	assert.InDelta(t, 0.75, got["success_rate"].(float64), 1e-9)
}
