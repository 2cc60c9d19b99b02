package annotate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Summary aggregates per-identifier outcomes for one run.
type Summary struct {
	Total       int     `json:"total"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// NewSummary computes the run summary. The rate is 0 for an empty run.
func NewSummary(total, successful, failed int) Summary {
	s := Summary{Total: total, Successful: successful, Failed: failed}
	if total > 0 {
		s.SuccessRate = float64(successful) / float64(total)
	}
	return s
}

// SummaryPath derives the sibling summary file path for an output
// file: <output minus extension>_summary.json.
func SummaryPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_summary.json"
}

// WriteFile writes the summary as indented JSON.
func (s Summary) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
