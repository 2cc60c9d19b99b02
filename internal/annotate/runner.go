package annotate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/h3abionet/agvd-cli/internal/batch"
	"github.com/h3abionet/agvd-cli/internal/table"
	"github.com/h3abionet/agvd-cli/internal/variant"
	"github.com/h3abionet/agvd-cli/internal/vcf"
)

// Options configures one annotation run.
type Options struct {
	Input     string
	Output    string
	Threshold float64
	BatchSize int
	Columns   table.ColumnSpec
	Threads   int
	DryRun    bool
	Progress  bool
}

// Runner drives a full run: load the table, normalize identifiers,
// plan batches, dispatch them and write the annotated table plus the
// summary file.
type Runner struct {
	opts      Options
	submitter Submitter
	logger    *zap.Logger
}

// NewRunner creates a runner over the given submitter.
func NewRunner(opts Options, submitter Submitter) *Runner {
	return &Runner{opts: opts, submitter: submitter, logger: zap.NewNop()}
}

// SetLogger sets the logger for run progress messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run executes the annotation pipeline. VCF inputs are staged through
// a temporary CSV which is removed afterwards; the annotated output
// for them is written as CSV.
func (r *Runner) Run(ctx context.Context) error {
	input := r.opts.Input
	columns := r.opts.Columns

	if isVCF(input) {
		staged := r.opts.Output + ".tmp.csv"
		n, err := vcf.Stage(input, staged)
		if err != nil {
			return fmt.Errorf("stage vcf: %w", err)
		}
		defer os.Remove(staged)
		r.logger.Info("staged vcf input", zap.String("path", input), zap.Int("records", n))

		input = staged
		columns = table.ColumnSpec{Column: vcf.StagedColumn}
	}

	return r.processTable(ctx, input, columns)
}

func isVCF(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".vcf") || strings.HasSuffix(lower, ".vcf.gz")
}

func (r *Runner) processTable(ctx context.Context, input string, columns table.ColumnSpec) error {
	tbl, format, err := table.Read(input)
	if err != nil {
		return err
	}

	col, err := tbl.ResolveVariantColumn(columns)
	if err != nil {
		return err
	}

	ids, _ := tbl.Column(col)

	var items []batch.Item
	invalid := 0
	for row, raw := range ids {
		id, err := variant.Normalize(raw)
		if err != nil {
			tbl.Set(row, ColStatus, StatusInvalid)
			invalid++
			r.logger.Debug("invalid identifier", zap.Int("row", row), zap.String("value", raw))
			continue
		}
		items = append(items, batch.Item{Row: row, ID: id})
	}
	if invalid > 0 {
		r.logger.Warn("identifiers excluded from submission", zap.Int("invalid", invalid))
	}

	plan := batch.Plan(items, r.opts.BatchSize)
	var batches []batch.Batch
	for _, kindBatches := range plan {
		batches = append(batches, kindBatches...)
	}

	if r.opts.DryRun {
		for kind, kindBatches := range plan {
			n := 0
			for _, b := range kindBatches {
				n += b.Len()
			}
			r.logger.Info("dry run: would submit",
				zap.String("kind", string(kind)),
				zap.Int("identifiers", n),
				zap.Int("batches", len(kindBatches)))
		}
		return nil
	}

	dispatcher := NewDispatcher(r.submitter, r.opts.Threshold, r.opts.Threads)
	dispatcher.SetLogger(r.logger)
	dispatcher.SetProgress(r.opts.Progress)

	successes, failures := dispatcher.Run(ctx, batches, func(out BatchOutcome) {
		for _, u := range out.Updates {
			for _, c := range u.Cells {
				tbl.Set(u.Row, c.Col, c.Val)
			}
		}
	})

	if err := tbl.Write(r.opts.Output, format); err != nil {
		return err
	}

	summary := NewSummary(len(ids), successes, failures)
	summaryPath := SummaryPath(r.opts.Output)
	if err := summary.WriteFile(summaryPath); err != nil {
		return err
	}

	r.logger.Info("run complete",
		zap.Int("total", summary.Total),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.String("output", r.opts.Output),
		zap.String("summary", summaryPath))
	return nil
}
