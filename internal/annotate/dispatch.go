package annotate

import (
	"context"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/h3abionet/agvd-cli/internal/agvd"
	"github.com/h3abionet/agvd-cli/internal/batch"
	"github.com/h3abionet/agvd-cli/internal/variant"
)

// Submitter submits one batch of same-kind identifiers to the remote
// service. *agvd.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, ids []string, threshold float64, kind variant.Kind) ([]agvd.Result, error)
}

// DefaultWorkers is the default dispatch pool width.
const DefaultWorkers = 4

// Dispatcher runs batch queries on a bounded worker pool and hands
// each outcome to a single-threaded reducer as it completes.
// Completion order across batches is non-deterministic; outcomes land
// at explicit row indices so the merged table is order-independent.
type Dispatcher struct {
	submitter Submitter
	threshold float64
	workers   int
	progress  bool
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. workers <= 0 selects
// DefaultWorkers.
func NewDispatcher(submitter Submitter, threshold float64, workers int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{
		submitter: submitter,
		threshold: threshold,
		workers:   workers,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for batch progress and failure messages.
func (d *Dispatcher) SetLogger(l *zap.Logger) {
	d.logger = l
}

// SetProgress enables a terminal progress bar over completed batches.
func (d *Dispatcher) SetProgress(enabled bool) {
	d.progress = enabled
}

// Run dispatches every batch across the pool and applies each outcome
// via apply as it completes. A failed batch yields ERROR updates for
// its own rows only; other batches are unaffected. Run always waits
// for every dispatched batch and returns the aggregate success and
// failure counts.
func (d *Dispatcher) Run(ctx context.Context, batches []batch.Batch, apply func(BatchOutcome)) (successes, failures int) {
	if len(batches) == 0 {
		return 0, 0
	}

	tasks := make(chan batch.Batch, len(batches))
	for _, b := range batches {
		tasks <- b
	}
	close(tasks)

	outcomes := make(chan BatchOutcome, d.workers)

	var wg sync.WaitGroup
	wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go func() {
			defer wg.Done()
			for b := range tasks {
				results, err := d.submitter.Submit(ctx, b.IDs, d.threshold, b.Kind)
				if err != nil {
					outcomes <- errorOutcome(b, d.threshold, err)
					continue
				}
				outcomes <- mergeResults(b, results)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var bar *pb.ProgressBar
	if d.progress {
		bar = pb.StartNew(len(batches))
	}

	for out := range outcomes {
		if out.Err != nil {
			d.logger.Error("batch failed",
				zap.String("kind", string(out.Batch.Kind)),
				zap.Int("identifiers", out.Batch.Len()),
				zap.Error(out.Err))
		} else {
			d.logger.Debug("batch completed",
				zap.String("kind", string(out.Batch.Kind)),
				zap.Int("identifiers", out.Batch.Len()))
		}
		apply(out)
		successes += out.Successes
		failures += out.Failures
		if bar != nil {
			bar.Increment()
		}
	}

	if bar != nil {
		bar.Finish()
	}
	return successes, failures
}
