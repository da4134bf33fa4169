package extract

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/agroclim/internal/domain"
	"go.ngs.io/agroclim/internal/observability"
)

// Options bounds a coordinated run.
type Options struct {
	// BatchSize is the number of points per batch. Zero derives it from the
	// point count and worker count.
	BatchSize int
	// Workers is the number of concurrent batches. Zero means one per CPU.
	Workers int
	// MaxPoints caps the number of points submitted across all batches.
	// Zero means no cap.
	MaxPoints int
}

// RunStats summarizes a run.
type RunStats struct {
	Points     int // Valid points offered to the run.
	Batches    int // Batches produced by partitioning.
	Dispatched int // Batches handed to a worker.
	Submitted  int // Points handed to workers, after the cap.
	Completed  int // Points whose series were produced.
	Duration   time.Duration
}

// Coordinator fans batches of points out to workers and merges the results.
type Coordinator struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewCoordinator creates a Coordinator. A nil clock uses real time.
func NewCoordinator(logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Coordinator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Coordinator{logger: logger, metrics: metrics, clock: clock}
}

// Run processes points with task and returns one series per processed point.
//
// Points are split into contiguous batches. Batches are submitted in order
// while the number of submitted points is below opts.MaxPoints; each batch is
// given the remaining budget at submission time and stops once it is spent.
// The result therefore holds exactly min(MaxPoints, len(points)) entries.
//
// Any worker error cancels the run and Run returns a nil result: partial
// output is never reported. Run returns only after every worker has closed
// its session.
func (c *Coordinator) Run(ctx context.Context, task Task, points []domain.GridPoint, opts Options) (domain.ExtractionResult, RunStats, error) {
	start := c.clock.Now()
	stats := RunStats{Points: len(points)}
	if len(points) == 0 {
		c.logger.Info("no valid points, nothing to extract", "task", task.Name())
		return domain.ExtractionResult{}, stats, nil
	}

	workers := opts.Workers
	if workers < 1 {
		workers = max(1, runtime.NumCPU())
	}
	batches := domain.Partition(points, opts.BatchSize, workers)
	stats.Batches = len(batches)

	c.logger.Info("extraction started",
		"task", task.Name(),
		"points", len(points),
		"batches", len(batches),
		"batch_size", len(batches[0]),
		"workers", workers,
		"max_points", opts.MaxPoints,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu        sync.Mutex
		merged    = make(domain.ExtractionResult, min(len(points), capOrAll(opts.MaxPoints, len(points))))
		completed atomic.Int64
	)

	submitted := 0
	for i, batch := range batches {
		if opts.MaxPoints > 0 && submitted >= opts.MaxPoints {
			c.logger.Info("point cap reached, not dispatching further batches",
				"max_points", opts.MaxPoints, "skipped_batches", len(batches)-i)
			break
		}
		if gctx.Err() != nil {
			break
		}

		budget := len(batch)
		if opts.MaxPoints > 0 {
			budget = min(budget, opts.MaxPoints-submitted)
		}
		submitted += budget
		stats.Dispatched++
		c.metrics.BatchesDispatched.Inc()

		g.Go(func() error {
			out, err := c.runBatch(gctx, task, i, batch[:budget])
			if err != nil {
				c.metrics.BatchFailures.Inc()
				return err
			}
			mu.Lock()
			collisions := merged.Merge(out)
			mu.Unlock()
			if collisions > 0 {
				c.logger.Warn("duplicate points across batches", "batch", i, "duplicates", collisions)
			}
			completed.Add(int64(len(out)))
			return nil
		})
	}
	stats.Submitted = submitted

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	stats.Completed = int(completed.Load())
	stats.Duration = c.clock.Since(start)
	c.metrics.RunDuration.Observe(stats.Duration.Seconds())

	if err != nil {
		c.logger.Error("extraction failed", "task", task.Name(), "error", err, "completed", stats.Completed)
		return nil, stats, err
	}

	c.logger.Info("extraction finished",
		"task", task.Name(),
		"points", len(merged),
		"dispatched_batches", stats.Dispatched,
		"duration", stats.Duration,
	)
	return merged, stats, nil
}

func capOrAll(maxPoints, n int) int {
	if maxPoints > 0 {
		return maxPoints
	}
	return n
}

// runBatch extracts one batch sequentially with a session owned by this worker.
func (c *Coordinator) runBatch(ctx context.Context, task Task, index int, batch []domain.GridPoint) (out domain.ExtractionResult, err error) {
	start := c.clock.Now()

	session, err := task.Open()
	if err != nil {
		return nil, fmt.Errorf("batch %d: open datasets: %w", index, err)
	}
	open := float64(session.Datasets())
	c.metrics.DatasetsOpen.Add(open)
	defer func() {
		c.metrics.DatasetsOpen.Sub(open)
		if cerr := session.Close(); cerr != nil && err == nil {
			out, err = nil, fmt.Errorf("batch %d: close datasets: %w", index, cerr)
		}
	}()

	out = make(domain.ExtractionResult, len(batch))
	for _, p := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := session.Process(p)
		if err != nil {
			return nil, fmt.Errorf("batch %d: point %s: %w", index, p.Key(), err)
		}
		out[p] = s
		c.metrics.PointsExtracted.Inc()
	}

	elapsed := c.clock.Since(start)
	c.metrics.BatchDuration.Observe(elapsed.Seconds())
	c.logger.Debug("batch processed", "batch", index, "points", len(batch), "duration", elapsed)
	return out, nil
}
