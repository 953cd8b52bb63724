package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/internal/model"
)

// BatchProcessor handles concurrent processing of multiple documents.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each document, so no step
	// state is shared between documents.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of documents processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent documents.
// Non-positive values keep the default of config.DefaultBatchSize.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// The pipelineFactory function is called once per document.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the maximum number of documents processed at once.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch filters the given sources concurrently and returns one report
// per source, in the order of sources. A failing document does not stop the
// others; its error is recorded in its report.
//
// The error return is only set when the batch was cancelled, in which case
// reports of documents that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*model.FilterReport, error) {
	bp.logger.Info("starting batch processing",
		"total_documents", len(sources),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.FilterReport, len(sources))

	err := bp.run(ctx, sources, func(report *model.FilterReport, index int) {
		results[index] = report
	})

	bp.logger.Info("batch processing complete",
		"total_documents", len(sources),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback filters the sources and calls callback for each
// completed document, with the index of its source. The callback is called
// from the goroutine that processed the document, so it must be safe for
// concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []string,
	callback func(report *model.FilterReport, index int),
) error {
	return bp.run(ctx, sources, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	sources []string,
	done func(report *model.FilterReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("filtering document",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)

			report := model.NewFilterReport(source)
			if err := bp.pipelineFactory().Execute(ctx, report); err != nil {
				bp.logger.Warn("document failed",
					"source", source,
					"error", err,
				)
			}

			done(report, i)

			// Failures stay in the report so the other documents go on.
			return nil
		})
	}

	return g.Wait()
}
