package worker

import (
	"context"
	"os"
	"strings"
	"time"

	"sjsage522/catalogworker/config"
	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/internal/parser"
	"sjsage522/catalogworker/internal/product"
	"sjsage522/catalogworker/logger"
	apperrors "sjsage522/catalogworker/pkg/errors"
	"sjsage522/catalogworker/services/publisher"
)

// CategoryParser is the extraction entry point the worker drives
type CategoryParser interface {
	ParseCategory(ctx context.Context, category, subcategory string, max int) ([]product.Product, parser.Summary, error)

	// ResetSession makes the next category log in again
	ResetSession()
}

// Worker runs the configured jobs one after another on a single session
type Worker struct {
	ctx           context.Context
	parser        CategoryParser
	jobs          []config.Job
	publisher     publisher.Publisher
	logger        helpers.FailureLogger
	crawlInterval time.Duration
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(
	ctx context.Context,
	p CategoryParser,
	jobs []config.Job,
	pub publisher.Publisher,
	logger helpers.FailureLogger,
	crawlInterval time.Duration,
) *Worker {
	return &Worker{
		ctx:           ctx,
		parser:        p,
		jobs:          jobs,
		publisher:     pub,
		logger:        logger,
		crawlInterval: crawlInterval,
	}
}

// Start runs the jobs, then repeats every crawl interval until the context is
// cancelled. A zero interval runs once. Every repeat starts with a fresh login.
func (w *Worker) Start() error {
	for cycle := 0; ; cycle++ {
		if cycle > 0 {
			w.parser.ResetSession()
		}
		start := time.Now()
		summary, err := w.runJobs()
		w.report(summary, time.Since(start))
		if err != nil {
			return err
		}

		if w.crawlInterval <= 0 {
			return nil
		}
		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}

// runJobs parses every job in order. A failed category is logged and skipped;
// an auth failure ends the run because no later job can succeed.
func (w *Worker) runJobs() (parser.Summary, error) {
	total := parser.NewSummary()
	var runErr error

	for _, job := range w.jobs {
		if w.ctx.Err() != nil {
			break
		}
		scope := job.Category
		if job.Subcategory != "" {
			scope += "/" + job.Subcategory
		}

		products, summary, err := w.parser.ParseCategory(w.ctx, job.Category, job.Subcategory, job.MaxProducts)
		total.Merge(summary)
		if err != nil {
			w.logger.LogError(scope, err)
			if apperrors.IsType(err, apperrors.ErrorTypeAuth) {
				runErr = err
				break
			}
			continue
		}
		w.logger.LogInfo("%s: %d products stored", scope, len(products))
	}

	// Trim all streams after the run
	if w.publisher != nil {
		if err := w.publisher.TrimStreams(); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}
	return total, runErr
}

func (w *Worker) report(summary parser.Summary, elapsed time.Duration) {
	logger.ForWorker().Info().
		Int("attempted", summary.Attempted).
		Int("stored", summary.Stored).
		Int("dropped", summary.Dropped).
		Int("failed", summary.Failed).
		Dur("elapsed", elapsed).
		Msg("Run finished")

	if os.Getenv("CATALOG_ENVIRONMENT") != "production" {
		var b strings.Builder
		summary.Render(&b)
		w.logger.LogInfo("Run summary:\n%s", b.String())
	}
}
