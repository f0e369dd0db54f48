package question

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrImportQueueFull is returned by Enqueue when the worker is saturated.
var ErrImportQueueFull = errors.New("import queue is full")

// ImportWorker runs queued imports one at a time in the background.
type ImportWorker struct {
	importer *Importer
	queue    chan ImportRequest
	logger   zerolog.Logger
	timeout  time.Duration
}

func NewImportWorker(importer *Importer, queueSize int, timeout time.Duration, logger zerolog.Logger) *ImportWorker {
	if queueSize <= 0 {
		queueSize = 8
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ImportWorker{
		importer: importer,
		queue:    make(chan ImportRequest, queueSize),
		logger:   logger.With().Str("component", "question_import_worker").Logger(),
		timeout:  timeout,
	}
}

// Enqueue validates req and schedules it without blocking.
func (w *ImportWorker) Enqueue(req ImportRequest) error {
	if err := w.importer.Validate(req); err != nil {
		return err
	}
	select {
	case w.queue <- req:
		return nil
	default:
		return ErrImportQueueFull
	}
}

// Run blocks until context cancellation.
func (w *ImportWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("import worker stopping")
			return ctx.Err()
		case req := <-w.queue:
			w.handle(ctx, req)
		}
	}
}

func (w *ImportWorker) handle(ctx context.Context, req ImportRequest) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	res, err := w.importer.Import(ctx, req)
	if err != nil {
		w.logger.Warn().Err(err).Str("source", req.Source).Int("inserted", res.Inserted).Msg("import failed")
		return
	}
	w.logger.Info().
		Str("source", res.Source).
		Int("fetched", res.Fetched).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("import complete")
}
