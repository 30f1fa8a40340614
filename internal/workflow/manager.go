// Package workflow drives a full run: discovery, a worker pool over the
// per-document pipeline, the end-of-run retry pass, and the summary
// artifacts. Documents are independent and processed concurrently; the
// ledger and retry queue serialize their own writes.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"docket/internal/config"
	"docket/internal/document"
	"docket/internal/logging"
	"docket/internal/notifications"
	"docket/internal/organizer"
	"docket/internal/report"
	"docket/internal/retryqueue"
	"docket/internal/services"
)

// Manager owns one run at a time.
type Manager struct {
	cfg       *config.Config
	organizer *organizer.Organizer
	queue     *retryqueue.Store
	retrier   retryqueue.Translator
	notifier  notifications.Service
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes the manager.
type Option func(*Manager)

// WithClock overrides the wall clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a Manager.
func New(
	cfg *config.Config,
	org *organizer.Organizer,
	queue *retryqueue.Store,
	retrier retryqueue.Translator,
	notifier notifications.Service,
	logger *slog.Logger,
	opts ...Option,
) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	m := &Manager{
		cfg:       cfg,
		organizer: org,
		queue:     queue,
		retrier:   retrier,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type noopNotifier struct{}

func (noopNotifier) NotifyRunStarted(context.Context, int) error                       { return nil }
func (noopNotifier) NotifyRunCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopNotifier) NotifyError(context.Context, error, string) error                  { return nil }
func (noopNotifier) NotifyManualIntervention(context.Context, string, int) error       { return nil }
func (noopNotifier) TestNotification(context.Context) error                            { return nil }

// Run processes every document in inputDir. Per-document failures are
// accumulated; only storage-layer errors abort the run. Cancellation stops
// new work but lets the in-flight document finish so its ledger entry is
// never half-committed.
func (m *Manager) Run(ctx context.Context, inputDir string) (*report.Stats, error) {
	started := m.now()
	stats := report.NewStats(started)

	ctx = services.WithRunID(ctx, uuid.NewString()[:8])
	log := logging.WithContext(ctx, m.logger)

	records, err := document.Discover(inputDir, m.cfg.Naming.Extension)
	if err != nil {
		return stats, err
	}
	log.Info("run started",
		logging.Int("documents", len(records)),
		logging.Int("workers", m.cfg.Workflow.Workers))
	_ = m.notifier.NotifyRunStarted(ctx, len(records))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan document.Record)
	outcomes := make(chan organizer.Outcome)

	var wg sync.WaitGroup
	workers := m.cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				outcomes <- m.organizer.Process(runCtx, rec, m.now())
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range records {
			select {
			case jobs <- rec:
			case <-runCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var fatal error
	for outcome := range outcomes {
		if outcome.Err != nil {
			stats.AddFailure(outcome.Record.Name, outcome.Err, outcome.Queued)
			log.Error("document failed",
				logging.String(logging.FieldDocument, outcome.Record.Name),
				logging.Error(outcome.Err))
			if services.IsFatal(outcome.Err) && fatal == nil {
				fatal = outcome.Err
				cancel()
			}
			continue
		}
		stats.AddSuccess(outcome.Operation, outcome.Supplier, outcome.ContractType,
			outcome.TranslatedChars, outcome.Degraded)
	}
	if fatal != nil {
		_ = m.notifier.NotifyError(ctx, fatal, "run")
		return stats, fatal
	}

	// End-of-run pass over previously queued requests that are now eligible.
	if ctx.Err() == nil && m.retrier != nil {
		retryOutcome, err := m.queue.RetryAll(ctx, m.retrier, m.now())
		stats.Retried = retryOutcome.Attempted
		if err != nil && services.IsFatal(err) {
			return stats, err
		}
		if retryOutcome.Skipped > 0 {
			for _, req := range m.queue.ByStatus(retryqueue.StatusSkipped, m.now()) {
				_ = m.notifier.NotifyManualIntervention(ctx, req.OriginalText, req.AttemptCount)
			}
		}
	}

	stats.Finished = m.now()
	if path, err := report.WriteSummary(m.cfg.Paths.SummaryDir, stats, m.queue.Summarize(m.now())); err != nil {
		return stats, err
	} else {
		log.Info("summary written", logging.String("path", path))
	}
	if err := report.WriteReadme(m.cfg.Paths.ProcessedDir, m.cfg.Naming.Extension); err != nil {
		return stats, err
	}

	_ = m.notifier.NotifyRunCompleted(ctx, stats.Processed, stats.Failed, stats.Duration())
	log.Info("run finished",
		logging.Int("processed", stats.Processed),
		logging.Int("failed", stats.Failed),
		logging.Int("retried", stats.Retried))
	return stats, nil
}
