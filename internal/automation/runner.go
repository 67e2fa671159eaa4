package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/notion-ai-webhook/internal/data/repos"
	"github.com/yungbote/notion-ai-webhook/internal/domain/runs"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/pkg/dbctx"
	"github.com/yungbote/notion-ai-webhook/internal/platform/ctxutil"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
	"github.com/yungbote/notion-ai-webhook/internal/platform/redislock"
)

// ErrDraining is returned by Submit once Drain has started.
var ErrDraining = errors.New("automation: runner is draining")

// Pipeline runs one automation to completion.
type Pipeline interface {
	Run(ctx context.Context, kind Kind, pageID string) error
}

// Locker guards a (kind, page) pair against concurrent runs.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (redislock.UnlockFunc, bool, error)
}

type RunnerOption func(*Runner)

// WithLocker skips a run when another run for the same kind and page holds
// the lock. Without it, concurrent runs interleave freely.
func WithLocker(l Locker, ttl time.Duration) RunnerOption {
	return func(r *Runner) {
		r.locker = l
		r.lockTTL = ttl
	}
}

// WithLedger records each run's lifecycle.
func WithLedger(repo repos.AutomationRunRepo) RunnerOption {
	return func(r *Runner) { r.ledger = repo }
}

// Trigger is everything a background run needs. It is copied into the run;
// nothing request-scoped is shared.
type Trigger struct {
	Kind    Kind
	PageID  string
	Payload []byte
}

// Runner starts pipelines in the background and forgets them. Outcomes are
// only logged, counted and optionally recorded in the ledger.
type Runner struct {
	log      *logger.Logger
	pipeline Pipeline
	locker   Locker
	lockTTL  time.Duration
	ledger   repos.AutomationRunRepo

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
}

func NewRunner(log *logger.Logger, pipeline Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{
		log:      log.With("component", "AutomationRunner"),
		pipeline: pipeline,
		lockTTL:  10 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.lockTTL <= 0 {
		r.lockTTL = 10 * time.Minute
	}
	return r
}

// Submit starts t in the background and returns its run id immediately.
// ctx only contributes trace data; cancelling it does not stop the run.
func (r *Runner) Submit(ctx context.Context, t Trigger) (uuid.UUID, error) {
	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		return uuid.Nil, ErrDraining
	}
	r.wg.Add(1)
	r.mu.Unlock()

	runID := uuid.New()
	runCtx := ctxutil.Detach(ctx)
	td := ctxutil.GetTraceData(runCtx)
	if td == nil {
		td = &ctxutil.TraceData{}
		runCtx = ctxutil.WithTraceData(runCtx, td)
	}
	td.RunID = runID.String()

	payload := append([]byte(nil), t.Payload...)
	r.record(runCtx, runID, t, payload, td)

	go func() {
		defer r.wg.Done()
		r.execute(runCtx, runID, t)
	}()
	return runID, nil
}

// Drain stops accepting runs and waits for in-flight ones until ctx is done.
func (r *Runner) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("automation: drain: %w", ctx.Err())
	}
}

func (r *Runner) execute(ctx context.Context, runID uuid.UUID, t Trigger) {
	fields := append([]interface{}{"automation", t.Kind, "page_id", t.PageID}, ctxutil.LogFields(ctx)...)
	log := r.log.With(fields...)
	metrics := observability.Current()
	start := time.Now()

	if r.locker != nil {
		key := string(t.Kind) + ":" + t.PageID
		unlock, ok, err := r.locker.TryLock(ctx, key, r.lockTTL)
		switch {
		case err != nil:
			log.Warn("pipeline lock unavailable; running unguarded", "error", err)
		case !ok:
			log.Info("pipeline already running for page; skipped")
			metrics.PipelineStarted(string(t.Kind))
			metrics.PipelineFinished(string(t.Kind), runs.StatusSkipped, time.Since(start))
			r.finish(ctx, runID, runs.StatusSkipped, nil)
			return
		default:
			defer func() {
				if err := unlock(context.Background()); err != nil {
					log.Warn("pipeline lock release failed", "error", err)
				}
			}()
		}
	}

	metrics.PipelineStarted(string(t.Kind))
	r.markRunning(ctx, runID)
	log.Info("automation run started")

	err := r.safeRun(ctx, t)
	status := runs.StatusSucceeded
	if err != nil {
		status = runs.StatusFailed
		log.Error("automation run failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
	} else {
		log.Info("automation run completed", "duration_ms", time.Since(start).Milliseconds())
	}
	metrics.PipelineFinished(string(t.Kind), status, time.Since(start))
	r.finish(ctx, runID, status, err)
}

func (r *Runner) safeRun(ctx context.Context, t Trigger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.pipeline.Run(ctx, t.Kind, t.PageID)
}

func (r *Runner) record(ctx context.Context, runID uuid.UUID, t Trigger, payload []byte, td *ctxutil.TraceData) {
	if r.ledger == nil {
		return
	}
	run := &runs.AutomationRun{
		ID:         runID,
		Automation: string(t.Kind),
		PageID:     t.PageID,
		Status:     runs.StatusQueued,
		RequestID:  td.RequestID,
		TraceID:    td.TraceID,
	}
	if len(payload) > 0 {
		run.Payload = datatypes.JSON(payload)
	}
	if _, err := r.ledger.Create(dbctx.New(ctx), run); err != nil {
		r.log.Warn("ledger: create run failed", "run_id", runID, "error", err)
	}
}

func (r *Runner) markRunning(ctx context.Context, runID uuid.UUID) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.MarkRunning(dbctx.New(ctx), runID, time.Now().UTC()); err != nil {
		r.log.Warn("ledger: mark running failed", "run_id", runID, "error", err)
	}
}

func (r *Runner) finish(ctx context.Context, runID uuid.UUID, status string, runErr error) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.MarkFinished(dbctx.New(ctx), runID, status, runErr, time.Now().UTC()); err != nil {
		r.log.Warn("ledger: mark finished failed", "run_id", runID, "error", err)
	}
}
