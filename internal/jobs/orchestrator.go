package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/internal/events"
	"github.com/JaimeStill/deck-translate/internal/extraction"
	"github.com/JaimeStill/deck-translate/internal/files"
	"github.com/JaimeStill/deck-translate/internal/ratelimit"
	"github.com/JaimeStill/deck-translate/internal/reassembly"
	"github.com/JaimeStill/deck-translate/internal/translation"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
	"github.com/JaimeStill/deck-translate/pkg/storage"
)

// System defines the job operations exposed to handlers and the CLI.
type System interface {
	StartTranslation(ctx context.Context, fileID uuid.UUID, userID, targetLanguage string) (uuid.UUID, error)
	GetJobStatus(ctx context.Context, id uuid.UUID) (*JobStatus, error)
	GetOutput(ctx context.Context, id uuid.UUID) ([]byte, string, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	Activity(ctx context.Context, id uuid.UUID) ([]Activity, error)
	List(ctx context.Context, filter Filter) (*Page, error)
}

// Deps are the collaborators an Orchestrator drives.
// Limiter and Publisher are optional.
type Deps struct {
	Store       Store
	Files       files.System
	Blobs       storage.System
	Extractor   extraction.Extractor
	Batcher     *translation.Batcher
	Reassembler reassembly.Reassembler
	Limiter     ratelimit.Checker
	Publisher   events.Publisher
}

type run struct {
	cancel    context.CancelFunc
	requested atomic.Bool
	done      chan struct{}
}

// Orchestrator runs each job through extraction, translation, and
// reassembly on its own goroutine and is the sole writer of job state.
type Orchestrator struct {
	cfg  Config
	deps Deps
	sem  *semaphore.Weighted

	mu   sync.Mutex
	base context.Context
	runs map[uuid.UUID]*run
	wg   sync.WaitGroup

	logger *slog.Logger
}

// New creates an Orchestrator. Runs use context.Background until Start
// attaches the lifecycle context.
func New(cfg *Config, deps Deps, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:    *cfg,
		deps:   deps,
		sem:    semaphore.NewWeighted(int64(max(cfg.MaxConcurrent, 1))),
		base:   context.Background(),
		runs:   make(map[uuid.UUID]*run),
		logger: logger.With("system", "jobs"),
	}
}

// Start binds runs to the lifecycle context, fails jobs interrupted by a
// previous shutdown, and waits for active runs on shutdown.
func (o *Orchestrator) Start(lc *lifecycle.Coordinator) error {
	o.mu.Lock()
	o.base = lc.Context()
	o.mu.Unlock()

	lc.OnStartup(func() {
		o.recoverInterrupted(lc.Context())
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		o.logger.Info("waiting for active jobs")
		o.wg.Wait()
		o.logger.Info("jobs stopped")
	})

	return nil
}

func (o *Orchestrator) StartTranslation(ctx context.Context, fileID uuid.UUID, userID, targetLanguage string) (uuid.UUID, error) {
	lang, err := o.deps.Batcher.ValidateLanguage(targetLanguage)
	if err != nil {
		return uuid.Nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return uuid.Nil, apperror.New(apperror.CodeValidation, "user id required")
	}

	f, err := o.deps.Files.Find(ctx, fileID)
	if err != nil {
		return uuid.Nil, err
	}

	j, err := o.deps.Store.Create(ctx, &Job{
		ID:             uuid.New(),
		FileID:         f.ID,
		UserID:         userID,
		TargetLanguage: lang,
		Status:         StatusUploaded,
		SlideCount:     f.SlideCount,
	})
	if err != nil {
		return uuid.Nil, mapError(err, fileID)
	}

	o.logger.Info("job created", "job_id", j.ID, "file_id", f.ID, "user_id", userID, "language", lang)
	o.record(ctx, j.ID, LevelInfo, "job.created", "", fmt.Sprintf("translation to %s requested", lang), map[string]any{
		"fileId":     f.ID.String(),
		"slideCount": f.SlideCount,
	})
	o.publish(ctx, j, events.JobCreated, nil)

	o.launch(j, f)
	return j.ID, nil
}

func (o *Orchestrator) GetJobStatus(ctx context.Context, id uuid.UUID) (*JobStatus, error) {
	j, err := o.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return j.View(), nil
}

func (o *Orchestrator) GetOutput(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	j, err := o.Find(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if j.Status != StatusCompleted || j.OutputKey == "" {
		return nil, "", apperror.Newf(apperror.CodeOutputNotReady, "job is %s", j.Status).
			WithDetail("jobId", id.String()).
			WithDetail("status", string(j.Status))
	}

	data, err := o.deps.Blobs.Retrieve(ctx, j.OutputKey)
	if err != nil {
		return nil, "", apperror.Wrap(apperror.CodeInternal, err, "retrieve output").
			WithDetail("outputKey", j.OutputKey)
	}
	return data, path.Base(j.OutputKey), nil
}

func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) error {
	j, err := o.Find(ctx, id)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return apperror.Newf(apperror.CodeInvalidStateTransition, "job already %s", j.Status).
			WithDetail("jobId", id.String()).
			WithDetail("status", string(j.Status)).
			WithUserMessage("This job has already finished.")
	}

	o.mu.Lock()
	r, ok := o.runs[id]
	o.mu.Unlock()
	if !ok {
		return apperror.New(apperror.CodeConflict, "job is not running on this instance").
			WithDetail("jobId", id.String())
	}

	if r.requested.Swap(true) {
		return nil
	}

	o.logger.Info("job cancel requested", "job_id", id, "status", j.Status)
	o.record(ctx, id, LevelInfo, "job.cancel_requested", "", "cancellation requested", map[string]any{
		"status": string(j.Status),
	})
	o.publish(ctx, j, events.JobCancelled, nil)
	r.cancel()
	return nil
}

func (o *Orchestrator) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	j, err := o.deps.Store.Find(ctx, id)
	if err != nil {
		return nil, mapError(err, id)
	}
	return j, nil
}

func (o *Orchestrator) Activity(ctx context.Context, id uuid.UUID) ([]Activity, error) {
	if _, err := o.Find(ctx, id); err != nil {
		return nil, err
	}
	acts, err := o.deps.Store.Activity(ctx, id)
	if err != nil {
		return nil, mapError(err, id)
	}
	return acts, nil
}

func (o *Orchestrator) List(ctx context.Context, filter Filter) (*Page, error) {
	page, err := o.deps.Store.List(ctx, filter)
	if err != nil {
		return nil, mapError(err, uuid.Nil)
	}
	return page, nil
}

// Wait blocks until the job's run finishes or ctx ends, then returns the
// job's persisted state.
func (o *Orchestrator) Wait(ctx context.Context, id uuid.UUID) (*Job, error) {
	o.mu.Lock()
	r, ok := o.runs[id]
	o.mu.Unlock()

	if ok {
		select {
		case <-r.done:
		case <-ctx.Done():
			return nil, apperror.Classify(ctx.Err())
		}
	}
	return o.Find(ctx, id)
}

func (o *Orchestrator) launch(j *Job, f *files.File) {
	o.mu.Lock()
	ctx, cancel := context.WithCancel(o.base)
	r := &run{cancel: cancel, done: make(chan struct{})}
	o.runs[j.ID] = r
	o.mu.Unlock()

	o.wg.Go(func() {
		defer func() {
			o.mu.Lock()
			delete(o.runs, j.ID)
			o.mu.Unlock()
			cancel()
			close(r.done)
		}()
		o.execute(ctx, r, j, f)
	})
}

func (o *Orchestrator) execute(ctx context.Context, r *run, j *Job, f *files.File) {
	wctx := context.WithoutCancel(ctx)
	stage := StatusUploaded

	defer func() {
		if rec := recover(); rec != nil {
			o.fail(wctx, j, stage, apperror.Newf(apperror.CodeInternal, "panic: %v", rec), r.requested.Load())
		}
	}()

	next, err := o.transition(wctx, j, StatusUploaded, StatusExtracting, Patch{})
	if err != nil {
		o.fail(wctx, j, stage, err, false)
		return
	}
	j, stage = next, StatusExtracting

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.fail(wctx, j, stage, apperror.Wrap(apperror.CodeOperationCancelled, err, "cancelled while queued"), true)
		return
	}
	defer o.sem.Release(1)

	units, source, err := o.extract(ctx, j, f)
	if err != nil {
		o.fail(wctx, j, stage, err, r.requested.Load() || ctx.Err() != nil)
		return
	}

	if next, err = o.transition(wctx, j, StatusExtracting, StatusExtracted, Patch{UnitsTotal: ptr(len(units))}); err != nil {
		o.fail(wctx, j, stage, err, false)
		return
	}
	j, stage = next, StatusExtracted

	if next, err = o.transition(wctx, j, StatusExtracted, StatusTranslating, Patch{UnitsProcessed: ptr(0)}); err != nil {
		o.fail(wctx, j, stage, err, false)
		return
	}
	j, stage = next, StatusTranslating

	out, err := o.deps.Batcher.Translate(ctx, translation.Request{
		Subject:        j.UserID,
		Units:          units,
		TargetLanguage: j.TargetLanguage,
		Progress: func(processed, total int) {
			o.progress(wctx, j, processed, total)
		},
	})
	if err != nil {
		o.fail(wctx, j, stage, err, r.requested.Load())
		return
	}

	summary := deck.Summarize(out)
	cancelled := r.requested.Load() || summary.Pending > 0

	if !cancelled && summary.Translated == 0 && summary.Fallback > 0 {
		o.fail(wctx, j, stage, apperror.Newf(apperror.CodeTranslationUnavailable,
			"no unit translated: %d fell back after retries", summary.Fallback).
			WithDetail("fallback", summary.Fallback), false)
		return
	}

	if source == nil {
		if source, err = o.deps.Files.Data(wctx, f); err != nil {
			o.fail(wctx, j, stage, err, cancelled)
			return
		}
	}

	output, err := o.deps.Reassembler.Reassemble(wctx, source, out)
	if err != nil {
		o.fail(wctx, j, stage, err, cancelled)
		return
	}

	key := outputKey(j, f)
	if err := o.deps.Blobs.Store(wctx, key, output); err != nil {
		o.fail(wctx, j, stage, apperror.Wrap(apperror.CodeInternal, err, "store output").WithDetail("outputKey", key), cancelled)
		return
	}

	done, err := o.transition(wctx, j, StatusTranslating, StatusCompleted, Patch{
		UnitsProcessed: ptr(summary.Translated + summary.Fallback),
		Translated:     ptr(summary.Translated),
		Fallback:       ptr(summary.Fallback),
		Cancelled:      ptr(cancelled),
		OutputKey:      &key,
	})
	if err != nil {
		o.fail(wctx, j, stage, err, cancelled)
		return
	}

	o.logger.Info("job completed",
		"job_id", done.ID,
		"translated", summary.Translated,
		"fallback", summary.Fallback,
		"pending", summary.Pending,
		"cancelled", cancelled,
		"output_key", key,
	)
	o.record(wctx, done.ID, LevelInfo, "job.completed", "", "translated deck available", map[string]any{
		"translated": summary.Translated,
		"fallback":   summary.Fallback,
		"pending":    summary.Pending,
		"cancelled":  cancelled,
	})
	o.publish(wctx, done, events.JobCompleted, map[string]any{
		"translated": summary.Translated,
		"fallback":   summary.Fallback,
		"pending":    summary.Pending,
	})
}

// extract returns the units for f, reusing units cached for the same
// content. Source bytes are returned when they had to be loaded.
func (o *Orchestrator) extract(ctx context.Context, j *Job, f *files.File) ([]deck.TextUnit, []byte, error) {
	wctx := context.WithoutCancel(ctx)

	units, ok, err := o.deps.Store.CachedUnits(ctx, f.ContentHash)
	switch {
	case err != nil:
		o.logger.Warn("extracted unit cache lookup failed", "job_id", j.ID, "error", err)
	case ok:
		o.record(wctx, j.ID, LevelInfo, "extraction.cached", "", "reused units extracted from identical content", map[string]any{
			"units": len(units),
		})
		return units, nil, nil
	}

	if o.deps.Limiter != nil {
		if err := o.deps.Limiter.Enforce(ctx, j.UserID, ratelimit.ActionExtract); err != nil {
			return nil, nil, err
		}
	}

	source, err := o.deps.Files.Data(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	for attempt := 0; ; attempt++ {
		units, err = o.deps.Extractor.Extract(ctx, source, 0)
		if err == nil {
			break
		}
		if attempt >= o.cfg.ExtractionRetries || !apperror.IsRetryable(err) || ctx.Err() != nil {
			return nil, nil, err
		}

		code := apperror.CodeOf(err)
		o.logger.Warn("extraction failed, retrying", "job_id", j.ID, "code", code, "error", err)
		o.record(wctx, j.ID, LevelWarn, "extraction.retry", string(code), "retrying extraction", nil)
	}

	if err := o.deps.Store.CacheUnits(wctx, f.ContentHash, units); err != nil {
		o.logger.Warn("caching extracted units failed", "job_id", j.ID, "error", err)
	}

	o.record(wctx, j.ID, LevelInfo, "extraction.completed", "", fmt.Sprintf("extracted %d units", len(units)), nil)
	return units, source, nil
}

func (o *Orchestrator) transition(ctx context.Context, j *Job, from, to Status, patch Patch) (*Job, error) {
	if err := ValidateTransition(from, to); err != nil {
		return nil, err
	}

	next, err := o.deps.Store.Transition(ctx, j.ID, from, to, patch)
	if err != nil {
		return nil, mapError(err, j.ID)
	}

	o.logger.Debug("job transitioned", "job_id", j.ID, "from", from, "to", to)
	o.record(ctx, j.ID, LevelInfo, "status."+string(to), "", fmt.Sprintf("%s -> %s", from, to), nil)
	o.publish(ctx, next, events.JobStatusChanged, map[string]any{"from": string(from)})
	return next, nil
}

// fail records err against the job and, when the workflow allows it,
// moves the job from stage to failed. Only the user message is persisted
// on the job; the activity record keeps the full diagnostics.
func (o *Orchestrator) fail(ctx context.Context, j *Job, stage Status, err error, cancelled bool) {
	appErr := apperror.Classify(err)

	o.logger.Error("job failed",
		"job_id", j.ID,
		"stage", stage,
		"code", appErr.Code,
		"error", appErr.Error(),
	)

	details := maps.Clone(appErr.Details)
	if details == nil {
		details = make(map[string]any)
	}
	details["stage"] = string(stage)
	details["internal"] = appErr.Error()
	o.record(ctx, j.ID, LevelError, "job.failed", string(appErr.Code), appErr.Message, details)

	if !CanTransition(stage, StatusFailed) {
		return
	}

	patch := Patch{
		ErrorCode:    ptr(string(appErr.Code)),
		ErrorMessage: ptr(appErr.UserMessage),
		Cancelled:    ptr(cancelled),
	}
	if n, ok := appErr.RetryAfterSeconds(); ok {
		patch.RetryAfterSeconds = &n
	}

	failed, err := o.deps.Store.Transition(ctx, j.ID, stage, StatusFailed, patch)
	if err != nil {
		o.logger.Error("recording job failure failed", "job_id", j.ID, "error", err)
		return
	}
	o.publish(ctx, failed, events.JobFailed, nil)
}

func (o *Orchestrator) progress(ctx context.Context, j *Job, processed, total int) {
	if err := o.deps.Store.Progress(ctx, j.ID, processed, total); err != nil {
		o.logger.Warn("progress update failed", "job_id", j.ID, "error", err)
		return
	}
	o.publish(ctx, j, events.JobProgress, map[string]any{
		"processed": processed,
		"total":     total,
	})
}

// recoverInterrupted fails jobs a previous process left mid-run.
func (o *Orchestrator) recoverInterrupted(ctx context.Context) {
	running, err := o.deps.Store.Running(ctx)
	if err != nil {
		o.logger.Error("listing interrupted jobs failed", "error", err)
		return
	}

	for i := range running {
		j := &running[i]

		o.mu.Lock()
		_, active := o.runs[j.ID]
		o.mu.Unlock()
		if active {
			continue
		}

		o.fail(ctx, j, j.Status, apperror.New(apperror.CodeOperationCancelled, "interrupted by service restart").
			WithUserMessage("The job was interrupted. Please start it again."), false)
	}
}

func (o *Orchestrator) record(ctx context.Context, id uuid.UUID, level, event, code, message string, details map[string]any) {
	a := Activity{
		JobID:   id,
		Level:   level,
		Event:   event,
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			o.logger.Warn("encoding activity details failed", "job_id", id, "error", err)
		} else {
			a.Details = raw
		}
	}

	if err := o.deps.Store.AddActivity(ctx, a); err != nil {
		o.logger.Warn("recording activity failed", "job_id", id, "event", event, "error", err)
	}
}

func (o *Orchestrator) publish(ctx context.Context, j *Job, typ events.Type, data map[string]any) {
	if o.deps.Publisher == nil {
		return
	}

	e := events.New(typ, j.ID, j.FileID, j.UserID)
	e.Status = string(j.Status)
	e.Code = j.ErrorCode
	e.Data = data

	if err := o.deps.Publisher.Publish(ctx, e); err != nil {
		o.logger.Warn("publishing event failed", "job_id", j.ID, "type", typ, "error", err)
	}
}

func outputKey(j *Job, f *files.File) string {
	name := files.SanitizeFilename(f.Filename)
	stem := strings.TrimSuffix(name, path.Ext(name))
	return fmt.Sprintf("jobs/%s/%s.%s.pptx", j.ID, stem, j.TargetLanguage)
}

func mapError(err error, id uuid.UUID) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrNotFound):
		return apperror.Wrap(apperror.CodeJobNotFound, err, "job not found").
			WithDetail("jobId", id.String())
	case errors.Is(err, ErrStatusConflict):
		return apperror.Wrap(apperror.CodeInvalidStateTransition, err, "job status changed concurrently").
			WithDetail("jobId", id.String())
	case errors.Is(err, ErrDuplicate):
		return apperror.Wrap(apperror.CodeConflict, err, "job already exists")
	}

	classified := apperror.Classify(err)
	if classified.Code == apperror.CodeUnknown {
		return apperror.Wrap(apperror.CodeDatabase, err, "job store failed")
	}
	return classified
}
