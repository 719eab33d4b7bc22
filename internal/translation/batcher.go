package translation

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/config"
	wf "github.com/JaimeStill/go-agents-orchestration/pkg/workflows"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/internal/ratelimit"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// Options tunes a Batcher. Zero values fall back to defaults.
type Options struct {
	BatchSize      int
	MaxConcurrency int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	UnitTimeout    time.Duration
	Languages      []string
}

// Options returns the batcher options described by c.
func (c *Config) Options() Options {
	return Options{
		BatchSize:      c.BatchSize,
		MaxConcurrency: c.MaxConcurrency,
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoffDuration(),
		MaxBackoff:     c.MaxBackoffDuration(),
		UnitTimeout:    c.UnitTimeoutDuration(),
		Languages:      c.Languages,
	}
}

func (o *Options) defaults() {
	if o.BatchSize < 1 {
		o.BatchSize = 50
	}
	if o.MaxConcurrency < 1 {
		o.MaxConcurrency = 4
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
	if o.UnitTimeout <= 0 {
		o.UnitTimeout = 60 * time.Second
	}
}

// Request describes one translation run.
type Request struct {
	// Subject is the rate-limit subject, usually the requesting user.
	Subject        string
	Units          []deck.TextUnit
	TargetLanguage string
	// BatchSize overrides the configured batch size when positive.
	BatchSize int
	// Progress is called after each batch completes with the number of
	// units processed so far. Calls are serialized and monotonic.
	Progress func(processed, total int)
}

// Batcher translates text units in bounded-concurrency batches.
// Units that cannot be translated fall back to their original text, so
// the result always has one entry per input unit in input order.
type Batcher struct {
	translator Translator
	limiter    ratelimit.Checker
	opts       Options
	languages  map[string]struct{}
	logger     *slog.Logger
}

// NewBatcher creates a Batcher. A nil limiter disables rate limiting.
func NewBatcher(t Translator, limiter ratelimit.Checker, opts Options, logger *slog.Logger) *Batcher {
	opts.defaults()

	var langs map[string]struct{}
	if len(opts.Languages) > 0 {
		langs = make(map[string]struct{}, len(opts.Languages))
		for _, l := range opts.Languages {
			langs[strings.ToLower(l)] = struct{}{}
		}
	}

	return &Batcher{
		translator: t,
		limiter:    limiter,
		opts:       opts,
		languages:  langs,
		logger:     logger.With("system", "translation"),
	}
}

// ValidateLanguage normalizes lang and checks it against the allow-list.
func (b *Batcher) ValidateLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "", apperror.New(apperror.CodeValidation, "target language required").
			WithUserMessage("A target language is required.")
	}
	if b.languages != nil {
		if _, ok := b.languages[lang]; !ok {
			return "", apperror.Newf(apperror.CodeUnsupportedLanguage, "unsupported target language %q", lang).
				WithDetail("targetLanguage", lang)
		}
	}
	return lang, nil
}

type span struct {
	start int
	units []deck.TextUnit
}

// Translate runs req and returns one TranslatedUnit per input unit.
// Rate-limit denial or an invalid language fails the whole request before
// any provider call. When ctx is cancelled, batches not yet dispatched are
// returned as pending while in-flight batches finish.
func (b *Batcher) Translate(ctx context.Context, req Request) ([]deck.TranslatedUnit, error) {
	lang, err := b.ValidateLanguage(req.TargetLanguage)
	if err != nil {
		return nil, err
	}

	if b.limiter != nil {
		if err := b.limiter.Enforce(ctx, req.Subject, ratelimit.ActionTranslate); err != nil {
			return nil, err
		}
	}

	total := len(req.Units)
	out := make([]deck.TranslatedUnit, total)
	if total == 0 {
		return out, nil
	}

	size := b.opts.BatchSize
	if req.BatchSize > 0 {
		size = req.BatchSize
	}

	var batches []span
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		batches = append(batches, span{start: start, units: req.Units[start:end]})
	}

	b.logger.Info(
		"translation started",
		"units", total,
		"batches", len(batches),
		"language", lang,
	)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
	)

	sem := semaphore.NewWeighted(int64(b.opts.MaxConcurrency))
	work := context.WithoutCancel(ctx)
	dispatched := 0

	for _, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		dispatched++

		wg.Go(func() {
			defer sem.Release(1)

			results := b.runBatch(work, batch.units, lang)
			copy(out[batch.start:], results)

			mu.Lock()
			defer mu.Unlock()
			processed += len(results)
			if req.Progress != nil {
				req.Progress(processed, total)
			}
		})
	}

	wg.Wait()

	for _, batch := range batches[dispatched:] {
		for i, u := range batch.units {
			out[batch.start+i] = deck.Pending(u)
		}
	}

	summary := deck.Summarize(out)
	b.logger.Info(
		"translation finished",
		"translated", summary.Translated,
		"fallback", summary.Fallback,
		"pending", summary.Pending,
	)

	return out, nil
}

type unitResult struct {
	index int
	text  string
	err   error
}

type indexedUnit struct {
	index int
	unit  deck.TextUnit
}

// runBatch translates one batch. A batch where every unit failed with a
// retryable error is retried with exponential backoff up to MaxAttempts;
// any unit still failing falls back to its original text.
func (b *Batcher) runBatch(ctx context.Context, units []deck.TextUnit, lang string) []deck.TranslatedUnit {
	results := make([]deck.TranslatedUnit, len(units))

	for attempt := 0; ; attempt++ {
		res := b.translateUnits(ctx, units, lang)

		failed := 0
		retryable := true
		var last error
		for _, r := range res {
			if r.err != nil {
				failed++
				last = r.err
				retryable = retryable && apperror.IsRetryable(r.err)
			}
		}

		if failed < len(units) || !retryable || attempt+1 >= b.opts.MaxAttempts {
			for _, r := range res {
				if r.err != nil {
					results[r.index] = deck.Fallback(units[r.index])
					continue
				}
				results[r.index] = deck.Translated(units[r.index], r.text)
			}
			if failed > 0 {
				b.logger.Warn(
					"units fell back to original text",
					"failed", failed,
					"batch_size", len(units),
					"attempts", attempt+1,
					"code", apperror.CodeOf(last),
					"error", last,
				)
			}
			return results
		}

		delay := backoff(attempt, b.opts.InitialBackoff, b.opts.MaxBackoff)
		b.logger.Warn(
			"batch failed, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"code", apperror.CodeOf(last),
		)
		sleep(ctx, delay)
	}
}

func (b *Batcher) translateUnits(ctx context.Context, units []deck.TextUnit, lang string) []unitResult {
	items := make([]indexedUnit, len(units))
	for i, u := range units {
		items[i] = indexedUnit{index: i, unit: u}
	}

	processor := func(ctx context.Context, item indexedUnit) (unitResult, error) {
		text, err := b.translateUnit(ctx, item.unit, lang)
		return unitResult{index: item.index, text: text, err: err}, nil
	}

	cfg := config.DefaultParallelConfig()
	cfg.Observer = "noop"

	out := make([]unitResult, len(units))

	result, err := wf.ProcessParallel(ctx, cfg, items, processor, nil)
	if err != nil {
		classified := apperror.Classify(err)
		for i := range out {
			out[i] = unitResult{index: i, err: classified}
		}
		return out
	}

	for i := range out {
		out[i] = unitResult{index: i, err: apperror.New(apperror.CodeTranslationFailed, "unit not processed")}
	}
	for _, r := range result.Results {
		out[r.index] = r
	}
	return out
}

func (b *Batcher) translateUnit(ctx context.Context, u deck.TextUnit, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.UnitTimeout)
	defer cancel()

	text, err := b.translator.Translate(ctx, u.OriginalText, lang)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperror.Classify(ctx.Err()).WithDetail("unitId", u.ID)
		}
		return "", apperror.Classify(err).WithDetail("unitId", u.ID)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperror.New(apperror.CodeTranslationFailed, "empty translation").
			WithDetail("unitId", u.ID)
	}
	return text, nil
}

// Languages returns the configured allow-list, or nil when any language is accepted.
func (b *Batcher) Languages() []string {
	if b.languages == nil {
		return nil
	}
	langs := make([]string, 0, len(b.languages))
	for l := range b.languages {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	return langs
}
