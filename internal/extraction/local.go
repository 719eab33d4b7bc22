package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/internal/deck/pptx"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// Local parses decks in-process.
type Local struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewLocal creates an in-process extractor.
func NewLocal(timeout time.Duration, logger *slog.Logger) *Local {
	return &Local{
		timeout: timeout,
		logger:  logger.With("system", "extraction"),
	}
}

type localResult struct {
	units []deck.TextUnit
	err   error
}

func (l *Local) Extract(ctx context.Context, source []byte, timeout time.Duration) ([]deck.TextUnit, error) {
	if timeout <= 0 {
		timeout = l.timeout
	}
	if len(source) == 0 {
		return nil, processingFailed("empty_source", "source is empty")
	}

	done := make(chan localResult, 1)
	go func() {
		units, err := pptx.Extract(source)
		done <- localResult{units, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, processingFailed("malformed_source", "deck could not be parsed").
				WithDetail("error", r.err.Error())
		}
		l.logger.Debug("extraction complete", "units", len(r.units))
		return r.units, nil
	case <-timer.C:
		return nil, processingTimeout(timeout)
	case <-ctx.Done():
		return nil, apperror.Classify(ctx.Err())
	}
}
