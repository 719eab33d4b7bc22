// Package extraction turns source deck bytes into ordered text units.
// The process extractor delegates parsing to an external tool and owns the
// timeout that bounds it; the local extractor parses in-process.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// Extractor produces the text units of a source deck. A timeout of zero or
// less uses the extractor's configured default.
type Extractor interface {
	Extract(ctx context.Context, source []byte, timeout time.Duration) ([]deck.TextUnit, error)
}

// New returns the extractor selected by cfg.Mode.
func New(cfg *Config, logger *slog.Logger) (Extractor, error) {
	switch cfg.Mode {
	case ModeProcess:
		return NewProcess(cfg, logger), nil
	case ModeLocal:
		return NewLocal(cfg.TimeoutDuration(), logger), nil
	default:
		return nil, fmt.Errorf("unknown extraction mode: %s", cfg.Mode)
	}
}

func processingFailed(reason, message string) *apperror.AppError {
	return apperror.New(apperror.CodeFileProcessingFailed, message).
		WithDetail("reason", reason)
}

func processingTimeout(timeout time.Duration) *apperror.AppError {
	return apperror.Newf(apperror.CodeFileProcessingTimeout, "extraction exceeded %s", timeout).
		WithDetail("timeoutMs", timeout.Milliseconds())
}
