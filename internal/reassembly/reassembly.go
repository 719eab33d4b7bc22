// Package reassembly writes translated text back into the source deck.
package reassembly

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/internal/deck/pptx"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// Reassembler produces an output deck from a source deck and its translations.
type Reassembler interface {
	Reassemble(ctx context.Context, source []byte, units []deck.TranslatedUnit) ([]byte, error)
}

// Worker rewrites OOXML decks in place of their original text.
type Worker struct {
	logger *slog.Logger
}

// New creates a reassembly Worker.
func New(logger *slog.Logger) *Worker {
	return &Worker{logger: logger.With("system", "reassembly")}
}

// Reassemble replaces the text at each unit's position with its translated
// text. Positions missing from the source are skipped; the source itself is
// never modified.
func (w *Worker) Reassemble(ctx context.Context, source []byte, units []deck.TranslatedUnit) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Classify(err)
	}

	d, err := pptx.Open(source)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeFileProcessingFailed, err, "source deck could not be opened").
			WithDetail("reason", "malformed_source")
	}

	texts := make(map[deck.Key]string, len(units))
	for _, u := range units {
		texts[u.Key()] = u.TranslatedText
	}

	out, result, err := d.Rewrite(texts)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeFileProcessingFailed, err, "deck could not be rewritten").
			WithDetail("reason", "rewrite_failed")
	}

	for _, k := range result.Unmatched {
		w.logger.Debug("position not found in source", "slide", k.Slide, "position", k.Position.String())
	}

	w.logger.Info(
		"deck reassembled",
		"applied", result.Applied,
		"unchanged", result.Unchanged,
		"unmatched", len(result.Unmatched),
		"bytes", len(out),
	)

	return out, nil
}
