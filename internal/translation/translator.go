// Package translation turns extracted text units into translated units.
// The Batcher owns batching, concurrency, retries and partial-failure
// handling; Translator implementations only translate a single string.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Translator translates one piece of text into targetLanguage.
// Errors should be *apperror.AppError so the batcher can decide on retries.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text, targetLanguage string) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	return f(ctx, text, targetLanguage)
}

// NewTranslator builds the Translator selected by cfg.Provider.
func NewTranslator(cfg *Config, logger *slog.Logger) (Translator, error) {
	switch cfg.Provider {
	case ProviderAgent:
		data, err := os.ReadFile(cfg.Agent.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("read agent config: %w", err)
		}
		return NewAgentTranslator(data, logger)
	case ProviderChat:
		return NewChatTranslator(&cfg.Chat, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
