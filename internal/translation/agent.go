package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	agtconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// AgentTranslator translates through a go-agents agent.
type AgentTranslator struct {
	agent  agent.Agent
	logger *slog.Logger
}

// NewAgentTranslator builds an agent from a JSON configuration merged over
// the go-agents defaults.
func NewAgentTranslator(config json.RawMessage, logger *slog.Logger) (*AgentTranslator, error) {
	cfg := agtconfig.DefaultAgentConfig()

	var userCfg agtconfig.AgentConfig
	if err := json.Unmarshal(config, &userCfg); err != nil {
		return nil, fmt.Errorf("parse agent config: %w", err)
	}

	cfg.Merge(&userCfg)
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = systemPrompt
	}

	a, err := agent.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	return &AgentTranslator{
		agent:  a,
		logger: logger.With("system", "translation.agent"),
	}, nil
}

// Translate sends a single chat prompt and parses the agent's reply.
func (t *AgentTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	resp, err := t.agent.Chat(ctx, buildPrompt(text, targetLanguage))
	if err != nil {
		return "", classifyAgentError(err)
	}

	content := strings.TrimSpace(resp.Content())
	translated, err := extractTranslation(content)
	if err != nil {
		return "", apperror.Wrap(apperror.CodeTranslationFailed, err, "unparseable agent output").
			WithDetail("content", abbreviate(content, 500))
	}
	return translated, nil
}

// classifyAgentError maps provider failures surfaced by go-agents. The
// library reports HTTP failures as formatted errors, so status codes are
// recovered from the message text.
func classifyAgentError(err error) *apperror.AppError {
	classified := apperror.Classify(err)
	if classified.Code != apperror.CodeUnknown {
		return classified
	}

	msg := err.Error()
	for _, marker := range []string{"status 5", "status code: 5", "429", "Too Many Requests", "Service Unavailable", "Bad Gateway"} {
		if strings.Contains(msg, marker) {
			return apperror.Wrap(apperror.CodeExternalService, err, "translation provider unavailable")
		}
	}
	return apperror.Wrap(apperror.CodeTranslationFailed, err, "agent request failed")
}
