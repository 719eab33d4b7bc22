package translation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// ChatTranslator calls an OpenAI-compatible chat completions endpoint.
type ChatTranslator struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	http        *resty.Client
	logger      *slog.Logger
}

// NewChatTranslator creates a ChatTranslator from cfg.
func NewChatTranslator(cfg *ChatConfig, logger *slog.Logger) *ChatTranslator {
	return &ChatTranslator{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		http:        resty.New().SetTimeout(cfg.TimeoutDuration()),
		logger:      logger.With("system", "translation.chat"),
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var translationSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "translation",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"translation": map[string]any{"type": "string"},
			},
			"required":             []string{"translation"},
			"additionalProperties": false,
		},
	},
}

// Translate sends one chat completion request. Providers that reject the
// json_schema response format are retried once with json_object.
func (c *ChatTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	url := c.baseURL + "/chat/completions"
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(text, targetLanguage)},
		},
		"temperature":     c.temperature,
		"response_format": translationSchema,
	}

	var resp chatResponse
	rr, err := c.post(ctx, url, body, &resp)
	if err != nil {
		return "", transportError(err)
	}

	if rr.StatusCode() == http.StatusBadRequest {
		c.logger.Debug("json_schema rejected, falling back to json_object", "model", c.model)
		body["response_format"] = map[string]string{"type": "json_object"}
		resp = chatResponse{}
		rr, err = c.post(ctx, url, body, &resp)
		if err != nil {
			return "", transportError(err)
		}
	}

	if rr.IsError() {
		return "", statusError(rr)
	}

	if len(resp.Choices) == 0 {
		return "", apperror.New(apperror.CodeTranslationFailed, "no choices returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	translated, err := extractTranslation(content)
	if err != nil {
		return "", apperror.Wrap(apperror.CodeTranslationFailed, err, "unparseable model output").
			WithDetail("content", abbreviate(content, 500))
	}
	return translated, nil
}

func (c *ChatTranslator) post(ctx context.Context, url string, body map[string]any, result *chatResponse) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result)
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}
	return req.Post(url)
}

func transportError(err error) *apperror.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(apperror.CodeTimeout, err, "translation request timed out")
	}
	return apperror.Classify(err)
}

func statusError(rr *resty.Response) *apperror.AppError {
	code := apperror.CodeTranslationFailed
	if rr.StatusCode() >= 500 || rr.StatusCode() == http.StatusTooManyRequests {
		code = apperror.CodeExternalService
	}
	return apperror.Newf(code, "translation provider returned %s", rr.Status()).
		WithDetail("status", rr.StatusCode()).
		WithDetail("body", abbreviate(rr.String(), 500))
}

var translationRE = regexp.MustCompile(`(?s)"translation"\s*:\s*"(.*?)"`)

// extractTranslation pulls the translation out of model output that is
// expected to be {"translation": "..."} but is often wrapped in code
// fences, surrounded by prose, or plain text.
func extractTranslation(content string) (string, error) {
	s := strings.TrimSpace(content)

	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := strings.TrimPrefix(s[idx+3:], "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = strings.TrimSpace(rest[:j])
		}
	}

	if t, ok := decodeTranslation(s); ok {
		return t, nil
	}

	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			if t, ok := decodeTranslation(s[i : j+1]); ok {
				return t, nil
			}
		}
		return "", errors.New("no translation field in model output")
	}

	lower := strings.ToLower(s)
	for _, label := range []string{"translation:", "translated:", "result:", "output:"} {
		if pos := strings.Index(lower, label); pos >= 0 && pos < 80 {
			if cand := strings.TrimSpace(s[pos+len(label):]); cand != "" {
				return cand, nil
			}
		}
	}

	if s == "" {
		return "", errors.New("empty model output")
	}
	return s, nil
}

func decodeTranslation(s string) (string, bool) {
	var obj struct {
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil && obj.Translation != "" {
		return obj.Translation, true
	}
	if m := translationRE.FindStringSubmatch(s); len(m) == 2 {
		t := strings.ReplaceAll(m[1], `\n`, "\n")
		return strings.ReplaceAll(t, `\"`, `"`), true
	}
	return "", false
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
