package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/deck-translate/internal/jobs"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), "boom"},
		{"app error", apperror.New(apperror.CodeUnsupportedLanguage, "tlh"), "UNSUPPORTED_LANGUAGE: " + apperror.CodeUnsupportedLanguage.UserMessage()},
		{"rate limited", apperror.RateLimited("translate", 12), "(retry after 12s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(tt.err).Error()
			if !strings.Contains(got, tt.want) {
				t.Errorf("describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	report(cmd, &jobs.JobStatus{
		Status:         jobs.StatusCompleted,
		TargetLanguage: "es",
		UnitsTotal:     10,
		UnitsProcessed: 6,
		Translated:     5,
		Fallback:       1,
		Cancelled:      true,
	}, 3, "deck.es.pptx")

	out := buf.String()
	for _, want := range []string{
		"translated 5 of 10 units",
		"(3 slides, es)",
		"1 units kept their original text",
		"cancelled: 4 units were not translated",
		"wrote deck.es.pptx",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
