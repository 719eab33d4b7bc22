package reassembly_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/internal/deck/pptx"
	"github.com/JaimeStill/deck-translate/internal/deck/pptx/pptxtest"
	"github.com/JaimeStill/deck-translate/internal/reassembly"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

func newWorker() *reassembly.Worker {
	return reassembly.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func source() []byte {
	return pptxtest.Build(
		pptxtest.Slide(
			pptxtest.Text("Hello"),
			pptxtest.Table([]string{"Yes", "No"}),
		),
		pptxtest.Slide(pptxtest.Text("Goodbye", "See you")),
	)
}

func TestReassemble(t *testing.T) {
	src := source()
	units, err := pptx.Extract(src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	translations := map[string]string{
		"s1-e1":      "Hola",
		"s1-e2-r1c1": "Sí",
		"s2-e1":      "Adiós\nHasta luego",
	}

	out := make([]deck.TranslatedUnit, len(units))
	for i, u := range units {
		if text, ok := translations[u.ID]; ok {
			out[i] = deck.Translated(u, text)
			continue
		}
		out[i] = deck.Fallback(u)
	}
	missing := deck.NewTextUnit(7, deck.Position{ElementIndex: 1}, "ghost")
	out = append(out, deck.Translated(missing, "fantasma"))

	result, err := newWorker().Reassemble(context.Background(), src, out)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}

	got, err := pptx.Extract(result)
	if err != nil {
		t.Fatalf("Extract output: %v", err)
	}

	want := map[string]string{
		"s1-e1":      "Hola",
		"s1-e2-r1c1": "Sí",
		"s1-e2-r1c2": "No",
		"s2-e1":      "Adiós\nHasta luego",
	}
	if len(got) != len(want) {
		t.Fatalf("units = %+v", got)
	}
	for _, u := range got {
		if u.OriginalText != want[u.ID] {
			t.Errorf("%s = %q, want %q", u.ID, u.OriginalText, want[u.ID])
		}
	}
}

func TestReassemble_AllFallbackKeepsText(t *testing.T) {
	src := source()
	units, err := pptx.Extract(src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	out := make([]deck.TranslatedUnit, len(units))
	for i, u := range units {
		out[i] = deck.Fallback(u)
	}

	result, err := newWorker().Reassemble(context.Background(), src, out)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if !bytes.Equal(result, src) {
		again, _ := pptx.Extract(result)
		for i := range units {
			if again[i].OriginalText != units[i].OriginalText {
				t.Errorf("%s changed: %q", units[i].ID, again[i].OriginalText)
			}
		}
	}
}

func TestReassemble_CorruptSource(t *testing.T) {
	_, err := newWorker().Reassemble(context.Background(), []byte("not a zip"), nil)
	if !apperror.Is(err, apperror.CodeFileProcessingFailed) {
		t.Fatalf("err = %v, want FILE_PROCESSING_FAILED", err)
	}
}

func TestReassemble_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newWorker().Reassemble(ctx, source(), nil)
	if !apperror.Is(err, apperror.CodeOperationCancelled) {
		t.Fatalf("err = %v, want OPERATION_CANCELLED", err)
	}
}
