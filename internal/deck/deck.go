// Package deck defines the text units that flow through the translation pipeline.
package deck

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Position locates a text-bearing element on a slide. Plain text shapes
// carry only ElementIndex; table cells also carry 1-based Row and Col.
type Position struct {
	ElementIndex int `json:"elementIndex"`
	Row          int `json:"row,omitempty"`
	Col          int `json:"col,omitempty"`
}

// IsCell reports whether the position addresses a table cell.
func (p Position) IsCell() bool {
	return p.Row > 0 || p.Col > 0
}

func (p Position) String() string {
	if p.IsCell() {
		return fmt.Sprintf("e%d-r%dc%d", p.ElementIndex, p.Row, p.Col)
	}
	return fmt.Sprintf("e%d", p.ElementIndex)
}

// Key identifies a unit within a file.
type Key struct {
	Slide    int
	Position Position
}

// UnitID returns the stable identifier for a unit at slide and pos.
func UnitID(slide int, pos Position) string {
	return fmt.Sprintf("s%d-%s", slide, pos)
}

// TextUnit is a single piece of translatable text extracted from a deck.
type TextUnit struct {
	ID           string   `json:"id"`
	SlideNumber  int      `json:"slideNumber"`
	Position     Position `json:"position"`
	OriginalText string   `json:"originalText"`
}

// NewTextUnit creates a unit with its stable identifier.
func NewTextUnit(slide int, pos Position, text string) TextUnit {
	return TextUnit{
		ID:           UnitID(slide, pos),
		SlideNumber:  slide,
		Position:     pos,
		OriginalText: text,
	}
}

// Key returns the unit's location key.
func (u TextUnit) Key() Key {
	return Key{Slide: u.SlideNumber, Position: u.Position}
}

// Blank reports whether the unit carries only whitespace.
func (u TextUnit) Blank() bool {
	return strings.TrimSpace(u.OriginalText) == ""
}

// Compare orders units by slide, then element, then row, then column.
func Compare(a, b TextUnit) int {
	return cmp.Or(
		cmp.Compare(a.SlideNumber, b.SlideNumber),
		cmp.Compare(a.Position.ElementIndex, b.Position.ElementIndex),
		cmp.Compare(a.Position.Row, b.Position.Row),
		cmp.Compare(a.Position.Col, b.Position.Col),
	)
}

// Sort orders units in reading order.
func Sort(units []TextUnit) {
	slices.SortStableFunc(units, Compare)
}

// Status records how a unit's translated text was produced.
type Status string

const (
	StatusTranslated Status = "translated"
	StatusFallback   Status = "fallback"
	StatusPending    Status = "pending"
)

// TranslatedUnit is a TextUnit paired with its output text.
type TranslatedUnit struct {
	TextUnit
	TranslatedText string `json:"translatedText"`
	Status         Status `json:"status"`
}

// Translated pairs u with a successful translation.
func Translated(u TextUnit, text string) TranslatedUnit {
	return TranslatedUnit{TextUnit: u, TranslatedText: text, Status: StatusTranslated}
}

// Fallback keeps u's original text after a failed translation.
func Fallback(u TextUnit) TranslatedUnit {
	return TranslatedUnit{TextUnit: u, TranslatedText: u.OriginalText, Status: StatusFallback}
}

// Pending keeps u's original text for a unit that was never attempted.
func Pending(u TextUnit) TranslatedUnit {
	return TranslatedUnit{TextUnit: u, TranslatedText: u.OriginalText, Status: StatusPending}
}

// Summary counts units by status.
type Summary struct {
	Translated int `json:"translated"`
	Fallback   int `json:"fallback"`
	Pending    int `json:"pending"`
}

// Total returns the number of summarized units.
func (s Summary) Total() int {
	return s.Translated + s.Fallback + s.Pending
}

// Summarize counts units by status.
func Summarize(units []TranslatedUnit) Summary {
	var s Summary
	for _, u := range units {
		switch u.Status {
		case StatusTranslated:
			s.Translated++
		case StatusFallback:
			s.Fallback++
		default:
			s.Pending++
		}
	}
	return s
}
