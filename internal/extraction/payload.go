package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JaimeStill/deck-translate/internal/deck"
)

// Payload is the single JSON document an extraction tool writes to stdout.
type Payload struct {
	Units []PayloadUnit `json:"units"`
}

// PayloadUnit is one extracted unit on the wire.
type PayloadUnit struct {
	SlideNumber int             `json:"slideNumber"`
	Position    PayloadPosition `json:"position"`
	Text        string          `json:"text"`
}

// PayloadPosition is either {elementIndex} or {row, col}; tools that number
// table frames send all three.
type PayloadPosition struct {
	ElementIndex *int `json:"elementIndex,omitempty"`
	Row          *int `json:"row,omitempty"`
	Col          *int `json:"col,omitempty"`
}

// NewPayload converts units into their wire form.
func NewPayload(units []deck.TextUnit) Payload {
	p := Payload{Units: make([]PayloadUnit, 0, len(units))}
	for _, u := range units {
		pos := PayloadPosition{ElementIndex: ptr(u.Position.ElementIndex)}
		if u.Position.IsCell() {
			pos.Row = ptr(u.Position.Row)
			pos.Col = ptr(u.Position.Col)
		}
		p.Units = append(p.Units, PayloadUnit{
			SlideNumber: u.SlideNumber,
			Position:    pos,
			Text:        u.OriginalText,
		})
	}
	return p
}

// ParsePayload decodes and validates tool output. Whitespace-only units are
// dropped and the rest are returned in reading order.
func ParsePayload(data []byte) ([]deck.TextUnit, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty output")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var raw struct {
		Units *[]PayloadUnit `json:"units"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing data after payload")
	}
	if raw.Units == nil {
		return nil, errors.New("payload missing units")
	}

	seen := make(map[deck.Key]bool, len(*raw.Units))
	units := make([]deck.TextUnit, 0, len(*raw.Units))

	for i, pu := range *raw.Units {
		pos, err := pu.Position.resolve()
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
		if pu.SlideNumber < 1 {
			return nil, fmt.Errorf("unit %d: slideNumber must be >= 1, got %d", i, pu.SlideNumber)
		}

		u := deck.NewTextUnit(pu.SlideNumber, pos, pu.Text)
		if seen[u.Key()] {
			return nil, fmt.Errorf("unit %d: duplicate position %s", i, u.ID)
		}
		seen[u.Key()] = true

		if !u.Blank() {
			units = append(units, u)
		}
	}

	deck.Sort(units)
	return units, nil
}

func (p PayloadPosition) resolve() (deck.Position, error) {
	var pos deck.Position

	if (p.Row == nil) != (p.Col == nil) {
		return pos, errors.New("position requires both row and col")
	}

	if p.Row != nil {
		if *p.Row < 1 || *p.Col < 1 {
			return pos, fmt.Errorf("row and col must be >= 1, got %d,%d", *p.Row, *p.Col)
		}
		pos.Row, pos.Col = *p.Row, *p.Col
		if p.ElementIndex != nil {
			if *p.ElementIndex < 0 {
				return pos, fmt.Errorf("elementIndex must be >= 0, got %d", *p.ElementIndex)
			}
			pos.ElementIndex = *p.ElementIndex
		}
		return pos, nil
	}

	if p.ElementIndex == nil {
		return pos, errors.New("position requires elementIndex or row/col")
	}
	if *p.ElementIndex < 1 {
		return pos, fmt.Errorf("elementIndex must be >= 1, got %d", *p.ElementIndex)
	}
	pos.ElementIndex = *p.ElementIndex
	return pos, nil
}

func ptr(n int) *int {
	return &n
}
