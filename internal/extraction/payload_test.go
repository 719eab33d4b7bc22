package extraction_test

import (
	"encoding/json"
	"testing"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/internal/extraction"
)

func TestParsePayload(t *testing.T) {
	data := []byte(`{"units":[
		{"slideNumber":2,"position":{"elementIndex":1},"text":"later slide"},
		{"slideNumber":1,"position":{"elementIndex":3,"row":2,"col":1},"text":"cell b"},
		{"slideNumber":1,"position":{"elementIndex":3,"row":1,"col":2},"text":"cell a"},
		{"slideNumber":1,"position":{"elementIndex":1},"text":"title"},
		{"slideNumber":1,"position":{"elementIndex":2},"text":"  \n\t "}
	]}`)

	units, err := extraction.ParsePayload(data)
	if err != nil {
		t.Fatalf("ParsePayload() failed: %v", err)
	}

	want := []string{"s1-e1", "s1-e3-r1c2", "s1-e3-r2c1", "s2-e1"}
	if len(units) != len(want) {
		t.Fatalf("len(units) = %d, want %d", len(units), len(want))
	}
	for i, id := range want {
		if units[i].ID != id {
			t.Errorf("units[%d].ID = %s, want %s", i, units[i].ID, id)
		}
	}
}

func TestParsePayload_RowColOnly(t *testing.T) {
	units, err := extraction.ParsePayload([]byte(`{"units":[{"slideNumber":1,"position":{"row":1,"col":1},"text":"x"}]}`))
	if err != nil {
		t.Fatalf("ParsePayload() failed: %v", err)
	}
	want := deck.Position{Row: 1, Col: 1}
	if units[0].Position != want {
		t.Errorf("Position = %+v, want %+v", units[0].Position, want)
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not json", `Traceback (most recent call last)`},
		{"missing units", `{"slides":[]}`},
		{"trailing data", `{"units":[]} {"units":[]}`},
		{"zero slide", `{"units":[{"slideNumber":0,"position":{"elementIndex":1},"text":"x"}]}`},
		{"no position", `{"units":[{"slideNumber":1,"position":{},"text":"x"}]}`},
		{"row without col", `{"units":[{"slideNumber":1,"position":{"row":1},"text":"x"}]}`},
		{"zero row", `{"units":[{"slideNumber":1,"position":{"row":0,"col":1},"text":"x"}]}`},
		{"duplicate", `{"units":[
			{"slideNumber":1,"position":{"elementIndex":1},"text":"a"},
			{"slideNumber":1,"position":{"elementIndex":1},"text":"b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := extraction.ParsePayload([]byte(tt.data)); err == nil {
				t.Error("ParsePayload() = nil error, want error")
			}
		})
	}
}

func TestNewPayload_RoundTrip(t *testing.T) {
	units := []deck.TextUnit{
		deck.NewTextUnit(1, deck.Position{ElementIndex: 1}, "title"),
		deck.NewTextUnit(1, deck.Position{ElementIndex: 2, Row: 1, Col: 1}, "cell"),
	}

	data, err := json.Marshal(extraction.NewPayload(units))
	if err != nil {
		t.Fatal(err)
	}

	got, err := extraction.ParsePayload(data)
	if err != nil {
		t.Fatalf("ParsePayload() failed: %v", err)
	}
	for i := range units {
		if got[i] != units[i] {
			t.Errorf("unit %d = %+v, want %+v", i, got[i], units[i])
		}
	}
}
