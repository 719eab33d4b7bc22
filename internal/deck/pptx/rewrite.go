package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/JaimeStill/deck-translate/internal/deck"
)

// RewriteResult reports how replacement texts were applied.
type RewriteResult struct {
	Applied   int
	Unchanged int
	Unmatched []deck.Key
}

type edit struct {
	start int
	end   int
	text  string
}

// Rewrite replaces the text of every element keyed in texts and returns the
// rewritten package. Elements whose replacement equals their current text are
// left untouched, as are zip entries without edits.
func (d *Deck) Rewrite(texts map[deck.Key]string) ([]byte, RewriteResult, error) {
	var result RewriteResult
	matched := make(map[deck.Key]bool, len(texts))
	rewritten := make(map[string][]byte)

	bySlide := make(map[int]bool)
	for k := range texts {
		bySlide[k.Slide] = true
	}

	for i, name := range d.slides {
		slide := i + 1
		if !bySlide[slide] {
			continue
		}

		data, err := d.read(name)
		if err != nil {
			return nil, result, err
		}

		elems, err := parseSlide(data)
		if err != nil {
			return nil, result, fmt.Errorf("slide %d: %w", slide, err)
		}

		var edits []edit
		for _, e := range elems {
			key := deck.Key{Slide: slide, Position: e.pos}
			text, ok := texts[key]
			if !ok {
				continue
			}
			matched[key] = true

			if text == e.text() {
				result.Unchanged++
				continue
			}
			edits = append(edits, e.edits(text)...)
			result.Applied++
		}

		if len(edits) > 0 {
			rewritten[name] = splice(data, edits)
		}
	}

	for k := range texts {
		if !matched[k] {
			result.Unmatched = append(result.Unmatched, k)
		}
	}
	slices.SortFunc(result.Unmatched, func(a, b deck.Key) int {
		return deck.Compare(deck.TextUnit{SlideNumber: a.Slide, Position: a.Position},
			deck.TextUnit{SlideNumber: b.Slide, Position: b.Position})
	})

	out, err := d.write(rewritten)
	if err != nil {
		return nil, result, err
	}
	return out, result, nil
}

// edits maps the lines of text onto the element's lines. Each line's first
// segment receives the text and the remaining segments are emptied. Lines
// without a segment to hold them are joined onto the nearest writable line.
func (e *element) edits(text string) []edit {
	values := make([]string, len(e.lines))
	written := make([]bool, len(e.lines))
	lastWritable := -1
	var pending []string

	for i, l := range strings.Split(text, "\n") {
		if i < len(e.lines) && len(e.lines[i].segments) > 0 {
			values[i] = joinNonEmpty(append(pending, l)...)
			written[i] = true
			pending = nil
			lastWritable = i
			continue
		}
		if lastWritable >= 0 {
			values[lastWritable] = joinNonEmpty(values[lastWritable], l)
		} else {
			pending = append(pending, l)
		}
	}

	if len(pending) > 0 {
		for i, l := range e.lines {
			if len(l.segments) > 0 {
				values[i] = joinNonEmpty(append(pending, values[i])...)
				written[i] = true
				break
			}
		}
	}

	var edits []edit
	for i, l := range e.lines {
		for j, s := range l.segments {
			value := ""
			if j == 0 && written[i] {
				value = values[i]
			}
			if ed, ok := s.replace(value); ok {
				edits = append(edits, ed)
			}
		}
	}
	return edits
}

func (s segment) replace(value string) (edit, bool) {
	if value == s.text {
		return edit{}, false
	}

	escaped := escape(value)
	if s.selfClosing {
		return edit{
			start: s.start,
			end:   s.end,
			text:  "<" + s.name + ">" + escaped + "</" + s.name + ">",
		}, true
	}
	return edit{start: s.start, end: s.end, text: escaped}, true
}

func splice(data []byte, edits []edit) []byte {
	slices.SortFunc(edits, func(a, b edit) int { return a.start - b.start })

	var buf bytes.Buffer
	buf.Grow(len(data))
	pos := 0
	for _, e := range edits {
		buf.Write(data[pos:e.start])
		buf.WriteString(e.text)
		pos = e.end
	}
	buf.Write(data[pos:])
	return buf.Bytes()
}

func (d *Deck) write(rewritten map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range d.zr.File {
		if data, ok := rewritten[f.Name]; ok {
			hdr := f.FileHeader
			hdr.CRC32 = 0
			hdr.CompressedSize64 = 0
			hdr.UncompressedSize64 = 0
			hdr.Extra = nil
			if hdr.Method != zip.Store {
				hdr.Method = zip.Deflate
			}

			w, err := zw.CreateHeader(&hdr)
			if err != nil {
				return nil, fmt.Errorf("create %s: %w", f.Name, err)
			}
			if _, err := w.Write(data); err != nil {
				return nil, fmt.Errorf("write %s: %w", f.Name, err)
			}
			continue
		}

		w, err := zw.CreateRaw(&f.FileHeader)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		r, err := f.OpenRaw()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		if _, err := io.Copy(w, r); err != nil {
			return nil, fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}
	return buf.Bytes(), nil
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func escape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
