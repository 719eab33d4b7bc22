package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/JaimeStill/deck-translate/internal/deck"
)

// segment is the byte range of one <a:t> element's content. For a
// self-closing <a:t/> the range covers the whole tag.
type segment struct {
	start       int
	end         int
	selfClosing bool
	name        string
	text        string
}

// line is the text between paragraph starts and <a:br/> breaks.
type line struct {
	segments []segment
}

func (l line) text() string {
	var sb strings.Builder
	for _, s := range l.segments {
		sb.WriteString(s.text)
	}
	return sb.String()
}

type element struct {
	pos   deck.Position
	lines []line
}

func (e *element) text() string {
	parts := make([]string, len(e.lines))
	for i, l := range e.lines {
		parts[i] = l.text()
	}
	return strings.Join(parts, "\n")
}

func (e *element) addLine() {
	e.lines = append(e.lines, line{})
}

func (e *element) addSegment(s segment) {
	if len(e.lines) == 0 {
		e.addLine()
	}
	last := &e.lines[len(e.lines)-1]
	last.segments = append(last.segments, s)
}

// slideParser walks a slide with RawToken so every text segment keeps its
// exact byte offsets for later splicing.
type slideParser struct {
	stack    []string
	elements []*element
	index    int

	shape      *element
	shapeDepth int

	tableIndex int
	tableDepth int
	row, col   int

	target *element

	seg      *segment
	tagStart int
	tagEnd   int
}

func parseSlide(data []byte) ([]*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	p := &slideParser{}

	for {
		start := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse slide xml: %w", err)
		}
		end := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			p.startElement(t, start, end)
		case xml.EndElement:
			p.endElement(t, start, end)
		case xml.CharData:
			if p.seg != nil {
				p.seg.text += string(t)
			}
		}
	}

	return p.elements, nil
}

func (p *slideParser) parent() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

func (p *slideParser) inShapeTree() bool {
	return slices.Contains(p.stack, "spTree")
}

func (p *slideParser) startElement(t xml.StartElement, start, end int) {
	local := t.Name.Local
	parent := p.parent()
	p.stack = append(p.stack, local)
	depth := len(p.stack)

	switch {
	case local == "sp" && p.inShapeTree() && p.shape == nil:
		p.shape = &element{}
		p.shapeDepth = depth

	case local == "txBody" && parent == "sp" && p.shape != nil && p.target == nil:
		p.index++
		p.shape.pos = deck.Position{ElementIndex: p.index}
		p.target = p.shape

	case local == "tbl" && p.inShapeTree() && p.tableDepth == 0:
		p.index++
		p.tableIndex = p.index
		p.tableDepth = depth
		p.row = 0

	case local == "tr" && p.tableDepth > 0 && parent == "tbl":
		p.row++
		p.col = 0

	case local == "tc" && p.tableDepth > 0 && parent == "tr":
		p.col++
		p.target = &element{pos: deck.Position{ElementIndex: p.tableIndex, Row: p.row, Col: p.col}}

	case local == "p" && parent == "txBody" && p.target != nil:
		p.target.addLine()

	case local == "br" && parent == "p" && p.target != nil:
		p.target.addLine()

	case local == "t" && (parent == "r" || parent == "fld") && p.target != nil:
		p.seg = &segment{start: end, name: qualified(t.Name)}
		p.tagStart, p.tagEnd = start, end
	}
}

func (p *slideParser) endElement(t xml.EndElement, start, end int) {
	local := t.Name.Local
	depth := len(p.stack)
	if depth > 0 {
		p.stack = p.stack[:depth-1]
	}

	switch {
	case local == "t" && p.seg != nil:
		if start == end {
			p.seg.start, p.seg.end = p.tagStart, p.tagEnd
			p.seg.selfClosing = true
		} else {
			p.seg.end = start
		}
		p.target.addSegment(*p.seg)
		p.seg = nil

	case local == "tc" && p.tableDepth > 0 && p.target != nil:
		p.elements = append(p.elements, p.target)
		p.target = nil

	case local == "tbl" && depth == p.tableDepth:
		p.tableDepth = 0

	case local == "sp" && depth == p.shapeDepth && p.shape != nil:
		if p.target == p.shape {
			p.elements = append(p.elements, p.shape)
		}
		p.shape = nil
		p.target = nil
		p.shapeDepth = 0
	}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
