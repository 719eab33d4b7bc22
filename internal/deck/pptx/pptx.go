// Package pptx reads and rewrites the text of OOXML presentations.
//
// Slides are visited in presentation order as declared by ppt/presentation.xml.
// Within a slide, every shape with a text body and every table frame is a
// text-bearing element, numbered from 1 in document order (group shapes are
// flattened). Table cells are addressed by element, row, and column.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/JaimeStill/deck-translate/internal/deck"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	slideRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
)

var (
	// ErrNotPresentation indicates the input is not a readable OOXML presentation.
	ErrNotPresentation = errors.New("pptx: not a presentation")

	// ErrMissingSlide indicates a slide referenced by the presentation is absent.
	ErrMissingSlide = errors.New("pptx: missing slide part")
)

// Deck is an opened presentation.
type Deck struct {
	zr     *zip.Reader
	files  map[string]*zip.File
	slides []string
}

// Open parses the package structure of data.
func Open(data []byte) (*Deck, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}

	d := &Deck{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		d.files[f.Name] = f
	}

	slides, err := d.slideOrder()
	if err != nil {
		return nil, err
	}
	d.slides = slides

	return d, nil
}

// SlideCount returns the number of slides in presentation order.
func (d *Deck) SlideCount() int {
	return len(d.slides)
}

// Units returns the non-blank text units of every slide in reading order.
func (d *Deck) Units() ([]deck.TextUnit, error) {
	var units []deck.TextUnit

	for i, name := range d.slides {
		data, err := d.read(name)
		if err != nil {
			return nil, err
		}

		elems, err := parseSlide(data)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}

		for _, e := range elems {
			u := deck.NewTextUnit(i+1, e.pos, e.text())
			if !u.Blank() {
				units = append(units, u)
			}
		}
	}

	deck.Sort(units)
	return units, nil
}

// Extract opens data and returns its text units.
func Extract(data []byte) ([]deck.TextUnit, error) {
	d, err := Open(data)
	if err != nil {
		return nil, err
	}
	return d.Units()
}

func (d *Deck) read(name string) ([]byte, error) {
	f, ok := d.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSlide, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

type presentation struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func (d *Deck) slideOrder() ([]string, error) {
	if _, ok := d.files[presentationPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrNotPresentation, presentationPart)
	}

	presData, err := d.read(presentationPart)
	if err != nil {
		return nil, err
	}
	var pres presentation
	if err := xml.Unmarshal(presData, &pres); err != nil {
		return nil, fmt.Errorf("%w: parse presentation: %v", ErrNotPresentation, err)
	}

	targets := make(map[string]string)
	if _, ok := d.files[presentationRels]; ok {
		relData, err := d.read(presentationRels)
		if err != nil {
			return nil, err
		}
		var rels relationships
		if err := xml.Unmarshal(relData, &rels); err != nil {
			return nil, fmt.Errorf("%w: parse relationships: %v", ErrNotPresentation, err)
		}
		for _, r := range rels.Items {
			if r.Type == slideRelType {
				targets[r.ID] = resolveTarget(r.Target)
			}
		}
	}

	slides := make([]string, 0, len(pres.SlideIDs))
	for _, s := range pres.SlideIDs {
		target, ok := targets[s.RelID]
		if !ok {
			return nil, fmt.Errorf("%w: unresolved slide relationship %q", ErrNotPresentation, s.RelID)
		}
		if _, ok := d.files[target]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSlide, target)
		}
		slides = append(slides, target)
	}

	return slides, nil
}

func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join("ppt", target)
}
