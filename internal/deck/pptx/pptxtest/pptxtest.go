// Package pptxtest builds minimal presentations for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Shape renders one child of a slide's shape tree.
type Shape func(sb *strings.Builder)

// Text is a text shape with one run per paragraph. An empty string renders an
// empty paragraph.
func Text(paragraphs ...string) Shape {
	return func(sb *strings.Builder) {
		sb.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Text"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`)
		for _, para := range paragraphs {
			writeParagraph(sb, para)
		}
		sb.WriteString(`</p:txBody></p:sp>`)
	}
}

// Runs is a text shape with a single paragraph split across runs.
func Runs(runs ...string) Shape {
	return func(sb *strings.Builder) {
		sb.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Runs"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p>`)
		for _, r := range runs {
			writeRun(sb, r)
		}
		sb.WriteString(`</a:p></p:txBody></p:sp>`)
	}
}

// Raw inserts literal shape XML.
func Raw(x string) Shape {
	return func(sb *strings.Builder) {
		sb.WriteString(x)
	}
}

// Picture is a shape without text.
func Picture() Shape {
	return Raw(`<p:pic><p:nvPicPr><p:cNvPr id="4" name="Picture"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill/><p:spPr/></p:pic>`)
}

// Table is a table frame; each row lists its cell texts.
func Table(rows ...[]string) Shape {
	return func(sb *strings.Builder) {
		sb.WriteString(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="5" name="Table"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr><p:xfrm/><a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblGrid/>`)
		for _, row := range rows {
			sb.WriteString(`<a:tr h="370840">`)
			for _, cell := range row {
				sb.WriteString(`<a:tc><a:txBody><a:bodyPr/>`)
				writeParagraph(sb, cell)
				sb.WriteString(`</a:txBody><a:tcPr/></a:tc>`)
			}
			sb.WriteString(`</a:tr>`)
		}
		sb.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	}
}

// Group nests shapes inside a group shape.
func Group(shapes ...Shape) Shape {
	return func(sb *strings.Builder) {
		sb.WriteString(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="6" name="Group"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
		for _, s := range shapes {
			s(sb)
		}
		sb.WriteString(`</p:grpSp>`)
	}
}

// Slide renders a slide part containing shapes.
func Slide(shapes ...Shape) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	fmt.Fprintf(&sb, `<p:sld xmlns:a="%s" xmlns:p="%s" xmlns:r="%s"><p:cSld><p:spTree>`, nsA, nsP, nsR)
	sb.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	for _, s := range shapes {
		s(&sb)
	}
	sb.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return sb.String()
}

// Build packages slides in presentation order.
func Build(slides ...string) []byte {
	return build(slides, false)
}

// BuildReversed packages slides so that part names run opposite to
// presentation order: the first slide is stored as slideN.xml.
func BuildReversed(slides ...string) []byte {
	return build(slides, true)
}

func build(slides []string, reversed bool) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	write := func(name, content string) {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}

	n := len(slides)
	partNumber := func(i int) int {
		if reversed {
			return n - i
		}
		return i + 1
	}

	var types, ids, rels strings.Builder
	for i := range slides {
		num := partNumber(i)
		fmt.Fprintf(&types, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, num)
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, 10+i)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, 10+i, num)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="xml" ContentType="application/xml"/>`+
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`+
		types.String()+`</Types>`)

	write("ppt/presentation.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:presentation xmlns:a="%s" xmlns:p="%s" xmlns:r="%s"><p:sldIdLst>%s</p:sldIdLst></p:presentation>`,
		nsA, nsP, nsR, ids.String()))

	write("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>`+
		rels.String()+`</Relationships>`)

	for i, s := range slides {
		write(fmt.Sprintf("ppt/slides/slide%d.xml", partNumber(i)), s)
	}

	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func writeParagraph(sb *strings.Builder, text string) {
	if text == "" {
		sb.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
		return
	}
	sb.WriteString(`<a:p>`)
	writeRun(sb, text)
	sb.WriteString(`</a:p>`)
}

func writeRun(sb *strings.Builder, text string) {
	sb.WriteString(`<a:r><a:rPr lang="en-US"/><a:t>`)
	xml.EscapeText(sb, []byte(text))
	sb.WriteString(`</a:t></a:r>`)
}
