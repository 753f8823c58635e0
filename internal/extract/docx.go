package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// extractDOCX returns the text of every w:p paragraph of word/document.xml,
// in document order, joined by newlines.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx container: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx container: word/document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("docx open document.xml: %w", err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		depth      int // nesting depth of w:p
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if !isWordElement(t.Name) {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func isWordElement(n xml.Name) bool {
	return n.Space == wordprocessingNS || n.Space == ""
}
