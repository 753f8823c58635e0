package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
)

func testExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTXT(t *testing.T) {
	got, err := testExtractor().Extract(context.Background(), Upload{Name: "q.TXT", Data: []byte("Write a function\nthat sorts")})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Write a function\nthat sorts" {
		t.Fatalf("txt: got=%q", got)
	}
}

func TestExtractTXTInvalidUTF8(t *testing.T) {
	got, err := testExtractor().Extract(context.Background(), Upload{Name: "q.txt", Data: []byte{'o', 'k', 0xff, '!'}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "ok�!" {
		t.Fatalf("txt invalid: got=%q", got)
	}
}

func TestExtractDOCXParagraphs(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>`+
			`<w:p/>`+
			`<w:p><w:r><w:t>Second</w:t></w:r></w:p>`)
	got, err := testExtractor().Extract(context.Background(), Upload{Name: "brief.docx", Data: data})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "First paragraph\n\nSecond"
	if got != want {
		t.Fatalf("docx: want=%q got=%q", want, got)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	e := testExtractor()
	up := Upload{Name: "brief.docx", Data: buildDOCX(t, `<w:p><w:r><w:t>Same</w:t></w:r></w:p>`)}
	a, err := e.Extract(context.Background(), up)
	if err != nil {
		t.Fatalf("Extract a: %v", err)
	}
	b, err := e.Extract(context.Background(), up)
	if err != nil {
		t.Fatalf("Extract b: %v", err)
	}
	if a != b {
		t.Fatalf("idempotence: %q != %q", a, b)
	}
}

func TestExtractUnsupportedReturnsEmpty(t *testing.T) {
	for _, name := range []string{"solution.py", "nb.ipynb", "data.xlsx", "photo.png", "noext"} {
		got, err := testExtractor().Extract(context.Background(), Upload{Name: name, Data: []byte("print('hi')")})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if got != "" {
			t.Fatalf("%s: want empty got=%q", name, got)
		}
	}
}

func TestExtractCorruptInputsFail(t *testing.T) {
	e := testExtractor()
	if _, err := e.Extract(context.Background(), Upload{Name: "broken.pdf", Data: []byte("not a pdf")}); err == nil {
		t.Fatalf("pdf: want error")
	}
	if _, err := e.Extract(context.Background(), Upload{Name: "broken.docx", Data: []byte("not a zip")}); err == nil {
		t.Fatalf("docx: want error")
	}
}

func TestInspectPython(t *testing.T) {
	src := "import math\n\ndef area(r):\n    return math.pi * r * r\n"
	sig, ok, err := InspectCode(Upload{Name: "solution.py", Data: []byte(src)})
	if err != nil || !ok {
		t.Fatalf("InspectCode: ok=%v err=%v", ok, err)
	}
	if sig.Kind != "python" || !sig.HasFunctionDefs || !sig.HasImports || sig.Source != src {
		t.Fatalf("signals: got=%+v", sig)
	}
}

func TestInspectNotebook(t *testing.T) {
	nb := `{"cells":[
		{"cell_type":"markdown","source":["# Title\n","def helper(): is explained below"]},
		{"cell_type":"code","source":["from os import path\n","x = 1"],"outputs":[]},
		{"cell_type":"raw","source":"skip me"},
		{"cell_type":"code","source":"print(x)","outputs":[{"output_type":"stream","text":["1"]}]}
	]}`
	sig, ok, err := InspectCode(Upload{Name: "work.ipynb", Data: []byte(nb)})
	if err != nil || !ok {
		t.Fatalf("InspectCode: ok=%v err=%v", ok, err)
	}
	if sig.Kind != "notebook" || sig.CodeCells != 2 || !sig.HasImports || sig.HasFunctionDefs || !sig.HasOutputCells {
		t.Fatalf("signals: got=%+v", sig)
	}
	if sig.Source != "# Title\ndef helper(): is explained below\n\nfrom os import path\nx = 1\n\nprint(x)" {
		t.Fatalf("source: got=%q", sig.Source)
	}
}

func TestInspectOtherIsNotCode(t *testing.T) {
	_, ok, err := InspectCode(Upload{Name: "report.pdf"})
	if ok || err != nil {
		t.Fatalf("pdf: want ok=false err=nil, got ok=%v err=%v", ok, err)
	}
}
