package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageSize   = "Letter"
	marginMM   = 20.0
	lineHeight = 5.5
	cellPad    = 1.5
	criteriaW  = 63.5 // 2.5in
	scoreColW  = 88.9 // 3.5in
)

// Builder renders reports with fixed branding.
type Builder struct {
	brand  Branding
	logger *slog.Logger
}

func NewBuilder(brand Branding, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{brand: brand, logger: logger}
}

// Compose returns the document structure for in using the builder's branding.
func (b *Builder) Compose(in Input) Document {
	return Compose(in, b.brand)
}

// FileName returns the timestamped report name for at.
func (b *Builder) FileName(at time.Time) string {
	return FileName(b.brand.ProductName, at)
}

// Build writes the PDF for in to w. Content never causes a failure; only the
// writer can.
func (b *Builder) Build(in Input, w io.Writer) error {
	start := time.Now()
	doc := b.Compose(in)

	pdf := fpdf.New("P", "mm", pageSize, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Subject, true)
	pdf.SetAuthor(b.brand.TrainerName, true)
	pdf.SetCreator(b.brand.ProductName, true)
	if !in.GeneratedAt.IsZero() {
		pdf.SetCreationDate(in.GeneratedAt)
	}
	pdf.AddPage()

	r := &renderer{pdf: pdf, tr: tr}
	for _, blk := range doc.Blocks {
		r.block(blk)
	}

	if err := pdf.Output(w); err != nil {
		b.logger.Error("report.render_failed", "student", in.StudentName, "error", err)
		return fmt.Errorf("render report: %w", err)
	}
	b.logger.Info("report.rendered",
		"student", in.StudentName,
		"pages", pdf.PageNo(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// WriteFile renders the report to path, creating parent directories. The
// PDF goes through a scratch file in the same directory and is renamed into
// place, so path never holds a partial report.
func (b *Builder) WriteFile(in Input, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.pdf")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rerr := os.Remove(tmp.Name()); rerr != nil && !os.IsNotExist(rerr) {
			b.logger.Warn("report.scratch.cleanup_failed", "path", tmp.Name(), "error", rerr)
		}
	}()
	if err := b.Build(in, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move report into place: %w", err)
	}
	return nil
}

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *renderer) block(blk Block) {
	p := r.pdf
	switch blk.Kind {
	case BlockTitle:
		p.SetFont("Helvetica", "B", 24)
		p.CellFormat(0, 12, r.tr(blk.Text), "", 1, "C", false, 0, "")
		p.Ln(6)
	case BlockHeading:
		p.SetFont("Helvetica", "B", 14)
		p.CellFormat(0, 8, r.tr(blk.Text), "", 1, "L", false, 0, "")
	case BlockLine:
		p.SetFont("Helvetica", "", 10)
		p.MultiCell(0, lineHeight, r.tr(blk.Text), "", "L", false)
	case BlockField:
		p.SetFont("Helvetica", "B", 10)
		p.Write(lineHeight, r.tr(blk.Label+": "))
		p.SetFont("Helvetica", "", 10)
		p.Write(lineHeight, r.tr(blk.Text))
		p.Ln(lineHeight)
	case BlockSection:
		p.SetFont("Helvetica", "B", 10)
		p.Write(lineHeight, r.tr(blk.Label+": "))
		p.SetFont("Helvetica", "", 10)
		p.Write(lineHeight, r.tr(blk.Text))
		p.Ln(lineHeight + 2)
	case BlockTable:
		p.SetFont("Helvetica", "B", 10)
		p.CellFormat(0, lineHeight, r.tr(blk.Label+":"), "", 1, "L", false, 0, "")
		r.table(blk.Rows)
		p.Ln(2)
	case BlockSpacer:
		p.Ln(6)
	}
}

func (r *renderer) table(rows [][2]string) {
	p := r.pdf
	_, pageH := p.GetPageSize()
	_, _, _, bottom := p.GetMargins()
	widths := [2]float64{criteriaW, scoreColW}

	p.SetDrawColor(128, 128, 128)
	p.SetLineWidth(0.2)
	for i, row := range rows {
		header := i == 0
		if header {
			p.SetFont("Helvetica", "B", 10)
			p.SetFillColor(211, 211, 211)
		} else {
			p.SetFont("Helvetica", "", 10)
			p.SetFillColor(245, 245, 245)
		}

		// cells hold cp1252 bytes after tr, so they are measured bytewise
		cells := [2]string{r.tr(row[0]), r.tr(row[1])}
		n := 1
		for c := range cells {
			if k := len(p.SplitLines([]byte(cells[c]), widths[c]-2*cellPad)); k > n {
				n = k
			}
		}
		h := float64(n)*lineHeight + 2*cellPad

		if p.GetY()+h > pageH-bottom {
			p.AddPage()
		}
		x, y := p.GetX(), p.GetY()
		cx := x
		for c := range cells {
			p.Rect(cx, y, widths[c], h, "FD")
			p.SetXY(cx+cellPad, y+cellPad)
			p.MultiCell(widths[c]-2*cellPad, lineHeight, cells[c], "", "L", false)
			cx += widths[c]
		}
		p.SetXY(x, y+h)
	}
}
