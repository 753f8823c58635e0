// Package report lays out graded feedback as a printable PDF.
package report

import (
	"strings"
	"time"
	"unicode"

	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
	"github.com/joseph-ayodele/assignment-verifier/internal/feedback"
)

// Branding is the fixed product and trainer metadata printed on every report.
type Branding struct {
	ProductName  string
	TrainerName  string
	TrainerRole  string
	ContactEmail string
	Website      string
	LinkedIn     string
	Instagram    string
}

// Input is everything one report needs.
type Input struct {
	StudentName     string
	Institution     string
	QuestionSummary string
	RawFeedback     string // sectioned feedback text
	Score           float64
	GeneratedAt     time.Time
}

type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockLine
	BlockHeading
	BlockField   // "Label: Text" with a bold label
	BlockSection // bold label followed by wrapped prose
	BlockTable
	BlockSpacer
)

// Block is one element of the report, rendered top to bottom.
type Block struct {
	Kind  BlockKind
	Label string
	Text  string
	Rows  [][2]string // BlockTable only; first row is the header
}

// Document is the renderer-independent structure of a report.
type Document struct {
	Title   string
	Subject string
	Blocks  []Block
}

// Headings returns the text of every heading block, in order.
func (d Document) Headings() []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Kind == BlockHeading {
			out = append(out, b.Text)
		}
	}
	return out
}

// Find returns the first block of kind with the given label.
func (d Document) Find(kind BlockKind, label string) (Block, bool) {
	for _, b := range d.Blocks {
		if b.Kind == kind && b.Label == label {
			return b, true
		}
	}
	return Block{}, false
}

// Compose builds the report structure. Feedback sections that are missing or
// empty after cleanup are left out.
func Compose(in Input, brand Branding) Document {
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	fb := feedback.Parse(in.RawFeedback)

	title := strings.TrimSpace(brand.ProductName + " Report")
	doc := Document{Title: title, Subject: in.QuestionSummary}
	add := func(b Block) { doc.Blocks = append(doc.Blocks, b) }

	add(Block{Kind: BlockTitle, Text: title})
	add(Block{Kind: BlockLine, Text: "Generated on: " + generated.Format(entity.TimestampLayout)})
	add(Block{Kind: BlockSpacer})

	add(Block{Kind: BlockHeading, Text: "Student Information"})
	add(Block{Kind: BlockField, Label: "Name", Text: in.StudentName})
	add(Block{Kind: BlockField, Label: "Institution", Text: in.Institution})
	add(Block{Kind: BlockSpacer})

	add(Block{Kind: BlockHeading, Text: "Trainer Information"})
	add(Block{Kind: BlockField, Label: "Name", Text: brand.TrainerName})
	add(Block{Kind: BlockField, Label: "Role", Text: brand.TrainerRole})
	add(Block{Kind: BlockSpacer})

	add(Block{Kind: BlockHeading, Text: "Feedback"})
	if s := feedback.CleanProse(fb.Strengths); s != "" {
		add(Block{Kind: BlockSection, Label: "Strengths", Text: s})
	}
	if s := feedback.CleanProse(fb.Improvements); s != "" {
		add(Block{Kind: BlockSection, Label: "Areas for Improvement", Text: s})
	}
	if len(fb.Rows) > 0 {
		rows := [][2]string{{"Criteria", "Score & Explanation"}}
		for _, r := range fb.Rows {
			rows = append(rows, [2]string{r.Criterion, r.Cell()})
		}
		add(Block{Kind: BlockTable, Label: "Score Breakdown", Rows: rows})
	}
	if s := feedback.CleanMarkdown(strings.TrimSpace(fb.TotalScore)); s != "" {
		add(Block{Kind: BlockField, Label: "Total Score", Text: s})
	}
	if s := feedback.CleanProse(fb.FinalVerdict); s != "" {
		add(Block{Kind: BlockSection, Label: "Final Verdict", Text: s})
	}
	add(Block{Kind: BlockSpacer})

	add(Block{Kind: BlockHeading, Text: "Score"})
	add(Block{Kind: BlockLine, Text: "Score: " + feedback.FormatScore(in.Score) + "/10"})
	add(Block{Kind: BlockSpacer})

	add(Block{Kind: BlockLine, Label: "footer", Text: "Generated via " + brand.ProductName})
	add(Block{Kind: BlockLine, Label: "footer", Text: "Created by " + brand.TrainerName})
	add(Block{Kind: BlockLine, Label: "footer", Text: "Contact Information:"})
	for _, c := range []struct{ label, value string }{
		{"Email", brand.ContactEmail},
		{"Website", brand.Website},
		{"LinkedIn", brand.LinkedIn},
		{"Instagram", brand.Instagram},
	} {
		if c.value != "" {
			add(Block{Kind: BlockLine, Label: "footer", Text: c.label + ": " + c.value})
		}
	}
	return doc
}

// FileName returns "<Product>_Report_YYYYMMDD_HHMMSS.pdf" with the product
// name reduced to letters, digits and underscores.
func FileName(productName string, at time.Time) string {
	var b strings.Builder
	for _, r := range productName {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "Assignment"
	}
	return slug + "_Report_" + at.Format("20060102_150405") + ".pdf"
}
