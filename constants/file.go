package constants

import (
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the per-file ceiling for every upload slot (5 MB).
const MaxUploadBytes int64 = 5_000_000

// Slot names a file input on the submission form.
type Slot string

const (
	SlotQuestion    Slot = "question"
	SlotSupporting  Slot = "supporting_docs"
	SlotFinalOutput Slot = "final_output"
)

// Format is the extraction strategy picked from a file extension.
type Format string

const (
	PDF      Format = "PDF"
	DOCX     Format = "DOCX"
	TXT      Format = "TXT"
	PYTHON   Format = "PYTHON"
	NOTEBOOK Format = "NOTEBOOK"
	OTHER    Format = "OTHER"
)

const (
	MimePDF      = "application/pdf"
	MimeDOC      = "application/msword"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV      = "text/csv"
	MimeText     = "text/plain"
	MimePNG      = "image/png"
	MimeJPEG     = "image/jpeg"
	MimeNotebook = "application/x-ipynb+json"
	MimeOctet    = "application/octet-stream"
	MimePython   = "text/x-python"
)

// SlotRule is the allow-list for one upload slot. Both the extension and the
// declared MIME type must be listed.
type SlotRule struct {
	Extensions map[string]struct{}
	MimeTypes  map[string]struct{}
}

var slotRules = map[Slot]SlotRule{
	SlotQuestion: {
		Extensions: set("pdf", "docx", "txt"),
		MimeTypes:  set(MimePDF, MimeDOCX, MimeText),
	},
	SlotSupporting: {
		Extensions: set("xlsx", "csv", "pdf", "doc", "docx", "txt", "png", "jpeg", "jpg"),
		MimeTypes:  set(MimeXLSX, MimeCSV, MimePDF, MimeDOC, MimeDOCX, MimeText, MimePNG, MimeJPEG),
	},
	SlotFinalOutput: {
		Extensions: set("ipynb", "py", "pdf"),
		MimeTypes:  set(MimePDF, MimeNotebook, MimeOctet, MimePython),
	},
}

// RuleFor returns the allow-list of a slot.
func RuleFor(slot Slot) (SlotRule, bool) {
	r, ok := slotRules[slot]
	return r, ok
}

// Allows reports whether a file name / MIME pair passes the slot's allow-list.
func (r SlotRule) Allows(name, mimeType string) bool {
	if _, ok := r.Extensions[ExtOf(name)]; !ok {
		return false
	}
	_, ok := r.MimeTypes[NormalizeMime(mimeType)]
	return ok
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtOf returns the normalized extension of a file name ("" when there is none).
func ExtOf(name string) string {
	return NormalizeExt(filepath.Ext(name))
}

// NormalizeMime drops parameters such as "; charset=utf-8".
func NormalizeMime(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// MapExtToFormat maps a normalized extension to its extraction format.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "doc", "docx":
		return DOCX
	case "txt":
		return TXT
	case "py":
		return PYTHON
	case "ipynb":
		return NOTEBOOK
	default:
		return OTHER
	}
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
