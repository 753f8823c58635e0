package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

// Extractor turns uploads into plain text based on their extension.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract picks a strategy based on file extension:
// pdf -> per-page text, doc/docx -> paragraphs, txt -> UTF-8, anything else -> "".
func (e *Extractor) Extract(ctx context.Context, file Upload) (string, error) {
	start := time.Now()
	ext := constants.ExtOf(file.Name)

	var (
		text string
		err  error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		text, err = extractPDF(file.Data)
	case constants.DOCX:
		text, err = extractDOCX(file.Data)
	case constants.TXT:
		text = decodeUTF8(file.Data)
	default:
		e.logger.Debug("extract.unsupported", "name", file.Name, "ext", ext)
		return "", nil
	}
	if err != nil {
		e.logger.Error("extract.failed", "name", file.Name, "ext", ext, "error", err)
		return "", err
	}

	e.logger.Debug("extract.ok",
		"name", file.Name,
		"ext", ext,
		"bytes", len(file.Data),
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
