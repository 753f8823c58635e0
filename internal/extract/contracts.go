package extract

import (
	"context"
)

// Upload is one file received from a form slot.
type Upload struct {
	Name        string // original file name, used for extension sniffing
	ContentType string // declared MIME type
	Data        []byte
}

// Size returns the payload length in bytes.
func (u Upload) Size() int64 { return int64(len(u.Data)) }

// TextExtractor is stage 1 of the pipeline: file -> text.
// An empty result with a nil error means "no extractable text".
type TextExtractor interface {
	Extract(ctx context.Context, file Upload) (string, error)
}

// CodeSignals summarises a Python script or Jupyter notebook final output.
type CodeSignals struct {
	Kind            string `json:"kind"` // "python" | "notebook"
	HasFunctionDefs bool   `json:"has_function_defs"`
	HasImports      bool   `json:"has_imports"`
	HasOutputCells  bool   `json:"has_output_cells"`
	CodeCells       int    `json:"code_cells,omitempty"`
	Source          string `json:"-"`
}
