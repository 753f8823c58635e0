package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

var (
	reFuncDef = regexp.MustCompile(`(?m)^\s*(async\s+)?def\s+\w+\s*\(`)
	reImport  = regexp.MustCompile(`(?m)^\s*(import\s+\w|from\s+[\w.]+\s+import\s)`)
)

type notebook struct {
	Cells []struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
		Outputs  []any           `json:"outputs"`
	} `json:"cells"`
}

// InspectCode reads a .py or .ipynb final output and reports structural
// signals plus the raw source. ok is false for any other file type.
func InspectCode(file Upload) (sig CodeSignals, ok bool, err error) {
	switch constants.MapExtToFormat(constants.ExtOf(file.Name)) {
	case constants.PYTHON:
		src := decodeUTF8(file.Data)
		return CodeSignals{
			Kind:            "python",
			HasFunctionDefs: reFuncDef.MatchString(src),
			HasImports:      reImport.MatchString(src),
			Source:          src,
		}, true, nil
	case constants.NOTEBOOK:
		sig, err := inspectNotebook(file.Data)
		return sig, err == nil, err
	default:
		return CodeSignals{}, false, nil
	}
}

func inspectNotebook(data []byte) (CodeSignals, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return CodeSignals{}, fmt.Errorf("notebook json: %w", err)
	}
	sig := CodeSignals{Kind: "notebook"}
	// Source keeps code and markdown cells in order; signals come from code only.
	var b strings.Builder
	for _, c := range nb.Cells {
		src := cellSource(c.Source)
		switch c.CellType {
		case "code":
			sig.CodeCells++
			if reFuncDef.MatchString(src) {
				sig.HasFunctionDefs = true
			}
			if reImport.MatchString(src) {
				sig.HasImports = true
			}
			if len(c.Outputs) > 0 {
				sig.HasOutputCells = true
			}
		case "markdown":
		default:
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(src)
	}
	sig.Source = b.String()
	return sig, nil
}

// cellSource accepts both the list-of-lines and single-string encodings.
func cellSource(raw json.RawMessage) string {
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
