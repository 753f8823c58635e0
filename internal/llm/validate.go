package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	evalOnce     sync.Once
	evalCompiled *jsonschema.Schema
	evalErr      error
)

// ValidateEvaluation validates doc against EvaluationSchema; the compiled
// schema is cached after the first call.
func ValidateEvaluation(doc []byte) error {
	evalOnce.Do(func() {
		evalCompiled, evalErr = compileSchema("evaluation.json", EvaluationSchema())
	})
	if evalErr != nil {
		return evalErr
	}
	return validateDoc(evalCompiled, doc)
}

// DecodeEvaluation strips optional code fences, validates and decodes a
// structured response.
func DecodeEvaluation(raw string) (Evaluation, error) {
	doc := []byte(StripCodeFences(raw))
	if err := ValidateEvaluation(doc); err != nil {
		return Evaluation{}, err
	}
	var ev Evaluation
	if err := json.Unmarshal(doc, &ev); err != nil {
		return Evaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}
	return ev, nil
}

// StripCodeFences removes a surrounding ```json ... ``` block if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	bs, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(name, bytes.NewReader(bs)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

func validateDoc(schema *jsonschema.Schema, doc []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
