package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/assignment-verifier/internal/llm"
)

var _ llm.Scorer = (*Client)(nil)

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Score implements llm.Scorer using a single chat/completions call.
// The first choice's content is returned as-is; failures are not retried.
func (c *Client) Score(ctx context.Context, req llm.ScoreRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.score.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"mode", c.cfg.Mode,
		"question_len", len(req.Question),
		"supporting_len", len(req.SupportingText),
		"final_output_len", len(req.FinalOutputText),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": llm.BuildPrompt(req, c.cfg.Persona, c.cfg.Mode)},
		},
	}
	if c.cfg.Mode == llm.ModeStructured {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"X-Request-ID":  rid,
	}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.score.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.score.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.score.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("no choices in openai response")
	}

	content := cc.Choices[0].Message.Content
	c.logger.Info("llm.score.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
