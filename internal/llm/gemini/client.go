package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/assignment-verifier/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	APIKey      string
	Model       string // e.g., "gemini-2.5-flash"
	Temperature float32
	Timeout     time.Duration
	Mode        llm.Mode
	Persona     llm.Persona
}

type Client struct {
	cfg    Config
	logger *slog.Logger

	mu sync.Mutex
	cl *genai.Client // created on first Score, reused after
}

var _ llm.Scorer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.Mode == "" {
		cfg.Mode = llm.ModeTemplate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Score implements llm.Scorer with one GenerateContent call.
func (c *Client) Score(ctx context.Context, req llm.ScoreRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	rid := uuid.New().String()
	start := time.Now()

	cl, err := c.client(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	m := cl.GenerativeModel(strings.TrimSpace(c.cfg.Model))
	m.SetTemperature(c.cfg.Temperature)
	if c.cfg.Mode == llm.ModeStructured {
		m.ResponseMIMEType = "application/json"
	}

	c.logger.Info("llm.score.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"mode", c.cfg.Mode,
	)

	resp, err := m.GenerateContent(ctx, genai.Text(llm.BuildPrompt(req, c.cfg.Persona, c.cfg.Mode)))
	if err != nil {
		c.logger.Error("llm.score.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	txt, ok := firstText(resp)
	if !ok {
		return "", fmt.Errorf("gemini generate: empty response")
	}

	c.logger.Info("llm.score.ok",
		"req_id", rid,
		"content_len", len(txt),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return txt, nil
}

// client returns the shared genai client, dialing it on first use.
// A failed dial is retried on the next call.
func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cl != nil {
		return c.cl, nil
	}
	cl, err := genai.NewClient(context.WithoutCancel(ctx), option.WithAPIKey(c.cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c.cl = cl
	return cl, nil
}

// Close releases the underlying genai client, if one was created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cl == nil {
		return nil
	}
	err := c.cl.Close()
	c.cl = nil
	return err
}

// firstText joins the text parts of the first candidate; ok is false when
// there are none.
func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", false
	}
	var b strings.Builder
	found := false
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
			found = true
		}
	}
	return b.String(), found
}
