// Package provider builds the configured llm.Scorer.
package provider

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm/gemini"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm/openai"
)

func NewScorer(cfg *common.Config, logger *slog.Logger) (llm.Scorer, error) {
	persona := llm.Persona{Name: cfg.Report.TrainerName, Role: cfg.Report.TrainerRole}
	mode := llm.ParseMode(cfg.LLM.Mode)

	switch cfg.LLM.Provider {
	case "", "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Mode:        mode,
			Persona:     persona,
		}, logger), nil
	case "gemini":
		return gemini.NewClient(gemini.Config{
			APIKey:      cfg.LLM.GeminiAPIKey,
			Model:       cfg.LLM.GeminiModel,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Mode:        mode,
			Persona:     persona,
		}, logger), nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown LLM provider %q", cfg.LLM.Provider), common.ErrInvalidInput)
	}
}
