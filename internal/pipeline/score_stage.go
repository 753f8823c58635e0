package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/feedback"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm"
)

// ErrScoreUnparsable is the cause of SCORE_UNPARSABLE failures.
var ErrScoreUnparsable = errors.New("no score found in model response")

// score calls the model once, parses the response and returns the clamped score.
func (p *Processor) score(ctx context.Context, in materials, log *slog.Logger) (string, feedback.Feedback, float64, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.score")
	defer span.End()
	start := time.Now()

	raw, err := p.Scorer.Score(ctx, llm.ScoreRequest{
		Question:        in.Question,
		SupportingText:  in.Supporting,
		FinalOutputText: in.FinalOutput,
	})
	if err != nil {
		log.Error("pipeline.score.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", feedback.Feedback{}, 0, common.NewAppError(common.CodeScoring,
			"the scoring service could not evaluate the submission", fmt.Errorf("%w: %w", common.ErrExternal, err))
	}

	fb := feedback.Parse(raw)
	if !fb.ScoreFound {
		if !p.Cfg.ZeroFallback {
			log.Error("pipeline.score.unparsable", "response_len", len(raw))
			return raw, fb, 0, common.NewAppError(common.CodeScoreUnparsable,
				"the scoring service response contained no score", fmt.Errorf("%w: %w", common.ErrExternal, ErrScoreUnparsable))
		}
		log.Warn("pipeline.score.unparsable_zero_fallback", "response_len", len(raw))
	}

	score := feedback.Clamp(fb.Score)
	if score != fb.Score {
		log.Warn("pipeline.score.clamped", "parsed", fb.Score, "stored", score)
	}
	log.Info("pipeline.score.ok",
		"score", score,
		"structured", fb.Structured,
		"rows", len(fb.Rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, fb, score, nil
}
