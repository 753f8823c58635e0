package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
	"github.com/joseph-ayodele/assignment-verifier/internal/extract"
	"github.com/joseph-ayodele/assignment-verifier/internal/feedback"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm"
	"github.com/joseph-ayodele/assignment-verifier/internal/report"
	"github.com/joseph-ayodele/assignment-verifier/internal/repository"
	"github.com/joseph-ayodele/assignment-verifier/internal/session"
)

// QuestionSummaryLen is how many characters of the question are kept on the record.
const QuestionSummaryLen = 200

// Config holds limits and behavior flags for a run.
type Config struct {
	MaxUploadBytes int64 // per file; default constants.MaxUploadBytes
	// ZeroFallback records score 0 when the response has no score instead of
	// failing with SCORE_UNPARSABLE.
	ZeroFallback bool
}

// Request is one submission. Session supplies the student identity; the
// caller is responsible for the CAPTCHA and the one-submission claim.
type Request struct {
	Session      *session.Session
	QuestionText string          // typed question; wins over QuestionFile when non-blank
	QuestionFile *extract.Upload // optional
	Supporting   []extract.Upload
	FinalOutput  *extract.Upload
}

// Outcome is what a successful run produced.
type Outcome struct {
	Submission  *entity.Submission
	Feedback    feedback.Feedback
	RawResponse string
	Report      []byte
	ReportName  string
	ReportInput report.Input // what Report was rendered from
	CodeSignals *extract.CodeSignals
	Warnings    []string // skipped supporting documents etc.
}

// Processor coordinates extraction, scoring, parsing, report rendering and
// persistence for one submission, in that order.
type Processor struct {
	Logger    *slog.Logger
	Cfg       Config
	Extractor extract.TextExtractor
	Scorer    llm.Scorer
	Repo      repository.SubmissionRepository
	Reports   *report.Builder

	tracer trace.Tracer
	now    func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	cfg Config,
	extractor extract.TextExtractor,
	scorer llm.Scorer,
	repo repository.SubmissionRepository,
	reports *report.Builder,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = constants.MaxUploadBytes
	}
	return &Processor{
		Logger:    logger,
		Cfg:       cfg,
		Extractor: extractor,
		Scorer:    scorer,
		Repo:      repo,
		Reports:   reports,
		tracer:    otel.Tracer("assignment-verifier/pipeline"),
		now:       time.Now,
	}
}

// Evaluate runs the whole pipeline. On any error nothing is persisted.
func (p *Processor) Evaluate(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.evaluate")
	defer span.End()

	if req.Session == nil {
		return nil, common.ValidationFailed(common.CodeSessionNotFound, "a submission session is required")
	}
	log := p.Logger.With("session_id", req.Session.ID, "req_id", common.RequestIDFromContext(ctx))

	in, err := p.gather(ctx, req, log)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	log.Info("pipeline.extract.ok",
		"question_len", len(in.Question),
		"supporting_docs", in.SupportingDocs,
		"final_output_len", len(in.FinalOutput),
		"warnings", len(in.Warnings),
	)

	raw, fb, score, err := p.score(ctx, in, log)
	if err != nil {
		fail(span, err)
		return nil, err
	}

	now := p.now().Truncate(time.Second)
	sub := &entity.Submission{
		Timestamp:        now,
		StudentName:      req.Session.StudentName,
		Institution:      req.Session.Institution,
		QuestionSummary:  Summarize(in.Question),
		Score:            score,
		EvaluationResult: feedback.Label(score),
	}

	pdf, rin, name, err := p.render(ctx, sub, fb, now)
	if err != nil {
		log.Error("pipeline.report.failed", "error", err)
		fail(span, err)
		return nil, err
	}

	if _, err := p.Repo.Add(ctx, sub); err != nil {
		log.Error("pipeline.store.failed", "error", err)
		err = common.NewAppError(common.CodeStore, "failed to record the submission", fmt.Errorf("%w: %w", common.ErrDatabase, err))
		fail(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("submission.id", sub.ID),
		attribute.Float64("submission.score", sub.Score),
		attribute.String("submission.result", string(sub.EvaluationResult)),
	)
	log.Info("pipeline.ok",
		"submission_id", sub.ID,
		"score", sub.Score,
		"result", sub.EvaluationResult,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Outcome{
		Submission:  sub,
		Feedback:    fb,
		RawResponse: raw,
		Report:      pdf,
		ReportName:  name,
		ReportInput: rin,
		CodeSignals: in.Signals,
		Warnings:    in.Warnings,
	}, nil
}

func (p *Processor) render(ctx context.Context, sub *entity.Submission, fb feedback.Feedback, at time.Time) ([]byte, report.Input, string, error) {
	_, span := p.tracer.Start(ctx, "pipeline.report")
	defer span.End()

	in := report.Input{
		StudentName:     sub.StudentName,
		Institution:     sub.Institution,
		QuestionSummary: sub.QuestionSummary,
		RawFeedback:     fb.Text(),
		Score:           sub.Score,
		GeneratedAt:     at,
	}
	var buf bytes.Buffer
	if err := p.Reports.Build(in, &buf); err != nil {
		return nil, in, "", common.NewAppError(common.CodeReport, "failed to render the report", fmt.Errorf("%w: %w", common.ErrInternal, err))
	}
	return buf.Bytes(), in, p.Reports.FileName(at), nil
}

// Summarize keeps the first QuestionSummaryLen characters and appends "...".
func Summarize(question string) string {
	r := []rune(question)
	if len(r) > QuestionSummaryLen {
		r = r[:QuestionSummaryLen]
	}
	return string(r) + "..."
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, common.CodeOf(err))
}
