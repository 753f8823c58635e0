package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/extract"
	"github.com/joseph-ayodele/assignment-verifier/internal/feedback"
	"github.com/joseph-ayodele/assignment-verifier/internal/pipeline"
	"github.com/joseph-ayodele/assignment-verifier/internal/session"
)

// Multipart field names of the submission form.
const (
	fieldQuestionText  = "question_text"
	fieldQuestionFile  = "question_file"
	fieldSupporting    = "supporting_docs"
	fieldFinalOutput   = "final_output"
	fieldCaptchaAnswer = "captcha_answer"
)

// Evaluator runs one submission through extraction, scoring, reporting and storage.
type Evaluator interface {
	Evaluate(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

type SubmissionHandler struct {
	sessions       session.Store
	evaluator      Evaluator
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewSubmissionHandler(sessions session.Store, evaluator Evaluator, maxUploadBytes int64, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		sessions:       sessions,
		evaluator:      evaluator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("handler", "submission"),
	}
}

type breakdownRow struct {
	Criterion    string `json:"criterion"`
	CriterionKey string `json:"criterion_key,omitempty"` // rubric criterion when recognised
	Score        string `json:"score"`
	Explanation  string `json:"explanation,omitempty"`
}

type feedbackResponse struct {
	Strengths           string         `json:"strengths"`
	AreasForImprovement string         `json:"areas_for_improvement"`
	ScoreBreakdown      []breakdownRow `json:"score_breakdown"`
	TotalScore          string         `json:"total_score"`
	FinalVerdict        string         `json:"final_verdict"`
	Raw                 string         `json:"raw"`
}

type reportResponse struct {
	Name          string `json:"name"`
	ContentBase64 string `json:"content_base64"`
}

type submissionResponse struct {
	ID               int64                `json:"id"`
	Timestamp        string               `json:"timestamp"`
	StudentName      string               `json:"student_name"`
	Institution      string               `json:"institution,omitempty"`
	QuestionSummary  string               `json:"question_summary"`
	Score            float64              `json:"score"`
	ScoreText        string               `json:"score_text"`
	EvaluationResult string               `json:"evaluation_result"`
	Feedback         feedbackResponse     `json:"feedback"`
	Report           reportResponse       `json:"report"`
	CodeSignals      *extract.CodeSignals `json:"code_signals,omitempty"`
	Warnings         []string             `json:"warnings,omitempty"`
}

func toSubmissionResponse(out *pipeline.Outcome) submissionResponse {
	fb := out.Feedback
	rows := make([]breakdownRow, 0, len(fb.Rows))
	for _, r := range fb.Rows {
		rows = append(rows, breakdownRow{
			Criterion:    r.Criterion,
			CriterionKey: string(r.Canonical),
			Score:        r.Score,
			Explanation:  r.Explanation,
		})
	}
	sub := out.Submission
	resp := submissionResponse{
		ID:               sub.ID,
		Timestamp:        sub.TimestampText(),
		StudentName:      sub.StudentName,
		Institution:      sub.Institution,
		QuestionSummary:  sub.QuestionSummary,
		Score:            sub.Score,
		ScoreText:        feedback.FormatScore(sub.Score),
		EvaluationResult: string(sub.EvaluationResult),
		Feedback: feedbackResponse{
			Strengths:           strings.TrimSpace(fb.Strengths),
			AreasForImprovement: strings.TrimSpace(fb.Improvements),
			ScoreBreakdown:      rows,
			TotalScore:          strings.TrimSpace(fb.TotalScore),
			FinalVerdict:        strings.TrimSpace(fb.FinalVerdict),
			Raw:                 out.RawResponse,
		},
		Report: reportResponse{
			Name:          out.ReportName,
			ContentBase64: base64.StdEncoding.EncodeToString(out.Report),
		},
		CodeSignals: out.CodeSignals,
		Warnings:    out.Warnings,
	}
	if resp.CodeSignals != nil {
		// source is not echoed back
		sig := *resp.CodeSignals
		sig.Source = ""
		resp.CodeSignals = &sig
	}
	return resp
}

// Submit handles POST /api/sessions/:id/submissions.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	id := c.Param("id")
	c.Request = c.Request.WithContext(common.WithSessionID(c.Request.Context(), id))
	ctx := c.Request.Context()
	log := h.logger.With("session_id", id, "req_id", common.RequestIDFromContext(ctx))

	sess, err := h.sessions.Get(ctx, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if sess.Submitted {
		RespondError(c, common.NewAppError(common.CodeAlreadySubmitted, "this session has already submitted an assignment", common.ErrConflict))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, common.ValidationFailed(common.CodeValidation, "request must be multipart/form-data"))
		return
	}

	if !sess.CheckCaptcha(formValue(form, fieldCaptchaAnswer)) {
		refreshed, rerr := h.sessions.RefreshCaptcha(ctx, id)
		if rerr != nil {
			RespondError(c, rerr)
			return
		}
		log.Warn("submission.captcha.incorrect")
		respondErrorDetails(c,
			common.ValidationFailed(common.CodeCaptchaIncorrect, "incorrect CAPTCHA answer, please try again"),
			gin.H{"captcha_question": refreshed.CaptchaQuestion()})
		return
	}

	req := pipeline.Request{
		Session:      sess,
		QuestionText: formValue(form, fieldQuestionText),
	}
	if req.QuestionFile, err = h.optionalUpload(form, fieldQuestionFile); err != nil {
		RespondError(c, err)
		return
	}
	if req.FinalOutput, err = h.optionalUpload(form, fieldFinalOutput); err != nil {
		RespondError(c, err)
		return
	}
	for _, fh := range form.File[fieldSupporting] {
		u, err := h.readUpload(fh)
		if err != nil {
			RespondError(c, err)
			return
		}
		req.Supporting = append(req.Supporting, u)
	}

	if err := h.sessions.ClaimSubmission(ctx, id); err != nil {
		RespondError(c, err)
		return
	}

	out, err := h.evaluator.Evaluate(ctx, req)
	if err != nil {
		if rerr := h.sessions.ReleaseSubmission(context.WithoutCancel(ctx), id); rerr != nil {
			log.Error("submission.release.failed", "error", rerr)
		}
		RespondError(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "pdf") {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.ReportName))
		c.Data(http.StatusOK, "application/pdf", out.Report)
		return
	}
	c.JSON(http.StatusCreated, toSubmissionResponse(out))
}

func (h *SubmissionHandler) optionalUpload(form *multipart.Form, field string) (*extract.Upload, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	u, err := h.readUpload(files[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// readUpload reads at most maxUploadBytes+1 bytes so the size check downstream
// still sees an oversized file as oversized.
func (h *SubmissionHandler) readUpload(fh *multipart.FileHeader) (extract.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return extract.Upload{}, common.ValidationFailed(common.CodeUploadRejected, fmt.Sprintf("cannot open %s", fh.Filename))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return extract.Upload{}, common.ValidationFailed(common.CodeUploadRejected, fmt.Sprintf("cannot read %s", fh.Filename))
	}
	return extract.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}
