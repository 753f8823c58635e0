package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/extract"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm"
	"github.com/joseph-ayodele/assignment-verifier/internal/report"
	"github.com/joseph-ayodele/assignment-verifier/internal/repository"
	"github.com/joseph-ayodele/assignment-verifier/internal/session"
)

const passingResponse = `STRENGTHS:
- Clear iterative implementation.

AREAS FOR IMPROVEMENT:
- Add tests for empty input.

SCORE BREAKDOWN:
1. Understanding of Problem Statement: 2/2 - Correct.
2. Code Quality and Efficiency: 2/3 - Readable.

TOTAL SCORE: 8/10

FINAL VERDICT:
Solid work.`

const binarySearchSource = `import bisect


def search(xs, x):
    i = bisect.bisect_left(xs, x)
    return i if i < len(xs) and xs[i] == x else -1
`

type fakeScorer struct {
	resp  string
	err   error
	calls int
	last  llm.ScoreRequest
}

func (f *fakeScorer) Score(_ context.Context, req llm.ScoreRequest) (string, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

type harness struct {
	p      *Processor
	scorer *fakeScorer
	repo   repository.SubmissionRepository
}

func newHarness(t *testing.T, resp string, cfg Config) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("repository.Open: %v", err)
	}
	t.Cleanup(func() { repository.Close(db, logger) })
	repo := repository.NewSubmissionRepository(db, logger)
	scorer := &fakeScorer{resp: resp}
	builder := report.NewBuilder(report.Branding{ProductName: "SkillShareVerify", TrainerName: "Dana"}, logger)
	p := NewProcessor(logger, cfg, extract.NewExtractor(logger), scorer, repo, builder)
	p.now = func() time.Time { return time.Date(2025, 3, 4, 10, 11, 12, 0, time.Local) }
	return &harness{p: p, scorer: scorer, repo: repo}
}

func (h *harness) count(t *testing.T) int {
	t.Helper()
	n, err := h.repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	return n
}

func pythonUpload(name string) *extract.Upload {
	return &extract.Upload{Name: name, ContentType: constants.MimePython, Data: []byte(binarySearchSource)}
}

func baseRequest() Request {
	return Request{
		Session:      &session.Session{ID: "s-1", StudentName: "Asha", Institution: "Lakeside"},
		QuestionText: "Explain binary search",
		FinalOutput:  pythonUpload("solution.py"),
	}
}

func TestEvaluateHappyPath(t *testing.T) {
	h := newHarness(t, passingResponse, Config{})
	req := baseRequest()
	req.Supporting = []extract.Upload{{Name: "notes.txt", ContentType: "text/plain; charset=utf-8", Data: []byte("use a sorted list")}}

	out, err := h.p.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Submission.Score != 8 || out.Submission.EvaluationResult != constants.ResultPass {
		t.Fatalf("score/result: want=8/Pass got=%v/%s", out.Submission.Score, out.Submission.EvaluationResult)
	}
	if out.Submission.ID <= 0 {
		t.Fatalf("submission id: want>0 got=%d", out.Submission.ID)
	}
	if out.Submission.QuestionSummary != "Explain binary search..." {
		t.Fatalf("summary: got=%q", out.Submission.QuestionSummary)
	}
	if !bytes.HasPrefix(out.Report, []byte("%PDF")) {
		t.Fatalf("report: want %%PDF prefix")
	}
	if out.ReportName != "SkillShareVerify_Report_20250304_101112.pdf" {
		t.Fatalf("report name: got=%q", out.ReportName)
	}
	if h.scorer.last.SupportingText != "use a sorted list\n\n" {
		t.Fatalf("supporting text: got=%q", h.scorer.last.SupportingText)
	}
	if !strings.Contains(h.scorer.last.FinalOutputText, "def search") {
		t.Fatalf("final output text: want python source got=%q", h.scorer.last.FinalOutputText)
	}
	if out.CodeSignals == nil || !out.CodeSignals.HasImports || !out.CodeSignals.HasFunctionDefs {
		t.Fatalf("code signals: got=%+v", out.CodeSignals)
	}
	if len(out.Feedback.Rows) != 2 {
		t.Fatalf("breakdown rows: want=2 got=%d", len(out.Feedback.Rows))
	}

	if out.ReportInput.RawFeedback != out.Feedback.Text() || out.ReportInput.Score != 8 {
		t.Fatalf("report input: got=%+v", out.ReportInput)
	}
	doc := h.p.Reports.Compose(out.ReportInput)
	if b, ok := doc.Find(report.BlockSection, "Strengths"); !ok || b.Text == "" {
		t.Fatalf("report strengths: want non-empty got=%+v", b)
	}
	if b, ok := doc.Find(report.BlockSection, "Final Verdict"); !ok || b.Text == "" {
		t.Fatalf("report final verdict: want non-empty got=%+v", b)
	}
	table, ok := doc.Find(report.BlockTable, "Score Breakdown")
	if !ok || len(table.Rows) < 2 {
		t.Fatalf("report breakdown: want header and at least one row got=%+v", table.Rows)
	}
	if doc.Subject != "Explain binary search..." {
		t.Fatalf("report subject: got=%q", doc.Subject)
	}
	if got := h.count(t); got != 1 {
		t.Fatalf("stored: want=1 got=%d", got)
	}
}

func TestEvaluateUnparsableScoreStoresNothing(t *testing.T) {
	h := newHarness(t, "Looks fine overall.", Config{})
	_, err := h.p.Evaluate(context.Background(), baseRequest())
	if common.CodeOf(err) != common.CodeScoreUnparsable {
		t.Fatalf("code: want=%s got=%v", common.CodeScoreUnparsable, err)
	}
	if !errors.Is(err, ErrScoreUnparsable) {
		t.Fatalf("errors.Is ErrScoreUnparsable: got=%v", err)
	}
	if got := h.count(t); got != 0 {
		t.Fatalf("stored: want=0 got=%d", got)
	}
}

func TestEvaluateZeroFallback(t *testing.T) {
	h := newHarness(t, "Looks fine overall.", Config{ZeroFallback: true})
	out, err := h.p.Evaluate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Submission.Score != 0 || out.Submission.EvaluationResult != constants.ResultRework {
		t.Fatalf("fallback: want=0/Rework got=%v/%s", out.Submission.Score, out.Submission.EvaluationResult)
	}
}

func TestEvaluateClampsScore(t *testing.T) {
	h := newHarness(t, "TOTAL SCORE: 14/10", Config{})
	out, err := h.p.Evaluate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Submission.Score != 10 {
		t.Fatalf("clamped: want=10 got=%v", out.Submission.Score)
	}
}

func TestEvaluateScoringFailure(t *testing.T) {
	h := newHarness(t, "", Config{})
	h.scorer.err = errors.New("upstream 503")
	_, err := h.p.Evaluate(context.Background(), baseRequest())
	if common.CodeOf(err) != common.CodeScoring {
		t.Fatalf("code: want=%s got=%v", common.CodeScoring, err)
	}
	if common.HTTPStatus(err) != 502 {
		t.Fatalf("status: want=502 got=%d", common.HTTPStatus(err))
	}
	if got := h.count(t); got != 0 {
		t.Fatalf("stored: want=0 got=%d", got)
	}
}

func TestEvaluateValidation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Request)
		code string
	}{
		{"no question", func(r *Request) { r.QuestionText = "  " }, common.CodeValidation},
		{"no final output", func(r *Request) { r.FinalOutput = nil }, common.CodeValidation},
		{"blank student", func(r *Request) { r.Session.StudentName = "" }, common.CodeValidation},
		{"final output wrong type", func(r *Request) {
			r.FinalOutput = &extract.Upload{Name: "answer.docx", ContentType: constants.MimeDOCX, Data: []byte("x")}
		}, common.CodeUploadRejected},
		{"final output too large", func(r *Request) {
			r.FinalOutput = &extract.Upload{Name: "big.py", ContentType: constants.MimePython, Data: make([]byte, 11)}
		}, common.CodeUploadRejected},
		{"question file wrong type", func(r *Request) {
			r.QuestionText = ""
			r.QuestionFile = &extract.Upload{Name: "q.png", ContentType: constants.MimePNG, Data: []byte("x")}
		}, common.CodeUploadRejected},
		{"corrupt question file", func(r *Request) {
			r.QuestionText = ""
			r.QuestionFile = &extract.Upload{Name: "q.pdf", ContentType: constants.MimePDF, Data: []byte("garbage")}
		}, common.CodeExtraction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, passingResponse, Config{MaxUploadBytes: 10})
			req := baseRequest()
			req.FinalOutput = &extract.Upload{Name: "s.py", ContentType: constants.MimePython, Data: []byte("x = 1")}
			tc.mut(&req)
			_, err := h.p.Evaluate(context.Background(), req)
			if common.CodeOf(err) != tc.code {
				t.Fatalf("code: want=%s got=%v", tc.code, err)
			}
			if common.HTTPStatus(err) != 400 {
				t.Fatalf("status: want=400 got=%d", common.HTTPStatus(err))
			}
			if h.scorer.calls != 0 {
				t.Fatalf("scorer calls: want=0 got=%d", h.scorer.calls)
			}
		})
	}
}

func TestEvaluateQuestionFromFile(t *testing.T) {
	h := newHarness(t, passingResponse, Config{})
	req := baseRequest()
	req.QuestionText = ""
	req.QuestionFile = &extract.Upload{Name: "q.txt", ContentType: constants.MimeText, Data: []byte("Sort a list")}
	if _, err := h.p.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if h.scorer.last.Question != "Sort a list" {
		t.Fatalf("question: want=%q got=%q", "Sort a list", h.scorer.last.Question)
	}
}

func TestEvaluateSkipsBadSupportingDocs(t *testing.T) {
	h := newHarness(t, passingResponse, Config{})
	req := baseRequest()
	req.Supporting = []extract.Upload{
		{Name: "broken.pdf", ContentType: constants.MimePDF, Data: []byte("not a pdf")},
		{Name: "script.sh", ContentType: "text/x-sh", Data: []byte("echo")},
		{Name: "ok.txt", ContentType: constants.MimeText, Data: []byte("context")},
	}
	out, err := h.p.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(out.Warnings) != 2 {
		t.Fatalf("warnings: want=2 got=%v", out.Warnings)
	}
	if h.scorer.last.SupportingText != "context\n\n" {
		t.Fatalf("supporting text: got=%q", h.scorer.last.SupportingText)
	}
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := Summarize(long)
	if want := strings.Repeat("é", 200) + "..."; got != want {
		t.Fatalf("Summarize long: want len=%d got len=%d", len([]rune(want)), len([]rune(got)))
	}
	if got := Summarize("short"); got != "short..." {
		t.Fatalf("Summarize short: want=%q got=%q", "short...", got)
	}
}
