package dashboard

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
	"github.com/joseph-ayodele/assignment-verifier/internal/repository"
)

func sub(name string, score float64, ts time.Time) *entity.Submission {
	return &entity.Submission{
		Timestamp:        ts,
		StudentName:      name,
		Score:            score,
		EvaluationResult: labelFor(score),
	}
}

func labelFor(score float64) constants.EvaluationResult {
	switch {
	case score >= 6:
		return constants.ResultPass
	case score >= 4:
		return constants.ResultCanImprove
	}
	return constants.ResultRework
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	subs := []*entity.Submission{
		sub("old", 9.5, time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)),
		sub("edge", 5, time.Date(2025, 6, 8, 0, 30, 0, 0, time.Local)),
		sub("a", 7, time.Date(2025, 6, 14, 9, 0, 0, 0, time.Local)),
		sub("b", 3, time.Date(2025, 6, 14, 11, 0, 0, 0, time.Local)),
		sub("c", 7, time.Date(2025, 6, 15, 8, 0, 0, 0, time.Local)),
	}
	var week []*entity.Submission
	for _, s := range subs {
		if !s.Timestamp.Before(WeekStart(now)) {
			week = append(week, s)
		}
	}
	a := Summarize(subs, week)

	if a.Total != 5 {
		t.Fatalf("total: got=%d", a.Total)
	}
	wantDates := []DailyCount{{"2025-06-01", 1}, {"2025-06-08", 1}, {"2025-06-14", 2}, {"2025-06-15", 1}}
	if len(a.ByDate) != len(wantDates) {
		t.Fatalf("by date: got=%v", a.ByDate)
	}
	for i := range wantDates {
		if a.ByDate[i] != wantDates[i] {
			t.Fatalf("by date[%d]: want=%v got=%v", i, wantDates[i], a.ByDate[i])
		}
	}
	wantResults := map[constants.EvaluationResult]int{constants.ResultPass: 3, constants.ResultCanImprove: 1, constants.ResultRework: 1}
	for _, rc := range a.ByResult {
		if rc.Count != wantResults[rc.Result] {
			t.Fatalf("by result %s: want=%d got=%d", rc.Result, wantResults[rc.Result], rc.Count)
		}
	}

	// "old" falls outside the window; ties keep insertion order.
	wantBoard := []string{"a", "c", "edge", "b"}
	if len(a.Leaderboard) != len(wantBoard) {
		t.Fatalf("leaderboard: got=%v", a.Leaderboard)
	}
	for i, name := range wantBoard {
		if a.Leaderboard[i].StudentName != name || a.Leaderboard[i].Rank != i+1 {
			t.Fatalf("leaderboard[%d]: want=%s got=%+v", i, name, a.Leaderboard[i])
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	a := Summarize(nil, nil)
	if a.Total != 0 || a.AverageScore != 0 || len(a.ByDate) != 0 || len(a.Leaderboard) != 0 {
		t.Fatalf("empty: got=%+v", a)
	}
	if len(a.ByResult) != 3 {
		t.Fatalf("by result always lists every label: got=%v", a.ByResult)
	}
}

func TestRowsSerialNumbers(t *testing.T) {
	rows := Rows([]*entity.Submission{{ID: 10}, {ID: 42}})
	if rows[0].SerialNo != 1 || rows[1].SerialNo != 2 || rows[1].ID != 42 {
		t.Fatalf("rows: got=%+v", rows)
	}
}

func TestChartPNG(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repository.Close(db, logger)
	repo := repository.NewSubmissionRepository(db, logger)
	if _, err := repo.Add(context.Background(), sub("a", 8, time.Now().Truncate(time.Second))); err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := NewService(repo, logger).ChartPNG(context.Background())
	if err != nil {
		t.Fatalf("ChartPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != ChartWidth || b.Dy() != ChartHeight {
		t.Fatalf("size: got=%v", b)
	}
}

func TestRenderChartEmpty(t *testing.T) {
	if _, err := RenderChart(Summarize(nil, nil), 320, 200); err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
}

func TestServiceAnalyticsLeaderboardFromStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repository.Close(db, logger)
	repo := repository.NewSubmissionRepository(db, logger)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	for _, s := range []*entity.Submission{
		sub("old", 9.5, time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)),
		sub("edge", 5, time.Date(2025, 6, 8, 0, 30, 0, 0, time.Local)),
		sub("a", 7, time.Date(2025, 6, 14, 9, 0, 0, 0, time.Local)),
	} {
		if _, err := repo.Add(ctx, s); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	svc := NewService(repo, logger)
	svc.now = func() time.Time { return now }
	a, err := svc.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.Total != 3 {
		t.Fatalf("total: want=3 got=%d", a.Total)
	}
	want := []string{"a", "edge"}
	if len(a.Leaderboard) != len(want) {
		t.Fatalf("leaderboard: want=%v got=%+v", want, a.Leaderboard)
	}
	for i, name := range want {
		if a.Leaderboard[i].StudentName != name {
			t.Fatalf("leaderboard[%d]: want=%s got=%s", i, name, a.Leaderboard[i].StudentName)
		}
	}
}
