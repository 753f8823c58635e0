// Package dashboard computes the trainer's submission analytics.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
	"github.com/joseph-ayodele/assignment-verifier/internal/repository"
)

// LeaderboardWindow is how far back the weekly leaderboard looks, in days.
const LeaderboardWindow = 7

type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type ResultCount struct {
	Result constants.EvaluationResult `json:"result"`
	Count  int                        `json:"count"`
}

type LeaderboardEntry struct {
	Rank             int                        `json:"rank"`
	StudentName      string                     `json:"student_name"`
	Institution      string                     `json:"institution,omitempty"`
	Score            float64                    `json:"score"`
	EvaluationResult constants.EvaluationResult `json:"evaluation_result"`
	Timestamp        string                     `json:"timestamp"`
}

// Row is one submission as shown in the dashboard table.
type Row struct {
	SerialNo int `json:"sl_no"`
	*entity.Submission
}

type Analytics struct {
	Total        int                `json:"total"`
	AverageScore float64            `json:"average_score"`
	ByDate       []DailyCount       `json:"by_date"`
	ByResult     []ResultCount      `json:"by_result"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}

// Rows numbers submissions 1..n in the order given.
func Rows(subs []*entity.Submission) []Row {
	out := make([]Row, len(subs))
	for i, s := range subs {
		out[i] = Row{SerialNo: i + 1, Submission: s}
	}
	return out
}

// Summarize groups subs by calendar date and by result, and ranks week, the
// submissions of the last LeaderboardWindow days, by score, highest first.
func Summarize(subs, week []*entity.Submission) Analytics {
	a := Analytics{Total: len(subs), ByDate: []DailyCount{}, Leaderboard: []LeaderboardEntry{}}

	byDate := map[string]int{}
	byResult := map[constants.EvaluationResult]int{}
	var sum float64
	for _, s := range subs {
		byDate[s.Timestamp.Format("2006-01-02")]++
		byResult[s.EvaluationResult]++
		sum += s.Score
	}
	if len(subs) > 0 {
		a.AverageScore = sum / float64(len(subs))
	}

	for d, n := range byDate {
		a.ByDate = append(a.ByDate, DailyCount{Date: d, Count: n})
	}
	sort.Slice(a.ByDate, func(i, j int) bool { return a.ByDate[i].Date < a.ByDate[j].Date })

	for _, r := range constants.AllResults {
		a.ByResult = append(a.ByResult, ResultCount{Result: r, Count: byResult[r]})
	}

	a.Leaderboard = Leaderboard(week)
	return a
}

// Leaderboard ranks subs by score, highest first. Ties keep the given order.
func Leaderboard(subs []*entity.Submission) []LeaderboardEntry {
	ranked := make([]*entity.Submission, len(subs))
	copy(ranked, subs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	out := make([]LeaderboardEntry, 0, len(ranked))
	for i, s := range ranked {
		out = append(out, LeaderboardEntry{
			Rank:             i + 1,
			StudentName:      s.StudentName,
			Institution:      s.Institution,
			Score:            s.Score,
			EvaluationResult: s.EvaluationResult,
			Timestamp:        s.TimestampText(),
		})
	}
	return out
}

// WeekStart is midnight, LeaderboardWindow days before now.
func WeekStart(now time.Time) time.Time {
	d := now.AddDate(0, 0, -LeaderboardWindow)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
}

// Service reads the store and produces analytics and charts.
type Service struct {
	repo   repository.SubmissionRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo repository.SubmissionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// List returns every submission with serial numbers, in insertion order.
func (s *Service) List(ctx context.Context) ([]Row, error) {
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return Rows(subs), nil
}

func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("list submissions: %w", err)
	}
	week, err := s.repo.ListSince(ctx, WeekStart(s.now()))
	if err != nil {
		return Analytics{}, fmt.Errorf("list weekly submissions: %w", err)
	}
	a := Summarize(subs, week)
	s.logger.Debug("dashboard.analytics", "total", a.Total, "days", len(a.ByDate), "leaderboard", len(a.Leaderboard))
	return a, nil
}

// ChartPNG renders the analytics as a PNG bar chart.
func (s *Service) ChartPNG(ctx context.Context) ([]byte, error) {
	a, err := s.Analytics(ctx)
	if err != nil {
		return nil, err
	}
	return RenderChart(a, ChartWidth, ChartHeight)
}
