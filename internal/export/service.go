package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
	"github.com/joseph-ayodele/assignment-verifier/internal/feedback"
	"github.com/joseph-ayodele/assignment-verifier/internal/repository"
)

// Columns is the header row shared by the CSV and XLSX exports.
var Columns = []string{
	"ID",
	"Timestamp",
	"Student Name",
	"Institution",
	"Question Summary",
	"Score",
	"Evaluation Result",
}

// Service produces on-demand exports of the submission store.
type Service struct {
	repo   repository.SubmissionRepository
	logger *slog.Logger
}

func NewService(repo repository.SubmissionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func record(s *entity.Submission) []string {
	return []string{
		fmt.Sprintf("%d", s.ID),
		s.TimestampText(),
		s.StudentName,
		s.Institution,
		s.QuestionSummary,
		feedback.FormatScore(s.Score),
		string(s.EvaluationResult),
	}
}

// CSV returns every stored submission as CSV, header first, in insertion order.
func (s *Service) CSV(ctx context.Context) ([]byte, error) {
	start := time.Now()
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for _, sub := range subs {
		if err := w.Write(record(sub)); err != nil {
			return nil, fmt.Errorf("csv row %d: %w", sub.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	s.logger.Info("export.csv.ok",
		"rows", len(subs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// XLSX returns the same rows as CSV in a workbook with a single
// "Submissions" sheet. Score is written as a number.
func (s *Service) XLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Submissions"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	row := 2
	for _, sub := range subs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, sub.ID)
		write(2, sub.TimestampText())
		write(3, sub.StudentName)
		write(4, sub.Institution)
		write(5, sub.QuestionSummary)
		write(6, sub.Score)
		write(7, string(sub.EvaluationResult))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)  // id
	_ = f.SetColWidth(sheet, "B", "B", 20) // timestamp
	_ = f.SetColWidth(sheet, "C", "D", 24) // student, institution
	_ = f.SetColWidth(sheet, "E", "E", 60) // question summary
	_ = f.SetColWidth(sheet, "F", "F", 8)  // score
	_ = f.SetColWidth(sheet, "G", "G", 18) // result

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(subs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
