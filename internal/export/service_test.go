package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
	"github.com/joseph-ayodele/assignment-verifier/internal/repository"
)

func newTestService(t *testing.T) (*Service, repository.SubmissionRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repository.Close(db, logger) })
	repo := repository.NewSubmissionRepository(db, logger)
	return NewService(repo, logger), repo
}

func seed(t *testing.T, repo repository.SubmissionRepository, names ...string) []int64 {
	t.Helper()
	var ids []int64
	for i, n := range names {
		id, err := repo.Add(context.Background(), &entity.Submission{
			Timestamp:        time.Now().Truncate(time.Second),
			StudentName:      n,
			Institution:      "BIA",
			QuestionSummary:  "Write, a \"tricky\" question...",
			Score:            float64(5 + i),
			EvaluationResult: constants.ResultCanImprove,
		})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestCSVReflectsStoreAfterDelete(t *testing.T) {
	svc, repo := newTestService(t)
	ids := seed(t, repo, "Asha", "Ben")
	if err := repo.Delete(context.Background(), ids[0]); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	out, err := svc.CSV(context.Background())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: want=header+1 got=%d", len(records))
	}
	for i, h := range Columns {
		if records[0][i] != h {
			t.Fatalf("header[%d]: want=%s got=%s", i, h, records[0][i])
		}
	}
	row := records[1]
	if row[2] != "Ben" || row[5] != "6.0" || row[6] != "Can Improve" {
		t.Fatalf("row: got=%v", row)
	}
	if row[4] != "Write, a \"tricky\" question..." {
		t.Fatalf("quoting: got=%q", row[4])
	}
}

func TestCSVEmptyStoreHasHeader(t *testing.T) {
	svc, _ := newTestService(t)
	out, err := svc.CSV(context.Background())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	records, _ := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if len(records) != 1 {
		t.Fatalf("records: want=1 got=%d", len(records))
	}
}

func TestXLSX(t *testing.T) {
	svc, repo := newTestService(t)
	seed(t, repo, "Asha", "Ben")

	out, err := svc.XLSX(context.Background())
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Submissions")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: want=3 got=%d", len(rows))
	}
	if rows[0][0] != "ID" || rows[2][2] != "Ben" || rows[2][5] != "6" {
		t.Fatalf("content: got=%v", rows)
	}
}
