package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/entity"
)

const submissionsTable = "submissions"

var submissionColumns = []string{
	"id", "timestamp", "student_name", "institution", "question_summary", "score", "evaluation_result",
}

// SubmissionRepository is the record store for graded submissions.
type SubmissionRepository interface {
	// Add inserts the record and returns its new id.
	Add(ctx context.Context, s *entity.Submission) (int64, error)
	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]*entity.Submission, error)
	// ListSince returns records whose timestamp is at or after since, in insertion order.
	ListSince(ctx context.Context, since time.Time) ([]*entity.Submission, error)
	// Delete removes a record; deleting a missing id is a no-op.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type submissionRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewSubmissionRepository(db *DB, logger *slog.Logger) SubmissionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &submissionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *submissionRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.dialect)
}

func (r *submissionRepository) Add(ctx context.Context, s *entity.Submission) (int64, error) {
	ins := r.builder().Insert(submissionsTable).
		Columns(submissionColumns[1:]...).
		Values(s.TimestampText(), s.StudentName, s.Institution, s.QuestionSummary, s.Score, string(s.EvaluationResult))

	var id int64
	if r.db.dialect == dialect.Postgres {
		query, args := ins.Returning("id").Query()
		var rows entsql.Rows
		if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
			r.logger.Error("failed to insert submission", "error", err)
			return 0, fmt.Errorf("insert submission: %w", err)
		}
		defer rows.Close()
		if !rows.Next() {
			return 0, fmt.Errorf("insert submission: no id returned")
		}
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan submission id: %w", err)
		}
	} else {
		query, args := ins.Query()
		var res entsql.Result
		if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
			r.logger.Error("failed to insert submission", "error", err)
			return 0, fmt.Errorf("insert submission: %w", err)
		}
		last, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("read submission id: %w", err)
		}
		id = last
	}

	s.ID = id
	r.logger.Info("submission stored", "id", id, "student", s.StudentName, "score", s.Score, "result", s.EvaluationResult)
	return id, nil
}

func (r *submissionRepository) ListAll(ctx context.Context) ([]*entity.Submission, error) {
	b := r.builder()
	query, args := b.Select(submissionColumns...).
		From(b.Table(submissionsTable)).
		OrderBy("id").
		Query()
	return r.query(ctx, query, args)
}

func (r *submissionRepository) ListSince(ctx context.Context, since time.Time) ([]*entity.Submission, error) {
	b := r.builder()
	query, args := b.Select(submissionColumns...).
		From(b.Table(submissionsTable)).
		Where(entsql.GTE("timestamp", since.Format(entity.TimestampLayout))).
		OrderBy("id").
		Query()
	return r.query(ctx, query, args)
}

func (r *submissionRepository) query(ctx context.Context, query string, args []any) ([]*entity.Submission, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to list submissions", "error", err)
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*entity.Submission
	for rows.Next() {
		var (
			s      entity.Submission
			ts     string
			result string
		)
		if err := rows.Scan(&s.ID, &ts, &s.StudentName, &s.Institution, &s.QuestionSummary, &s.Score, &result); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		parsed, err := time.ParseInLocation(entity.TimestampLayout, ts, time.Local)
		if err != nil {
			r.logger.Warn("unparsable submission timestamp", "id", s.ID, "timestamp", ts)
		}
		s.Timestamp = parsed
		s.EvaluationResult = constants.EvaluationResult(result)
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

func (r *submissionRepository) Delete(ctx context.Context, id int64) error {
	query, args := r.builder().Delete(submissionsTable).
		Where(entsql.EQ("id", id)).
		Query()
	var res entsql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to delete submission", "id", id, "error", err)
		return fmt.Errorf("delete submission %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.logger.Debug("delete of missing submission ignored", "id", id)
	}
	return nil
}

func (r *submissionRepository) Count(ctx context.Context) (int, error) {
	b := r.builder()
	query, args := b.Select().Count().From(b.Table(submissionsTable)).Query()
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	return n, rows.Err()
}
