package entity

import (
	"time"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

// TimestampLayout is the text format of submissions.timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Submission is one graded attempt, as stored in the submissions table.
type Submission struct {
	ID               int64                      `json:"id"`
	Timestamp        time.Time                  `json:"timestamp"`
	StudentName      string                     `json:"student_name"`
	Institution      string                     `json:"institution"`
	QuestionSummary  string                     `json:"question_summary"`
	Score            float64                    `json:"score"`
	EvaluationResult constants.EvaluationResult `json:"evaluation_result"`
}

// TimestampText renders the timestamp the way it is persisted.
func (s *Submission) TimestampText() string {
	return s.Timestamp.Format(TimestampLayout)
}
