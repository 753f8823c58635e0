// Package session holds per-student submission sessions: identity, the
// arithmetic CAPTCHA and the one-submission rule.
package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
)

// Session is one student's submission context.
type Session struct {
	ID          string    `json:"id"`
	StudentName string    `json:"student_name"`
	Institution string    `json:"institution,omitempty"`
	Submitted   bool      `json:"submitted"`
	CaptchaA    int       `json:"-"`
	CaptchaB    int       `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// CaptchaQuestion renders the current challenge.
func (s *Session) CaptchaQuestion() string {
	return fmt.Sprintf("What is %d + %d?", s.CaptchaA, s.CaptchaB)
}

// CheckCaptcha reports whether answer equals a+b.
func (s *Session) CheckCaptcha(answer string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	return err == nil && n == s.CaptchaA+s.CaptchaB
}

// NewChallenge draws two addends in 1..10.
func NewChallenge() (a, b int) {
	return rand.IntN(10) + 1, rand.IntN(10) + 1
}

// Store persists sessions. ClaimSubmission must be atomic: of two concurrent
// claims on the same session exactly one succeeds.
type Store interface {
	Create(ctx context.Context, studentName, institution string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	// RefreshCaptcha replaces the challenge and returns the updated session.
	RefreshCaptcha(ctx context.Context, id string) (*Session, error)
	// ClaimSubmission marks the session submitted, or fails with CodeAlreadySubmitted.
	ClaimSubmission(ctx context.Context, id string) error
	// ReleaseSubmission undoes a claim after a failed run.
	ReleaseSubmission(ctx context.Context, id string) error
	Close() error
}

func errNotFound(id string) error {
	return common.NewAppError(common.CodeSessionNotFound, fmt.Sprintf("session %s not found or expired", id), common.ErrNotFound)
}

func errAlreadySubmitted() error {
	return common.NewAppError(common.CodeAlreadySubmitted, "this session has already submitted an assignment", common.ErrConflict)
}

func newSession(id, studentName, institution string) *Session {
	a, b := NewChallenge()
	return &Session{
		ID:          id,
		StudentName: strings.TrimSpace(studentName),
		Institution: strings.TrimSpace(institution),
		CaptchaA:    a,
		CaptchaB:    b,
		CreatedAt:   time.Now(),
	}
}
