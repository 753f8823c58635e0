// Package auth guards the trainer dashboard with a bcrypt password and
// short-lived HS256 bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
)

const trainerSubject = "trainer"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TrainerAuth checks the trainer password and issues/verifies tokens.
// With an empty password hash every login is refused.
type TrainerAuth struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewTrainerAuth(cfg common.TrainerConfig) *TrainerAuth {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TrainerAuth{
		passwordHash: []byte(cfg.PasswordHash),
		secret:       []byte(cfg.JWTSecret),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Enabled reports whether a trainer password is configured.
func (a *TrainerAuth) Enabled() bool {
	return len(a.passwordHash) > 0 && len(a.secret) > 0
}

// Login verifies password and returns a signed token and its expiry.
func (a *TrainerAuth) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, common.NewAppError(common.CodeUnauthorized, "trainer dashboard is disabled", common.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, common.NewAppError(common.CodeUnauthorized, "incorrect password", common.ErrUnauthorized)
	}

	now := a.now()
	exp := now.Add(a.ttl)
	claims := &Claims{
		Role: trainerSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   trainerSubject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a bearer token and checks signature, expiry and role.
func (a *TrainerAuth) Verify(tokenString string) (*Claims, error) {
	if !a.Enabled() {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Role != trainerSubject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword is used by operators to produce TRAINER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}
