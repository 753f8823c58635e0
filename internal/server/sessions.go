package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/session"
)

const maxNameLength = 100

type SessionHandler struct {
	store  session.Store
	logger *slog.Logger
}

func NewSessionHandler(store session.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger.With("handler", "session")}
}

type createSessionRequest struct {
	StudentName string `json:"student_name"`
	Institution string `json:"institution"`
}

type sessionResponse struct {
	ID              string    `json:"id"`
	StudentName     string    `json:"student_name"`
	Institution     string    `json:"institution,omitempty"`
	Submitted       bool      `json:"submitted"`
	CaptchaQuestion string    `json:"captcha_question"`
	CreatedAt       time.Time `json:"created_at"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		StudentName:     s.StudentName,
		Institution:     s.Institution,
		Submitted:       s.Submitted,
		CaptchaQuestion: s.CaptchaQuestion(),
		CreatedAt:       s.CreatedAt,
	}
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, common.ValidationFailed(common.CodeValidation, "request body must be JSON"))
		return
	}
	v := common.NewValidator().
		Field("student_name", req.StudentName, common.Required, common.MaxLength(maxNameLength)).
		Field("institution", req.Institution, common.MaxLength(maxNameLength))
	if err := common.ValidateAndReturnError(v); err != nil {
		RespondError(c, err)
		return
	}

	s, err := h.store.Create(c.Request.Context(), req.StudentName, req.Institution)
	if err != nil {
		h.logger.Error("session.create.failed", "error", err)
		RespondError(c, err)
		return
	}
	h.logger.Info("session.create.ok", "session_id", s.ID)
	c.JSON(http.StatusCreated, toSessionResponse(s))
}

// Get handles GET /api/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	s, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, toSessionResponse(s))
}

// RefreshCaptcha handles POST /api/sessions/:id/captcha.
func (h *SessionHandler) RefreshCaptcha(c *gin.Context) {
	s, err := h.store.RefreshCaptcha(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"captcha_question": s.CaptchaQuestion()})
}
