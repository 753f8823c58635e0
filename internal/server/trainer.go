package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/auth"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/dashboard"
	"github.com/joseph-ayodele/assignment-verifier/internal/export"
	"github.com/joseph-ayodele/assignment-verifier/internal/repository"
)

const exportStamp = "20060102_150405"

type TrainerHandler struct {
	auth      *auth.TrainerAuth
	repo      repository.SubmissionRepository
	dashboard *dashboard.Service
	exports   *export.Service
	logger    *slog.Logger
}

func NewTrainerHandler(
	a *auth.TrainerAuth,
	repo repository.SubmissionRepository,
	dash *dashboard.Service,
	exports *export.Service,
	logger *slog.Logger,
) *TrainerHandler {
	return &TrainerHandler{
		auth:      a,
		repo:      repo,
		dashboard: dash,
		exports:   exports,
		logger:    logger.With("handler", "trainer"),
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/trainer/login.
func (h *TrainerHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		RespondError(c, common.ValidationFailed(common.CodeValidation, "password is required"))
		return
	}
	token, exp, err := h.auth.Login(req.Password)
	if err != nil {
		h.logger.Warn("trainer.login.failed", "error", err)
		RespondError(c, err)
		return
	}
	h.logger.Info("trainer.login.ok", "expires_at", exp)
	RespondOK(c, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

// List handles GET /api/trainer/submissions.
func (h *TrainerHandler) List(c *gin.Context) {
	rows, err := h.dashboard.List(c.Request.Context())
	if err != nil {
		RespondError(c, common.NewAppError(common.CodeStore, "failed to list submissions", fmt.Errorf("%w: %w", common.ErrDatabase, err)))
		return
	}
	RespondOK(c, gin.H{"submissions": rows, "count": len(rows)})
}

// Delete handles DELETE /api/trainer/submissions/:id. Missing ids are not an error.
func (h *TrainerHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, common.ValidationFailed(common.CodeValidation, "id must be a positive integer"))
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, common.NewAppError(common.CodeStore, "failed to delete submission", fmt.Errorf("%w: %w", common.ErrDatabase, err)))
		return
	}
	h.logger.Info("trainer.submission.deleted", "id", id)
	c.Status(http.StatusNoContent)
}

// ExportCSV handles GET /api/trainer/submissions/export.csv.
func (h *TrainerHandler) ExportCSV(c *gin.Context) {
	b, err := h.exports.CSV(c.Request.Context())
	if err != nil {
		RespondError(c, common.NewAppError(common.CodeStore, "failed to export submissions", fmt.Errorf("%w: %w", common.ErrDatabase, err)))
		return
	}
	attachment(c, "submissions_"+time.Now().Format(exportStamp)+".csv", constants.MimeCSV+"; charset=utf-8", b)
}

// ExportXLSX handles GET /api/trainer/submissions/export.xlsx.
func (h *TrainerHandler) ExportXLSX(c *gin.Context) {
	b, err := h.exports.XLSX(c.Request.Context())
	if err != nil {
		RespondError(c, common.NewAppError(common.CodeStore, "failed to export submissions", fmt.Errorf("%w: %w", common.ErrDatabase, err)))
		return
	}
	attachment(c, "submissions_"+time.Now().Format(exportStamp)+".xlsx", constants.MimeXLSX, b)
}

// Analytics handles GET /api/trainer/analytics.
func (h *TrainerHandler) Analytics(c *gin.Context) {
	a, err := h.dashboard.Analytics(c.Request.Context())
	if err != nil {
		RespondError(c, common.NewAppError(common.CodeStore, "failed to compute analytics", fmt.Errorf("%w: %w", common.ErrDatabase, err)))
		return
	}
	RespondOK(c, a)
}

// Chart handles GET /api/trainer/analytics/chart.png.
func (h *TrainerHandler) Chart(c *gin.Context) {
	png, err := h.dashboard.ChartPNG(c.Request.Context())
	if err != nil {
		RespondError(c, common.NewAppError(common.CodeInternal, "failed to render chart", fmt.Errorf("%w: %w", common.ErrInternal, err)))
		return
	}
	c.Data(http.StatusOK, constants.MimePNG, png)
}

func attachment(c *gin.Context, name, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, body)
}
