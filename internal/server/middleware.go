package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/assignment-verifier/internal/auth"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
)

const headerRequestID = "X-Request-Id"

// RequestID reuses the caller's X-Request-Id or mints one, and stores it on
// the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"req_id", common.RequestIDFromContext(ctx),
		}
		if id := common.SessionIDFromContext(ctx); id != "" {
			attrs = append(attrs, "session_id", id)
		}
		if trainer, ok := common.TrainerFromContext(ctx); ok {
			attrs = append(attrs, "trainer", trainer)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.Last().Error())
		}

		switch {
		case status >= 500:
			logger.Error("http.request", attrs...)
		case status >= 400:
			logger.Warn("http.request", attrs...)
		default:
			logger.Info("http.request", attrs...)
		}
	}
}

func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", headerRequestID},
		ExposeHeaders:    []string{"Content-Disposition", headerRequestID},
		AllowCredentials: true,
	})
}

// RequireTrainer rejects requests without a valid trainer bearer token.
func RequireTrainer(a *auth.TrainerAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondError(c, common.NewAppError(common.CodeUnauthorized, "missing or invalid token", common.ErrUnauthorized))
			return
		}
		claims, err := a.Verify(token)
		if err != nil {
			RespondError(c, common.NewAppError(common.CodeUnauthorized, err.Error(), common.ErrUnauthorized))
			return
		}
		c.Request = c.Request.WithContext(common.WithTrainer(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func noRoute(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorEnvelope{
		Error: APIError{Message: "route not found", Code: common.CodeNotFound},
	})
}
