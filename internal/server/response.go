package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/assignment-verifier/internal/common"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err as a JSON envelope with the status derived from its
// sentinel cause. Internal causes are not echoed to the client.
func RespondError(c *gin.Context, err error) {
	respondErrorDetails(c, err, nil)
}

func respondErrorDetails(c *gin.Context, err error, details any) {
	status := common.HTTPStatus(err)
	code := common.CodeOf(err)
	msg := "unknown error"
	var ae *common.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	} else if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError && code == "" {
		msg = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: msg, Code: code, Details: details},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
