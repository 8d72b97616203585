package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"breakfit/domain/core"
	apperrors "breakfit/internal/errors"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps an error chain to its HTTP status
func statusFor(err error) int {
	if core.IsNotFoundError(err) {
		return http.StatusNotFound
	}
	if core.IsInputError(err) {
		return http.StatusBadRequest
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch apperrors.GetCode(err) {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput, apperrors.CodeValidationError, apperrors.CodeConfigInvalid:
		return http.StatusBadRequest
	case apperrors.CodeFitFailed, apperrors.CodeNumerical:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	if core.IsNotFoundError(err) {
		return apperrors.CodeNotFound
	}
	if core.IsInputError(err) {
		return apperrors.CodeInvalidInput
	}
	return apperrors.GetCode(err)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Code: codeFor(err)})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: message, Code: apperrors.CodeInvalidInput})
}
