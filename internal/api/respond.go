// internal/api/respond.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "jobtracker/internal/common/errors"
)

type errorBody struct {
	Code    apperrors.ErrorCode    `json:"code"`
	Message string                 `json:"message"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidationFailed, apperrors.ErrCodeAuthSignUpFailed:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeAuthInvalidCredentials, apperrors.ErrCodeAuthRequired:
		return http.StatusUnauthorized
	case apperrors.ErrCodeRemoteCallFailed, apperrors.ErrCodeSearchFailed:
		return http.StatusBadGateway
	case apperrors.ErrCodeRemoteUnavailable, apperrors.ErrCodeAuthUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Only the sanitized user message leaves
// the process.
func (s *Server) fail(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"code":  code,
			"error": err.Error(),
		})
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{
		Code:    code,
		Message: apperrors.UserMessage(err),
		Fields:  apperrors.FieldErrors(err),
	}})
}

// bind decodes the JSON body into obj and reports a malformed body as a
// validation failure.
func (s *Server) bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		s.fail(c, apperrors.NewValidationError([]apperrors.FieldError{
			{Field: "body", Message: "must be a valid JSON object"},
		}))
		return false
	}
	return true
}
