package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/gin-gonic/gin"
)

// Error codes carried in {success:false, error:{code, message}}.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeValidation          = "VALIDATION_ERROR"
	CodeMissingToken        = "MISSING_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenMissingSubject = "TOKEN_MISSING_SUBJECT"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeNotFound            = "NOT_FOUND"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
)

func respond(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// errorStatus maps a service error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, CodeInvalidToken
	case errors.Is(err, common.ErrTokenMissingSubject):
		return http.StatusUnauthorized, CodeTokenMissingSubject
	case errors.Is(err, common.ErrUserNotFound):
		return http.StatusUnauthorized, CodeUserNotFound
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, CodeInvalidCredentials
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusBadRequest, CodeAlreadyExists
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError renders err. Internal errors are logged and replaced with a
// generic message.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, code := errorStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed",
			"path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
		msg = "internal error"
	}

	fail(c, status, code, msg)
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
}
