package handlers

import (
	"errors"
	"net/http"

	"finance_tracker/internal/apperr"

	"github.com/gin-gonic/gin"
)

const (
	errInternal      = "Internal server error"
	errInvalidBody   = "Invalid request body: "
	errInvalidQuery  = "Invalid query parameters: "
	errInvalidID     = "Invalid id"
	errNotAuthorized = "Not authenticated"
	errBadAuthHeader = "Invalid Authorization header format"
)

// statusFor maps service error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Debugw(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"detail": userMsg})
}

// fail writes err as a {"detail": ...} response. Storage and other
// unexpected errors become a generic 500.
func (h *Handler) fail(c *gin.Context, err error, logKey string, kv ...interface{}) {
	code := statusFor(err)
	msg := apperr.Detail(err, errInternal)
	if code == http.StatusInternalServerError {
		msg = errInternal
	}
	h.logAndJSONError(c, code, msg, logKey, err, kv...)
}

// unauthorizedMsg is the detail for a failed access-token check.
func unauthorizedMsg(err error) string {
	return apperr.Detail(err, errNotAuthorized)
}
