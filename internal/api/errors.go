package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shortlink/internal/accounts"
	"shortlink/internal/shortener"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Path       string `json:"path"`
	Timestamp  string `json:"timestamp"`
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		StatusCode: status,
		Error:      message,
		Path:       c.Request.URL.Path,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps service errors onto HTTP statuses. Anything unrecognised
// is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shortener.ErrInvalidURL),
		errors.Is(err, accounts.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shortener.ErrNotFound),
		errors.Is(err, accounts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server faults are logged
// with their cause and answered with a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request error", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		message := "internal server error"
		if errors.Is(err, shortener.ErrCollisionExhausted) {
			message = "unable to allocate a unique short code, please retry"
		}
		writeError(c, status, message)
		return
	}
	writeError(c, status, err.Error())
}
