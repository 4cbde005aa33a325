package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/campus-qa/backend/internal/middleware"
	"github.com/emilythestrangee/campus-qa/backend/internal/qa"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, qa.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, qa.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, qa.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, qa.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Storage failures are logged
// and their details withheld from the client, but still flagged retryable.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		body["error"] = "Internal server error"
	}
	if qa.Retryable(err) {
		body["retryable"] = true
	}
	c.JSON(status, body)
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return userID, true
}
