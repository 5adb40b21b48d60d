package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fairbet-backend/internal/models"
)

// respondError maps an engine error onto a status code and writes it.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body["field"] = verr.Field
	case models.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case models.IsSessionState(err):
		status = http.StatusConflict
	case models.IsRetryable(err):
		status = http.StatusConflict
		body["retryable"] = true
	case errors.Is(err, models.ErrConfigMissing):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err))
		body["error"] = "internal error"
	}

	c.JSON(status, body)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}
