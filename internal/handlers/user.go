package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fairbet-backend/internal/services"
)

type UserHandler struct {
	gameEngine *services.GameEngine
	logger     *slog.Logger
}

func NewUserHandler(gameEngine *services.GameEngine, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		gameEngine: gameEngine,
		logger:     logger,
	}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	wallet, err := h.gameEngine.GetBalance(c.Request.Context(), userID.(int64))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	active, err := h.gameEngine.GetActiveSessions(c.Request.Context(), userID.(int64))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"session_id":   c.GetString("session_id"),
		"wallet":       wallet.Response(),
		"active_games": len(active),
	})
}
