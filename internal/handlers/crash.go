package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fairbet-backend/internal/models"
	"fairbet-backend/internal/services"
)

// CrashRoundHandler serves the live crash layer. Its routes sit behind the
// internal key and are never reachable with a player token.
type CrashRoundHandler struct {
	gameEngine *services.GameEngine
	logger     *slog.Logger
}

func NewCrashRoundHandler(gameEngine *services.GameEngine, logger *slog.Logger) *CrashRoundHandler {
	return &CrashRoundHandler{
		gameEngine: gameEngine,
		logger:     logger,
	}
}

func (h *CrashRoundHandler) GetRound(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(c, h.logger, models.NewValidationError("user_id", "must be a positive integer"))
		return
	}

	round, err := h.gameEngine.CrashRound(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"round":   round,
	})
}

func (h *CrashRoundHandler) Resolve(c *gin.Context) {
	var req models.CrashResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.gameEngine.ResolveCrash(c.Request.Context(), req.UserID, req.SessionID, req.CashoutAt)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("crash round resolved",
		slog.Int64("user_id", req.UserID),
		slog.String("session_id", req.SessionID),
		slog.String("result", string(result.Result)),
		slog.Float64("payout", result.Payout))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}
