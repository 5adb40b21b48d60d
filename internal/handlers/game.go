package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fairbet-backend/internal/models"
	"fairbet-backend/internal/services"
)

type GameHandler struct {
	gameEngine *services.GameEngine
	logger     *slog.Logger
	// manualCrash is set when a live crash layer can resolve manual rounds.
	manualCrash bool
}

func NewGameHandler(gameEngine *services.GameEngine, logger *slog.Logger, manualCrash bool) *GameHandler {
	return &GameHandler{
		gameEngine:  gameEngine,
		logger:      logger,
		manualCrash: manualCrash,
	}
}

func (h *GameHandler) PlayDice(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.DicePlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.gameEngine.PlayDice(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) PlayCrash(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.CrashPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.AutoCashout == nil && !h.manualCrash {
		respondError(c, h.logger, models.NewValidationError("auto_cashout", "is required"))
		return
	}

	result, err := h.gameEngine.PlayCrash(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) StartMines(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.MinesStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.gameEngine.StartMines(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) RevealMine(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.MinesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.gameEngine.RevealMine(c.Request.Context(), userID, req.SessionID, *req.Tile)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) CashoutMines(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.MinesCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.gameEngine.CashoutMines(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) GetSession(c *gin.Context) {
	userID := c.GetInt64("user_id")

	session, err := h.gameEngine.GetSession(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    session,
	})
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	userID := c.GetInt64("user_id")

	wallet, err := h.gameEngine.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": wallet.Response(),
	})
}

func (h *GameHandler) GetActiveGames(c *gin.Context) {
	userID := c.GetInt64("user_id")

	games, err := h.gameEngine.GetActiveSessions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   games,
		"count":   len(games),
	})
}

func (h *GameHandler) GetGameHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(services.DefaultHistoryLimit)), 10, 64)
	if err != nil || limit <= 0 || limit > services.MaxHistoryLimit {
		limit = services.DefaultHistoryLimit
	}

	bets, err := h.gameEngine.GetBetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bets":    bets,
		"count":   len(bets),
	})
}

func (h *GameHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	verification, err := h.gameEngine.Verify(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": verification,
	})
}
