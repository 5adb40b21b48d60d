package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fairbet-backend/internal/config"
	"fairbet-backend/internal/middleware"
	"fairbet-backend/internal/services"
)

type RouterConfig struct {
	Logger     *slog.Logger
	Config     *config.Config
	GameEngine *services.GameEngine
	Hub        *WebSocketHub
	Tokens     middleware.TokenValidator
	Limiter    middleware.RateLimiter
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
}

func NewRouter(rc RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(rc.Logger))
	router.Use(middleware.RequestLogger(rc.Logger))
	router.Use(middleware.CORS())

	router.GET("/healthz", func(c *gin.Context) {
		if rc.Health != nil {
			if err := rc.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	userHandler := NewUserHandler(rc.GameEngine, rc.Logger)
	gameHandler := NewGameHandler(rc.GameEngine, rc.Logger, rc.Config.ManualCrashEnabled())
	wsHandler := NewWebSocketHandler(rc.GameEngine, rc.Hub, rc.Logger)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(rc.Tokens))
	protected.Use(middleware.RateLimitMiddleware(rc.Limiter, rc.Config, rc.Logger))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.GET("/ws", wsHandler.HandleWebSocket)

		games := protected.Group("/games")
		{
			games.GET("/balance", gameHandler.GetBalance)
			games.GET("/active", gameHandler.GetActiveGames)
			games.GET("/history", gameHandler.GetGameHistory)
			games.GET("/sessions/:id", gameHandler.GetSession)
			games.POST("/verify", gameHandler.Verify)

			dice := games.Group("/dice")
			{
				dice.POST("/play", gameHandler.PlayDice)
			}

			crash := games.Group("/crash")
			{
				crash.POST("/play", gameHandler.PlayCrash)
			}

			mines := games.Group("/mines")
			{
				mines.POST("/start", gameHandler.StartMines)
				mines.POST("/reveal", gameHandler.RevealMine)
				mines.POST("/cashout", gameHandler.CashoutMines)
			}
		}
	}

	if rc.Config.ManualCrashEnabled() {
		crashRounds := NewCrashRoundHandler(rc.GameEngine, rc.Logger)

		internal := router.Group("/internal")
		internal.Use(middleware.InternalAuth(rc.Config.InternalAPIKey))
		{
			internal.GET("/crash/rounds/:id", crashRounds.GetRound)
			internal.POST("/crash/resolve", crashRounds.Resolve)
		}
	}

	return router
}
