package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fairbet-backend/internal/config"
	"fairbet-backend/internal/services"
)

// TokenValidator turns a bearer token into the caller's claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// RateLimiter counts calls per user and action within a fixed window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error)
}

// InternalKeyHeader carries the shared key of trusted in-cluster callers.
const InternalKeyHeader = "X-Internal-Key"

// InternalAuth admits only callers presenting the shared internal key.
func InternalAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(InternalKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid internal key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			// Browsers cannot set headers on a websocket upgrade.
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}

// RateLimitMiddleware limits bet-placing and reveal routes per user. Other
// routes pass through.
func RateLimitMiddleware(limiter RateLimiter, cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}

		path := c.Request.URL.Path

		var action string
		var limit int

		switch {
		case strings.HasSuffix(path, "/dice/play"),
			strings.HasSuffix(path, "/crash/play"),
			strings.HasSuffix(path, "/mines/start"):
			action = "bet"
			limit = cfg.BetRateLimit
		case strings.HasSuffix(path, "/mines/reveal"),
			strings.HasSuffix(path, "/mines/cashout"):
			action = "reveal"
			limit = cfg.RevealRateLimit
		default:
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), userID.(int64), action, limit, cfg.RateLimitWindow)
		if err != nil {
			logger.Error("rate limit check failed",
				slog.Int64("user_id", userID.(int64)),
				slog.String("action", action),
				slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": cfg.RateLimitWindow.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
