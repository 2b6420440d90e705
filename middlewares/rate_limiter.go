package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/services"
)

// PersistedRateLimiter membatasi request per client IP memakai counter yang
// dipersist di database, supaya limit tetap konsisten saat app jalan lebih
// dari satu instance.
func PersistedRateLimiter(db *gorm.DB, action string, limit int, window time.Duration) gin.HandlerFunc {
	limiter := services.NewRateLimiter(db)
	return func(c *gin.Context) {
		if err := limiter.CheckDefault(c.ClientIP(), action, limit, window); err != nil {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

// NewStrictRateLimiter untuk endpoint login/register
func NewStrictRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(1*time.Minute), 5) // 5 requests per menit

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts, please wait",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
