package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports whether the engine can reach its two backing stores.
// Postgres holds the ledger; Redis only carries repair jobs, so a Redis
// outage degrades self-healing but payments still flow.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		components := gin.H{"postgres": "up", "redis": "up"}
		healthy := true

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			components["postgres"] = "down"
			healthy = false
		}
		if rdb.Ping(ctx).Err() != nil {
			components["redis"] = "down"
			healthy = false
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"healthy": healthy, "components": components})
	}
}
