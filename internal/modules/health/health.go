package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mailkeeper/mailkeeper/internal/pkg/cron"
	"github.com/mailkeeper/mailkeeper/internal/pkg/redis"
	"github.com/mailkeeper/mailkeeper/internal/pkg/response"
	"gorm.io/gorm"
)

// RegisterRoutes wires the public liveness probe at the root and the admin
// cron view under the versioned API.
func RegisterRoutes(root, api *gin.RouterGroup, db *gorm.DB, rdb *redis.Client, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	root.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbOK := pingDB(db)
		redisOK := rdb != nil && rdb.Ping(ctx) == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK || !redisOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbOK,
			"redis":    redisOK,
		})
	})

	cronGroup := api.Group("/health/cron", authMW)
	{
		cronGroup.GET("", func(c *gin.Context) {
			items := sched.List()
			byName := make(map[string]cron.ListItem, len(items))
			for _, item := range items {
				byName[item.Name] = item
			}
			response.OK(c, byName)
		})

		cronGroup.POST("/run/:name", func(c *gin.Context) {
			if err := sched.Run(c.Request.Context(), c.Param("name")); err != nil {
				response.NotFoundMsg(c, err.Error())
				return
			}
			response.OK(c, gin.H{"message": "job triggered"})
		})
	}
}

func pingDB(db *gorm.DB) bool {
	if db == nil {
		return false
	}
	sqlDB, err := db.DB()
	return err == nil && sqlDB.Ping() == nil
}
