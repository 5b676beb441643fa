package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mailkeeper/mailkeeper/internal/middleware"
	"github.com/mailkeeper/mailkeeper/internal/modules/auth"
	"github.com/mailkeeper/mailkeeper/internal/modules/backup"
	"github.com/mailkeeper/mailkeeper/internal/modules/health"
	"github.com/mailkeeper/mailkeeper/internal/modules/subscription"
	pkgmail "github.com/mailkeeper/mailkeeper/internal/pkg/mail"
	pkgredis "github.com/mailkeeper/mailkeeper/internal/pkg/redis"
	"github.com/mailkeeper/mailkeeper/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client) error {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFoundMsg(c, "not found")
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"ok":      0,
			"code":    http.StatusMethodNotAllowed,
			"message": "method not allowed",
		})
	})

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	appInfo := gin.H{
		"name":    "mailkeeper",
		"version": "1.0.0",
	}

	api := r.Group("/api/v2")
	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	// Subscription lifecycle
	sender := pkgmail.New(pkgmail.BuildConfig(a.cfg))
	subSvc := subscription.NewService(a.db, sender, a.cfg, a.logger)
	subscription.NewHandler(subSvc, a.cfg, a.logger).RegisterRoutes(api, authMW)

	// Admin auth
	authSvc, err := auth.NewService(a.cfg, a.logger)
	if err != nil {
		return err
	}
	auth.NewHandler(authSvc).RegisterRoutes(api)

	// Scheduled subscriber dumps
	backupSvc, err := backup.NewService(a.cfg, subSvc, a.logger)
	if err != nil {
		return err
	}
	a.sched.Register(backupSvc.Job())

	// Liveness probe and cron view
	health.RegisterRoutes(r.Group(""), api, a.db, rc, a.sched, authMW)

	return nil
}
