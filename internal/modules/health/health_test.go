package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mailkeeper/mailkeeper/internal/pkg/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T, sched *cron.Scheduler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group(""), r.Group("/api/v2"), db, nil, sched, func(c *gin.Context) { c.Next() })
	return r
}

func TestHealthDegradedWithoutRedis(t *testing.T) {
	r := newTestRouter(t, cron.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":true`)
	assert.Contains(t, w.Body.String(), `"redis":false`)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestCronListAndRun(t *testing.T) {
	sched := cron.New()
	ran := false
	sched.Register(cron.Job{
		Name:        "subscriber_backup",
		Description: "test job",
		Interval:    time.Hour,
		Fn: func(context.Context) error {
			ran = true
			return nil
		},
	})
	r := newTestRouter(t, sched)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/health/cron", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "subscriber_backup")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/health/cron/run/subscriber_backup", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ran)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/health/cron/run/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCronRunFailure(t *testing.T) {
	sched := cron.New()
	sched.Register(cron.Job{
		Name:     "broken",
		Interval: time.Hour,
		Fn: func(context.Context) error {
			return errors.New("boom")
		},
	})
	r := newTestRouter(t, sched)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/health/cron/run/broken", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "boom")
}
