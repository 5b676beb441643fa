package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service, *fakeMailer, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	mailer := &fakeMailer{}
	cfg := testConfig()
	svc := NewService(db, mailer, cfg, nil)
	h := NewHandler(svc, cfg, nil)

	r := gin.New()
	api := r.Group("/api/v2")
	noopAuth := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(api, noopAuth)
	return r, svc, mailer, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerSubscribe(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v2/subscribe",
		`{"email":"reader@example.com","fields":{"first_name":"Ada","weekly":true}}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"sent"`)
	assert.Contains(t, w.Body.String(), "sent")
}

func TestHandlerSubscribeResent(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v2/subscribe", `{"email":"reader@example.com"}`)
	w := doJSON(t, r, http.MethodPost, "/api/v2/subscribe", `{"email":"reader@example.com"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"resent"`)
}

func TestHandlerSubscribeConflict(t *testing.T) {
	r, svc, _, db := newTestRouter(t)
	mustSubscribe(t, svc, "reader@example.com")
	mustConfirm(t, svc, db, "reader@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/v2/subscribe", `{"email":"reader@example.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already")
}

func TestHandlerSubscribeMissingEmail(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v2/subscribe", `{"email":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email required")
}

func TestHandlerSubscribeRequiredField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cfg := testConfig()
	cfg.Fields[0].Required = true
	svc := NewService(db, &fakeMailer{}, cfg, nil)
	h := NewHandler(svc, cfg, nil)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v2"), func(c *gin.Context) { c.Next() })

	w := doJSON(t, r, http.MethodPost, "/api/v2/subscribe", `{"email":"reader@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "first_name")

	w = doJSON(t, r, http.MethodPost, "/api/v2/subscribe",
		`{"email":"reader@example.com","fields":{"first_name":"Ada"}}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandlerSubscribeTechnicalError(t *testing.T) {
	r, _, mailer, _ := newTestRouter(t)
	mailer.FailConfirmation = errors.New("smtp exploded")

	w := doJSON(t, r, http.MethodPost, "/api/v2/subscribe", `{"email":"reader@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "technical error")
	assert.NotContains(t, w.Body.String(), "smtp exploded", "internal causes never reach the client")
}

func TestHandlerConfirmAndUnsubscribe(t *testing.T) {
	r, svc, _, db := newTestRouter(t)
	mustSubscribe(t, svc, "reader@example.com")
	sub := fetchSubscriber(t, db, "reader@example.com")

	w := doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/api/v2/subscribe/confirm?key=%s&email=reader%%40example.com", sub.ConfirmKey), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "confirmed")

	w = doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/api/v2/subscribe/unsubscribe?key=%s&email=reader%%40example.com", sub.ConfirmKey), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "unsubscribed")
}

func TestHandlerConfirmBadKey(t *testing.T) {
	r, svc, _, _ := newTestRouter(t)
	mustSubscribe(t, svc, "reader@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/v2/subscribe/confirm?key=wrong&email=reader%40example.com", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot confirm")
}

func TestHandlerStats(t *testing.T) {
	r, svc, _, db := newTestRouter(t)
	mustSubscribe(t, svc, "a@example.com")
	mustConfirm(t, svc, db, "a@example.com")
	mustSubscribe(t, svc, "b@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/v2/subscribers/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.Confirmed)
	assert.EqualValues(t, 1, stats.Unconfirmed)
	assert.EqualValues(t, 0, stats.Unsubscribed)
	assert.EqualValues(t, 2, stats.Total)
}

func TestHandlerList(t *testing.T) {
	r, svc, _, _ := newTestRouter(t)
	_, err := svc.Subscribe(context.Background(), "a@example.com", map[string]interface{}{"first_name": "Ada"})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/v2/subscribers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")
	assert.Contains(t, w.Body.String(), "Ada")
	assert.NotContains(t, w.Body.String(), "confirm_key", "confirm keys never appear in list payloads")
}

func TestHandlerExport(t *testing.T) {
	r, svc, _, db := newTestRouter(t)
	mustSubscribe(t, svc, "a@example.com")
	mustConfirm(t, svc, db, "a@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/v2/subscribers/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "a@example.com")
	assert.Contains(t, w.Body.String(), "unsubscribe_link")
}
