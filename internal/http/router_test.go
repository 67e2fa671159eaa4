package http

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/notion-ai-webhook/internal/automation"
	httpH "github.com/yungbote/notion-ai-webhook/internal/http/handlers"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

type recordingSubmitter struct {
	got []automation.Trigger
}

func (s *recordingSubmitter) Submit(_ context.Context, t automation.Trigger) (uuid.UUID, error) {
	s.got = append(s.got, t)
	return uuid.New(), nil
}

func newTestRouter(token string, sub httpH.Submitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Log:            logger.NewNop(),
		Metrics:        observability.NewMetrics(prometheus.NewRegistry()),
		WebhookToken:   token,
		WebhookHandler: httpH.NewWebhookHandler(httpH.WebhookHandlerDeps{Runner: sub}),
		HealthHandler:  httpH.NewHealthHandler(),
	})
}

func TestRouterRoutesEveryKind(t *testing.T) {
	sub := &recordingSubmitter{}
	r := newTestRouter("", sub)

	for _, kind := range automation.Kinds {
		req := httptest.NewRequest(nethttp.MethodPost, "/webhooks/"+string(kind), strings.NewReader(`{"data":{"id":"page"}}`))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, nethttp.StatusOK, rec.Code, kind)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	}
	require.Len(t, sub.got, 3)
	assert.Equal(t, automation.KindDiary, sub.got[0].Kind)
	assert.Equal(t, automation.KindReview, sub.got[1].Kind)
	assert.Equal(t, automation.KindWeeklyReport, sub.got[2].Kind)
}

func TestRouterTokenCheckedBeforeBody(t *testing.T) {
	sub := &recordingSubmitter{}
	r := newTestRouter("tok", sub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/webhooks/diary", strings.NewReader("garbage")))
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(nethttp.MethodPost, "/webhooks/diary", strings.NewReader(`{"data":{"id":"p"}}`))
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Len(t, sub.got, 1)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestRouter("tok", &recordingSubmitter{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil))
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "naw_http_requests_total")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/webhooks/diary", nil))
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}
