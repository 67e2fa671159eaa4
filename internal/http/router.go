package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/notion-ai-webhook/internal/automation"
	httpH "github.com/yungbote/notion-ai-webhook/internal/http/handlers"
	httpMW "github.com/yungbote/notion-ai-webhook/internal/http/middleware"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string

	// WebhookToken guards the trigger routes when non-empty.
	WebhookToken string

	WebhookHandler *httpH.WebhookHandler
	RunsHandler    *httpH.RunsHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Webhooks
	if cfg.WebhookHandler != nil {
		hooks := r.Group("/webhooks")
		hooks.Use(httpMW.WebhookAuth(cfg.WebhookToken))
		for _, kind := range automation.Kinds {
			hooks.POST("/"+string(kind), cfg.WebhookHandler.Trigger(kind))
		}
	}

	// Run ledger
	if cfg.RunsHandler != nil {
		api := r.Group("/api")
		api.Use(httpMW.WebhookAuth(cfg.WebhookToken))
		api.GET("/runs", cfg.RunsHandler.ListRuns)
		api.GET("/runs/:id", cfg.RunsHandler.GetRun)
	}

	return r
}
