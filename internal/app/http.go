package app

import (
	"net"

	"github.com/yungbote/notion-ai-webhook/internal/config"
	"github.com/yungbote/notion-ai-webhook/internal/data/repos"
	apphttp "github.com/yungbote/notion-ai-webhook/internal/http"
	httpH "github.com/yungbote/notion-ai-webhook/internal/http/handlers"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Webhook *httpH.WebhookHandler
	Runs    *httpH.RunsHandler
}

func wireHandlers(log *logger.Logger, services Services, reposet *repos.Repos) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:  httpH.NewHealthHandler(),
		Webhook: httpH.NewWebhookHandler(httpH.WebhookHandlerDeps{Log: log, Runner: services.Runner}),
	}
	if reposet != nil && reposet.AutomationRun != nil {
		h.Runs = httpH.NewRunsHandler(reposet.AutomationRun)
	}
	return h
}

func wireServer(log *logger.Logger, cfg config.Config, metrics *observability.Metrics, handlers Handlers) *apphttp.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(net.JoinHostPort("", cfg.Port), apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		WebhookToken:   cfg.WebhookToken,
		WebhookHandler: handlers.Webhook,
		RunsHandler:    handlers.Runs,
		HealthHandler:  handlers.Health,
	})
}
