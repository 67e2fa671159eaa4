package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/notion-ai-webhook/internal/automation"
	"github.com/yungbote/notion-ai-webhook/internal/http/response"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

// MaxWebhookBody caps the trigger payload read into memory.
const MaxWebhookBody = 1 << 20

var errMissingPageID = errors.New("data.id is required")

// Submitter backgrounds a pipeline run.
type Submitter interface {
	Submit(ctx context.Context, t automation.Trigger) (uuid.UUID, error)
}

type WebhookHandlerDeps struct {
	Log    *logger.Logger
	Runner Submitter
}

type WebhookHandler struct {
	log    *logger.Logger
	runner Submitter
}

func NewWebhookHandler(deps WebhookHandlerDeps) *WebhookHandler {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &WebhookHandler{log: log.With("handler", "WebhookHandler"), runner: deps.Runner}
}

type webhookPayload struct {
	Data *struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PageID extracts data.id from a trigger body.
func PageID(body []byte) (string, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", fmt.Errorf("invalid JSON body: %w", err)
	}
	if p.Data == nil || strings.TrimSpace(p.Data.ID) == "" {
		return "", errMissingPageID
	}
	return strings.TrimSpace(p.Data.ID), nil
}

// Trigger acknowledges a webhook for kind and starts its pipeline in the
// background. The response never waits for the pipeline.
//
// POST /webhooks/{diary|review|weekly-report}
func (h *WebhookHandler) Trigger(kind automation.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("automation", string(kind))
		metrics := observability.Current()

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBody))
		if err != nil {
			metrics.IncWebhook(string(kind), "invalid_payload")
			response.RespondError(c, http.StatusBadRequest, "invalid_payload", fmt.Errorf("read body: %w", err))
			return
		}
		pageID, err := PageID(body)
		if err != nil {
			metrics.IncWebhook(string(kind), "invalid_payload")
			response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
			return
		}

		runID, err := h.runner.Submit(c.Request.Context(), automation.Trigger{
			Kind:    kind,
			PageID:  pageID,
			Payload: body,
		})
		if err != nil {
			status, code := http.StatusInternalServerError, "submit_failed"
			if errors.Is(err, automation.ErrDraining) {
				status, code = http.StatusServiceUnavailable, "shutting_down"
			}
			metrics.IncWebhook(string(kind), code)
			response.RespondError(c, status, code, err)
			return
		}
		c.Set("run_id", runID.String())
		metrics.IncWebhook(string(kind), "accepted")

		response.RespondOK(c, gin.H{
			"status":     "accepted",
			"automation": string(kind),
			"run_id":     runID.String(),
		})
	}
}
