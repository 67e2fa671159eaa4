package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/notion-ai-webhook/internal/automation"
	"github.com/yungbote/notion-ai-webhook/internal/data/repos"
	"github.com/yungbote/notion-ai-webhook/internal/http/response"
	"github.com/yungbote/notion-ai-webhook/internal/pkg/dbctx"
)

const defaultRunsLimit = 50

var errRunNotFound = errors.New("run not found")

type RunsHandler struct {
	runs repos.AutomationRunRepo
}

func NewRunsHandler(runs repos.AutomationRunRepo) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// GET /api/runs?kind=&limit=
func (h *RunsHandler) ListRuns(c *gin.Context) {
	kind := strings.TrimSpace(c.Query("kind"))
	if kind != "" {
		k, err := automation.ParseKind(kind)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_kind", err)
			return
		}
		kind = string(k)
	}
	limit := defaultRunsLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	out, err := h.runs.ListRecent(dbctx.New(c.Request.Context()), kind, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_runs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"runs": out})
}

// GET /api/runs/:id
func (h *RunsHandler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.runs.GetByID(dbctx.New(c.Request.Context()), runID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_run_failed", err)
		return
	}
	if run == nil {
		response.RespondError(c, http.StatusNotFound, "run_not_found", errRunNotFound)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}
