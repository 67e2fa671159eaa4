package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/notion-ai-webhook/internal/config"
	"github.com/yungbote/notion-ai-webhook/internal/data/db"
	"github.com/yungbote/notion-ai-webhook/internal/domain/runs"
	"github.com/yungbote/notion-ai-webhook/internal/pkg/dbctx"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

type fakeNotion struct {
	mu      sync.Mutex
	patched []string
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/blocks/page-1/children":
		_, _ = io.WriteString(w, `{"object":"list","results":[
		  {"object":"block","id":"b1","type":"paragraph","paragraph":{"rich_text":[{"type":"text","text":{"content":"今日は海へ行った"},"plain_text":"今日は海へ行った"}]}}
		],"has_more":false,"next_cursor":null}`)
	case r.Method == http.MethodPatch && r.URL.Path == "/v1/blocks/page-1/children":
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.patched = append(f.patched, string(raw))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"object":"list","results":[]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"object":"error","status":404,"code":"object_not_found","message":"not found"}`)
	}
}

func (f *fakeNotion) Patched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.patched...)
}

func fakeGemini(t *testing.T) http.Handler {
	t.Helper()
	text := `[{"object":"block","type":"paragraph","paragraph":{"rich_text":[{"type":"text","text":{"content":"素敵な一日でしたね"}}]}}]`
	body, err := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
		}},
	})
	require.NoError(t, err)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

func TestAppDiaryWebhookEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notionSrv := &fakeNotion{}
	ns := httptest.NewServer(notionSrv)
	t.Cleanup(ns.Close)
	gs := httptest.NewServer(fakeGemini(t))
	t.Cleanup(gs.Close)

	cfg := config.Config{
		Port:            "0",
		ShutdownTimeout: 5 * time.Second,
		Notion: config.Notion{
			APIKey: "secret_test", BaseURL: ns.URL, Version: "2022-06-28",
			DiaryDBID: "diary-db", ReportDBID: "report-db",
		},
		Gemini: config.Gemini{APIKey: "gk", BaseURL: gs.URL, FlashModel: "flash", ProModel: "pro"},
		Weekly: config.Weekly{DateProperty: "日付", TitleProperty: "名前", WindowDays: 7, FetchConcurrency: 2},
		Ledger: config.Ledger{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "runs.db") + "?_busy_timeout=5000"},
	}
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), logger.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	require.NotNil(t, a.Repos)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/diary", strings.NewReader(`{"data":{"id":"page-1"}}`))
	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var ack struct {
		Status     string `json:"status"`
		Automation string `json:"automation"`
		RunID      string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "accepted", ack.Status)
	assert.Equal(t, "diary", ack.Automation)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Services.Runner.Drain(ctx))

	patched := notionSrv.Patched()
	require.Len(t, patched, 1)
	assert.JSONEq(t, `{"children":[{"object":"block","type":"paragraph","paragraph":{"rich_text":[{"type":"text","text":{"content":"素敵な一日でしたね"}}]}}]}`, patched[0])

	list, err := a.Repos.AutomationRun.ListRecent(dbctx.New(context.Background()), "diary", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ack.RunID, list[0].ID.String())
	assert.Equal(t, runs.StatusSucceeded, list[0].Status)

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+ack.RunID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAppWithoutLedger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		Port:            "0",
		ShutdownTimeout: time.Second,
		Notion:          config.Notion{APIKey: "k", DiaryDBID: "d", ReportDBID: "r"},
		Gemini:          config.Gemini{APIKey: "g", FlashModel: "flash", ProModel: "pro"},
	}
	a, err := New(context.Background(), logger.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Repos)

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewFailsAfterLedgerOpened(t *testing.T) {
	cfg := config.Config{
		Port:            "0",
		ShutdownTimeout: time.Second,
		Notion:          config.Notion{APIKey: "k", DiaryDBID: "d", ReportDBID: "r"},
		Gemini:          config.Gemini{APIKey: "g", FlashModel: "flash", ProModel: "pro"},
		Weekly:          config.Weekly{Timezone: "Not/AZone"},
		Ledger:          config.Ledger{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "runs.db")},
	}
	a, err := New(context.Background(), logger.NewNop(), cfg)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "Not/AZone")
}

func TestCloseDB(t *testing.T) {
	gdb, err := db.Open(logger.NewNop(), db.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "runs.db")})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	closeDB(logger.NewNop(), gdb)
	assert.Error(t, sqlDB.Ping())

	closeDB(logger.NewNop(), nil)
}

func TestStopOtel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	stopOtel(ctx, logger.NewNop(), func(ctx context.Context) error {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		assert.NoError(t, ctx.Err())
		return nil
	})
	assert.Equal(t, 1, calls)

	stopOtel(ctx, logger.NewNop(), nil)
}
