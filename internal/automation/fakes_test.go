package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yungbote/notion-ai-webhook/internal/automation/prompts"
	"github.com/yungbote/notion-ai-webhook/internal/block"
	"github.com/yungbote/notion-ai-webhook/internal/platform/gemini"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
	"github.com/yungbote/notion-ai-webhook/internal/platform/notion"
)

type appendCall struct {
	PageID string
	Blocks []block.Block
}

type fakeStore struct {
	mu sync.Mutex

	pages     map[string][]block.Block
	fetchErr  map[string]error
	refs      map[string][]notion.BlockRef
	deleteErr map[string]error
	entries   []notion.PageSummary
	createErr error

	fetched []string
	deleted []string
	appends []appendCall
	queries []notion.DateRangeQuery
	queryDB []string
	created []notion.NewPage
	events  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pages:     map[string][]block.Block{},
		fetchErr:  map[string]error{},
		refs:      map[string][]notion.BlockRef{},
		deleteErr: map[string]error{},
	}
}

func (f *fakeStore) FetchBlocks(_ context.Context, pageID string) ([]block.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, pageID)
	if err := f.fetchErr[pageID]; err != nil {
		return nil, err
	}
	return f.pages[pageID], nil
}

func (f *fakeStore) AppendBlocks(_ context.Context, pageID string, blocks []block.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends = append(f.appends, appendCall{PageID: pageID, Blocks: blocks})
	f.events = append(f.events, "append:"+pageID)
	return nil
}

func (f *fakeStore) ListBlockIDs(_ context.Context, pageID string) ([]notion.BlockRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[pageID], nil
}

func (f *fakeStore) DeleteBlock(_ context.Context, blockID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[blockID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, blockID)
	f.events = append(f.events, "delete:"+blockID)
	return nil
}

func (f *fakeStore) QueryDatabase(_ context.Context, databaseID string, q notion.DateRangeQuery) ([]notion.PageSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryDB = append(f.queryDB, databaseID)
	f.queries = append(f.queries, q)
	return f.entries, nil
}

func (f *fakeStore) CreatePage(_ context.Context, p notion.NewPage) (notion.PageSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	f.events = append(f.events, "create:"+p.DatabaseID)
	if f.createErr != nil {
		return notion.PageSummary{}, f.createErr
	}
	return notion.PageSummary{ID: "created-page", URL: "https://notion.so/created-page"}, nil
}

type generateCall struct {
	Model   string
	Request *gemini.Request
}

type fakeGenerator struct {
	mu    sync.Mutex
	resp  *gemini.Response
	err   error
	calls []generateCall
}

func (g *fakeGenerator) Generate(_ context.Context, model string, req *gemini.Request) (*gemini.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, generateCall{Model: model, Request: req})
	return g.resp, g.err
}

func textResponse(text string) *gemini.Response {
	return &gemini.Response{Candidates: []*genai.Candidate{{
		Content: gemini.TextContent(gemini.RoleModel, text),
	}}}
}

func blocksResponse(t *testing.T, blocks ...block.Block) *gemini.Response {
	t.Helper()
	raw, err := block.EncodeList(blocks)
	require.NoError(t, err)
	return textResponse(string(raw))
}

var testPrompts = prompts.Static(map[string]string{
	prompts.Diary:        "diary instruction",
	prompts.Review:       "review instruction",
	prompts.WeeklyReport: "weekly instruction",
})

func newTestService(t *testing.T, store PageStore, gen Generator) *Service {
	t.Helper()
	svc, err := NewService(logger.NewNop(), store, gen, testPrompts, Config{
		Models: Models{Flash: "flash-model", Pro: "pro-model"},
		Weekly: WeeklyConfig{
			DiaryDatabaseID:  "diary-db",
			ReportDatabaseID: "report-db",
			DateProperty:     "日付",
			TitleProperty:    "名前",
			Location:         time.UTC,
		},
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 5, 8, 21, 30, 0, 0, time.UTC) }
	return svc
}

var errBoom = errors.New("boom")
