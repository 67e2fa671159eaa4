package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/notion-ai-webhook/internal/block"
	"github.com/yungbote/notion-ai-webhook/internal/platform/notion"
)

func TestReportWindow(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-05-08 20:00 UTC is already 2024-05-09 in Tokyo.
	w := ReportWindow(time.Date(2024, 5, 8, 20, 0, 0, 0, time.UTC), tokyo, 7)
	assert.Equal(t, "2024-05-02", w.StartDate())
	assert.Equal(t, "2024-05-09", w.EndDate())
	assert.Equal(t, "週次レポート (2024-05-02 ~ 2024-05-09)", w.Title())
}

func TestEntryText(t *testing.T) {
	assert.Equal(t, "\n--- Diary Entry (p1) ---\nhello\nworld\n", EntryText("p1", "hello\nworld"))
}

func TestRunWeeklyReportEmptyWindow(t *testing.T) {
	store := newFakeStore()
	store.entries = []notion.PageSummary{{ID: "blank"}}
	store.pages["blank"] = []block.Block{&block.Paragraph{}, &block.Divider{}}
	store.refs["report"] = []notion.BlockRef{
		{ID: "old-1", Type: "paragraph"},
		{ID: "db", Type: "child_database"},
	}
	gen := &fakeGenerator{}
	svc := newTestService(t, store, gen)

	require.NoError(t, svc.RunWeeklyReport(context.Background(), "report"))

	assert.Empty(t, gen.calls)
	assert.Equal(t, []string{"old-1"}, store.deleted)
	require.Len(t, store.appends, 1)
	assert.Equal(t, "report", store.appends[0].PageID)
	assert.Equal(t, []block.Block{block.NewParagraph(EmptyWindowMessage)}, store.appends[0].Blocks)
	assert.Empty(t, store.created)
	assert.Equal(t, []string{"delete:old-1", "append:report"}, store.events)
}

func TestRunWeeklyReportNoEntries(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	svc := newTestService(t, store, gen)

	require.NoError(t, svc.RunWeeklyReport(context.Background(), "report"))
	assert.Empty(t, gen.calls)
	require.Len(t, store.appends, 1)
}

func TestRunWeeklyReportAggregatesInQueryOrder(t *testing.T) {
	store := newFakeStore()
	store.entries = []notion.PageSummary{{ID: "mon"}, {ID: "tue"}, {ID: "wed"}, {ID: "thu"}}
	store.pages["mon"] = []block.Block{block.NewParagraph("月曜"), block.NewParagraph("散歩")}
	store.fetchErr["tue"] = errBoom
	store.pages["wed"] = []block.Block{&block.Divider{}}
	store.pages["thu"] = []block.Block{block.NewHeading3("木曜")}
	store.refs["report"] = []notion.BlockRef{{ID: "old", Type: "paragraph"}}

	generated := []block.Block{block.NewHeading2("今週のまとめ")}
	gen := &fakeGenerator{resp: blocksResponse(t, generated...)}
	svc := newTestService(t, store, gen)

	require.NoError(t, svc.RunWeeklyReport(context.Background(), "report"))

	require.Len(t, store.queries, 1)
	assert.Equal(t, []string{"diary-db"}, store.queryDB)
	assert.Equal(t, notion.DateRangeQuery{
		Property:   "日付",
		OnOrAfter:  "2024-05-01",
		OnOrBefore: "2024-05-08",
		Direction:  notion.Ascending,
	}, store.queries[0])

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, "flash-model", call.Model)
	assert.Equal(t, "weekly instruction", call.Request.Config.SystemInstruction.Parts[0].Text)
	require.Len(t, call.Request.Contents[0].Parts, 1)
	assert.Equal(t,
		"\n--- Diary Entry (mon) ---\n月曜\n散歩\n"+
			"\n--- Diary Entry (thu) ---\n木曜\n",
		call.Request.Contents[0].Parts[0].Text)

	assert.Equal(t, []string{"old"}, store.deleted)
	require.Len(t, store.appends, 1)
	assert.Equal(t, generated, store.appends[0].Blocks)

	require.Len(t, store.created, 1)
	assert.Equal(t, notion.NewPage{
		DatabaseID:    "report-db",
		TitleProperty: "名前",
		Title:         "週次レポート (2024-05-01 ~ 2024-05-08)",
		DateProperty:  "日付",
		Date:          "2024-05-08",
		Children:      generated,
	}, store.created[0])
	assert.Equal(t, []string{"delete:old", "append:report", "create:report-db"}, store.events)
}

func TestRunWeeklyReportCreatePageFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	store.entries = []notion.PageSummary{{ID: "mon"}}
	store.pages["mon"] = []block.Block{block.NewParagraph("月曜")}
	store.createErr = errBoom
	gen := &fakeGenerator{resp: blocksResponse(t, block.NewParagraph("report"))}
	svc := newTestService(t, store, gen)

	require.NoError(t, svc.RunWeeklyReport(context.Background(), "report"))
	require.Len(t, store.appends, 1)
	require.Len(t, store.created, 1)
}

func TestRunWeeklyReportClearFailureStopsBeforeAppend(t *testing.T) {
	store := newFakeStore()
	store.entries = []notion.PageSummary{{ID: "mon"}}
	store.pages["mon"] = []block.Block{block.NewParagraph("月曜")}
	store.refs["report"] = []notion.BlockRef{{ID: "old", Type: "paragraph"}}
	store.deleteErr["old"] = errBoom
	gen := &fakeGenerator{resp: blocksResponse(t, block.NewParagraph("report"))}
	svc := newTestService(t, store, gen)

	err := svc.RunWeeklyReport(context.Background(), "report")
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, store.appends)
	assert.Empty(t, store.created)
}

func TestRunWeeklyReportFallbackStillFilesPage(t *testing.T) {
	store := newFakeStore()
	store.entries = []notion.PageSummary{{ID: "mon"}}
	store.pages["mon"] = []block.Block{block.NewParagraph("月曜")}
	gen := &fakeGenerator{resp: textResponse("```json oops")}
	svc := newTestService(t, store, gen)

	require.NoError(t, svc.RunWeeklyReport(context.Background(), "report"))
	require.Len(t, store.appends, 1)
	assert.Equal(t, FallbackBlocks(), store.appends[0].Blocks)
	require.Len(t, store.created, 1)
	assert.Equal(t, FallbackBlocks(), store.created[0].Children)
}
