// Package automation turns a page id into generated content written back to
// Notion. Each Kind is one linear pipeline; Runner backgrounds them.
package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/notion-ai-webhook/internal/block"
	"github.com/yungbote/notion-ai-webhook/internal/platform/gemini"
	"github.com/yungbote/notion-ai-webhook/internal/platform/notion"
)

type Kind string

const (
	KindDiary        Kind = "diary"
	KindReview       Kind = "review"
	KindWeeklyReport Kind = "weekly-report"
)

var Kinds = []Kind{KindDiary, KindReview, KindWeeklyReport}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown automation %q", s)
}

// PageStore is the subset of the Notion API the pipelines use.
type PageStore interface {
	FetchBlocks(ctx context.Context, pageID string) ([]block.Block, error)
	AppendBlocks(ctx context.Context, pageID string, blocks []block.Block) error
	ListBlockIDs(ctx context.Context, pageID string) ([]notion.BlockRef, error)
	DeleteBlock(ctx context.Context, blockID string) error
	QueryDatabase(ctx context.Context, databaseID string, q notion.DateRangeQuery) ([]notion.PageSummary, error)
	CreatePage(ctx context.Context, p notion.NewPage) (notion.PageSummary, error)
}

// Generator produces text from a request using the named model.
type Generator interface {
	Generate(ctx context.Context, model string, req *gemini.Request) (*gemini.Response, error)
}

var (
	_ PageStore = (*notion.Client)(nil)
	_ Generator = (*gemini.Client)(nil)
)
