package notion

import (
	"encoding/json"

	"github.com/yungbote/notion-ai-webhook/internal/block"
)

// BlockRef identifies an existing block without decoding its payload.
type BlockRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// PageSummary is what the pipelines need from a page: where it is.
type PageSummary struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type SortDirection string

const (
	Ascending  SortDirection = "ascending"
	Descending SortDirection = "descending"
)

// DateRangeQuery selects rows whose date Property lies in [OnOrAfter, OnOrBefore],
// both formatted YYYY-MM-DD, sorted by the same property.
type DateRangeQuery struct {
	Property   string
	OnOrAfter  string
	OnOrBefore string
	Direction  SortDirection
}

// NewPage is a page to create inside a database.
type NewPage struct {
	DatabaseID    string
	TitleProperty string
	Title         string
	DateProperty  string
	Date          string
	Children      []block.Block
}

type listResponse struct {
	Object     string            `json:"object"`
	Results    []json.RawMessage `json:"results"`
	NextCursor *string           `json:"next_cursor"`
	HasMore    bool              `json:"has_more"`
}

type appendRequest struct {
	Children block.List `json:"children"`
}

type dateCondition struct {
	OnOrAfter  string `json:"on_or_after,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty"`
}

type propertyFilter struct {
	Property string        `json:"property"`
	Date     dateCondition `json:"date"`
}

type compoundFilter struct {
	And []propertyFilter `json:"and"`
}

type sortSpec struct {
	Property  string        `json:"property"`
	Direction SortDirection `json:"direction"`
}

type queryRequest struct {
	Filter      *compoundFilter `json:"filter,omitempty"`
	Sorts       []sortSpec      `json:"sorts,omitempty"`
	StartCursor string          `json:"start_cursor,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
}

type textValue struct {
	Content string `json:"content"`
}

type titleSpan struct {
	Type string    `json:"type"`
	Text textValue `json:"text"`
}

type dateValue struct {
	Start string `json:"start"`
}

type propertyValue struct {
	Title []titleSpan `json:"title,omitempty"`
	Date  *dateValue  `json:"date,omitempty"`
}

type databaseParent struct {
	DatabaseID string `json:"database_id"`
}

type createPageRequest struct {
	Parent     databaseParent           `json:"parent"`
	Properties map[string]propertyValue `json:"properties"`
	Children   block.List               `json:"children,omitempty"`
}

// errorResponse is the body Notion returns with any non-2xx status.
type errorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
