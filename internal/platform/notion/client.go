package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/notion-ai-webhook/internal/block"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/apierr"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"

	// MaxPageSize bounds both list pages and children per append request.
	MaxPageSize = 100

	serviceName = "notion"
)

type Config struct {
	APIKey  string
	BaseURL string
	Version string
}

// Client talks to the Notion REST API. No call is retried.
type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	version    string
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("notion: api key required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = DefaultVersion
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		log:        log.With("client", "NotionClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		version:    version,
		httpClient: &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient swaps the transport, mainly so tests never touch the network.
func NewWithHTTPClient(log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	c, err := New(log, cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

// FetchBlocks returns every top-level child block of pageID, in order.
// Kinds this service does not model come back as *block.Unsupported.
func (c *Client) FetchBlocks(ctx context.Context, pageID string) ([]block.Block, error) {
	raws, err := c.listChildren(ctx, "fetch_blocks", pageID)
	if err != nil {
		return nil, err
	}
	out := make([]block.Block, 0, len(raws))
	for i, raw := range raws {
		b, err := block.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("notion: fetch blocks %s: block %d: %w", pageID, i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// ListBlockIDs returns the id and wire type of each top-level child of pageID.
func (c *Client) ListBlockIDs(ctx context.Context, pageID string) ([]BlockRef, error) {
	raws, err := c.listChildren(ctx, "list_block_ids", pageID)
	if err != nil {
		return nil, err
	}
	out := make([]BlockRef, 0, len(raws))
	for i, raw := range raws {
		var ref BlockRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, fmt.Errorf("notion: list block ids %s: block %d: %w", pageID, i, err)
		}
		out = append(out, ref)
	}
	return out, nil
}

// AppendBlocks appends blocks to pageID in order, at most MaxPageSize per request.
// An empty slice is a no-op.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []block.Block) error {
	for start := 0; start < len(blocks); start += MaxPageSize {
		end := min(start+MaxPageSize, len(blocks))
		path := "/v1/blocks/" + url.PathEscape(pageID) + "/children"
		if err := c.do(ctx, "append_blocks", http.MethodPatch, path, appendRequest{Children: blocks[start:end]}, nil); err != nil {
			return fmt.Errorf("notion: append blocks %s [%d:%d]: %w", pageID, start, end, err)
		}
	}
	return nil
}

// DeleteBlock archives a single block.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	if err := c.do(ctx, "delete_block", http.MethodDelete, "/v1/blocks/"+url.PathEscape(blockID), nil, nil); err != nil {
		return fmt.Errorf("notion: delete block %s: %w", blockID, err)
	}
	return nil
}

// QueryDatabase returns every row of databaseID matching q, following pagination.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, q DateRangeQuery) ([]PageSummary, error) {
	dir := q.Direction
	if dir == "" {
		dir = Ascending
	}
	req := queryRequest{PageSize: MaxPageSize}
	if q.Property != "" {
		req.Filter = &compoundFilter{And: []propertyFilter{
			{Property: q.Property, Date: dateCondition{OnOrAfter: q.OnOrAfter}},
			{Property: q.Property, Date: dateCondition{OnOrBefore: q.OnOrBefore}},
		}}
		req.Sorts = []sortSpec{{Property: q.Property, Direction: dir}}
	}

	path := "/v1/databases/" + url.PathEscape(databaseID) + "/query"
	var out []PageSummary
	for {
		var page listResponse
		if err := c.do(ctx, "query_database", http.MethodPost, path, req, &page); err != nil {
			return nil, fmt.Errorf("notion: query database %s: %w", databaseID, err)
		}
		for i, raw := range page.Results {
			var s PageSummary
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("notion: query database %s: row %d: %w", databaseID, i, err)
			}
			out = append(out, s)
		}
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			return out, nil
		}
		req.StartCursor = *page.NextCursor
	}
}

// CreatePage creates a row in p.DatabaseID titled p.Title with p.Date in the
// date property. Children beyond the per-request limit are appended afterwards.
func (c *Client) CreatePage(ctx context.Context, p NewPage) (PageSummary, error) {
	props := map[string]propertyValue{
		p.TitleProperty: {Title: []titleSpan{{Type: "text", Text: textValue{Content: p.Title}}}},
	}
	if p.DateProperty != "" && p.Date != "" {
		props[p.DateProperty] = propertyValue{Date: &dateValue{Start: p.Date}}
	}
	first, rest := p.Children, []block.Block(nil)
	if len(first) > MaxPageSize {
		first, rest = p.Children[:MaxPageSize], p.Children[MaxPageSize:]
	}
	req := createPageRequest{
		Parent:     databaseParent{DatabaseID: p.DatabaseID},
		Properties: props,
		Children:   first,
	}
	var out PageSummary
	if err := c.do(ctx, "create_page", http.MethodPost, "/v1/pages", req, &out); err != nil {
		return PageSummary{}, fmt.Errorf("notion: create page in %s: %w", p.DatabaseID, err)
	}
	if len(rest) > 0 {
		if err := c.AppendBlocks(ctx, out.ID, rest); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *Client) listChildren(ctx context.Context, op, blockID string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	cursor := ""
	for {
		q := url.Values{}
		q.Set("page_size", fmt.Sprint(MaxPageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		path := "/v1/blocks/" + url.PathEscape(blockID) + "/children?" + q.Encode()
		var page listResponse
		if err := c.do(ctx, op, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("notion: list children of %s: %w", blockID, err)
		}
		out = append(out, page.Results...)
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			return out, nil
		}
		cursor = *page.NextCursor
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	status := 0
	defer func() {
		if m := observability.Current(); m != nil {
			m.ObserveUpstream(serviceName, op, status, time.Since(start))
		}
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	c.log.Debug("notion request ok", "op", op, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Object == "error" {
		return apierr.New(serviceName, status, er.Code, er.Message)
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return apierr.New(serviceName, status, "", msg)
}
