package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/apierr"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

const (
	APIVersion  = "v1beta"
	serviceName = "gemini"
)

type Config struct {
	APIKey string
	// BaseURL overrides the SDK default endpoint when set.
	BaseURL string
}

// Client calls generateContent through the genai SDK. It never retries; the
// caller decides what a failure means.
type Client struct {
	log    *logger.Logger
	models *genai.Models
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	return NewWithHTTPClient(ctx, log, cfg, nil)
}

// NewWithHTTPClient swaps the transport, mainly so tests never touch the network.
func NewWithHTTPClient(ctx context.Context, log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        50,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}}
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimSpace(cfg.BaseURL),
			APIVersion: APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: init client: %w", err)
	}
	return &Client{
		log:    log.With("client", "GeminiClient"),
		models: gc.Models,
	}, nil
}

// Generate runs req against model.
func (c *Client) Generate(ctx context.Context, model string, req *Request) (*Response, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("gemini: model required")
	}
	if req == nil {
		return nil, errors.New("gemini: nil request")
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, req.Contents, req.Config)
	status := http.StatusOK
	if err != nil {
		err = wrapError(err)
		status = apierr.StatusOf(err)
	}
	if m := observability.Current(); m != nil {
		m.ObserveUpstream(serviceName, "generate_content", status, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	c.log.Debug("gemini generate ok",
		"model", model,
		"candidates", len(resp.Candidates),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// wrapError maps SDK API errors onto apierr so metrics and callers see the
// upstream status. Transport errors keep status 0.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &apierr.Error{Service: serviceName, Status: apiErr.Code, Code: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &apierr.Error{Service: serviceName, Status: apiErrPtr.Code, Code: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return fmt.Errorf("gemini: %w", err)
}
