package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yungbote/notion-ai-webhook/internal/platform/apierr"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(t *testing.T, rt roundTripperFunc) *Client {
	t.Helper()
	c, err := NewWithHTTPClient(context.Background(), logger.NewNop(),
		Config{APIKey: "secret-key", BaseURL: "http://upstream/"}, &http.Client{Transport: rt})
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/v1beta/models/gemini-flash:generateContent", req.URL.Path)
		assert.Equal(t, "secret-key", req.Header.Get("x-goog-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Contains(t, body, "systemInstruction")
		require.Contains(t, body, "generationConfig")
		cfg := body["generationConfig"].(map[string]any)
		assert.InDelta(t, 0.8, cfg["temperature"], 1e-6)
		assert.Equal(t, "application/json", cfg["responseMimeType"])

		contents := body["contents"].([]any)
		require.Len(t, contents, 1)
		parts := contents[0].(map[string]any)["parts"].([]any)
		require.Len(t, parts, 2)
		assert.Equal(t, "a", parts[0].(map[string]any)["text"])
		assert.Equal(t, "b", parts[1].(map[string]any)["text"])

		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"[]"}]},"finishReason":"STOP"}]}`), nil
	})

	resp, err := c.Generate(context.Background(), "gemini-flash", &Request{
		Contents: []*genai.Content{TextContent(RoleUser, "a", "b")},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: TextContent(RoleUser, "instruction"),
			Temperature:       Float32(0.8),
			ResponseMIMEType:  MimeTypeJSON,
		},
	})
	require.NoError(t, err)
	text, err := FirstText(resp)
	require.NoError(t, err)
	assert.Equal(t, "[]", text)
}

func TestGenerateUpstreamError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`), nil
	})

	_, err := c.Generate(context.Background(), "m", &Request{Contents: []*genai.Content{TextContent(RoleUser, "x")}})
	require.Error(t, err)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusTooManyRequests, ae.Status)
	assert.Equal(t, http.StatusTooManyRequests, apierr.StatusOf(err))
	assert.Contains(t, ae.Error(), "quota exceeded")
}

func TestGenerateTransportError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := c.Generate(context.Background(), "m", &Request{Contents: []*genai.Content{TextContent(RoleUser, "x")}})
	require.Error(t, err)
	assert.Equal(t, 0, apierr.StatusOf(err))
}

func TestGenerateRequiresModel(t *testing.T) {
	c, err := New(context.Background(), logger.NewNop(), Config{APIKey: "k"})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), " ", &Request{})
	require.Error(t, err)
	_, err = c.Generate(context.Background(), "m", nil)
	require.Error(t, err)

	_, err = New(context.Background(), logger.NewNop(), Config{})
	require.Error(t, err)
}

func TestFirstText(t *testing.T) {
	_, err := FirstText(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = FirstText(&Response{})
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = FirstText(&Response{Candidates: []*genai.Candidate{{}}})
	assert.ErrorIs(t, err, ErrNoParts)

	_, err = FirstText(&Response{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}})
	assert.ErrorIs(t, err, ErrNoParts)

	text, err := FirstText(&Response{Candidates: []*genai.Candidate{{Content: TextContent(RoleModel, "a", "b")}}})
	require.NoError(t, err)
	assert.Equal(t, "a", text)
}
