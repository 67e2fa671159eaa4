package gemini

import (
	"errors"

	"google.golang.org/genai"
)

// ErrNoCandidates and ErrNoParts mean the response carried nothing to read.
// Both are fatal for the invocation that received them.
var (
	ErrNoCandidates = errors.New("gemini: response has no candidates")
	ErrNoParts      = errors.New("gemini: first candidate has no parts")
)

const (
	RoleUser  = "user"
	RoleModel = "model"

	MimeTypeJSON = "application/json"
)

// Request is one generateContent call. Built once per call and not mutated afterwards.
type Request struct {
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

type Response = genai.GenerateContentResponse

// FirstText returns candidates[0].content.parts[0].text.
func FirstText(r *Response) (string, error) {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0] == nil {
		return "", ErrNoCandidates
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return "", ErrNoParts
	}
	return content.Parts[0].Text, nil
}

// TextContent builds a turn with one text part per entry, in order.
func TextContent(role string, texts ...string) *genai.Content {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &genai.Content{Role: role, Parts: parts}
}

func Float32(v float32) *float32 { return &v }
