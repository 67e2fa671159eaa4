package automation

import (
	"google.golang.org/genai"

	"github.com/yungbote/notion-ai-webhook/internal/platform/gemini"
)

const Temperature = 0.8

// BuildRequest assembles one system turn holding instruction and one user turn
// with a part per source text, in order.
func BuildRequest(instruction string, sources []string) *gemini.Request {
	return &gemini.Request{
		Contents: []*genai.Content{gemini.TextContent(gemini.RoleUser, sources...)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: gemini.TextContent(gemini.RoleUser, instruction),
			Temperature:       gemini.Float32(Temperature),
			ResponseMIMEType:  gemini.MimeTypeJSON,
		},
	}
}
