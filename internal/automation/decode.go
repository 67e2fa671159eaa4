package automation

import (
	"fmt"

	"github.com/yungbote/notion-ai-webhook/internal/block"
	"github.com/yungbote/notion-ai-webhook/internal/platform/gemini"
)

// FallbackMessage is written as a heading_3 when the generated text is not a
// block array.
const FallbackMessage = "AIレスポンス生成に失敗しました"

// DecodeBlocks reads the first candidate's first text part as a JSON array of
// blocks. A missing candidate or part is an error. Text that does not decode
// yields a single fallback heading instead of an error.
func DecodeBlocks(resp *gemini.Response) ([]block.Block, error) {
	blocks, _, err := decodeBlocks(resp)
	return blocks, err
}

func decodeBlocks(resp *gemini.Response) (blocks []block.Block, fallback bool, err error) {
	text, err := gemini.FirstText(resp)
	if err != nil {
		return nil, false, fmt.Errorf("decode generation: %w", err)
	}
	blocks, decErr := block.DecodeList([]byte(text))
	if decErr != nil {
		return FallbackBlocks(), true, nil
	}
	return blocks, false, nil
}

func FallbackBlocks() []block.Block {
	return []block.Block{block.NewHeading3(FallbackMessage)}
}
