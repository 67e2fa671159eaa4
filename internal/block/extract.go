package block

import "strings"

// ExtractText returns the concatenated plain text of a block's spans.
// ok is false for blocks without text: Divider, Unsupported, and textual
// blocks whose span list is empty. Toggle children are not walked.
func ExtractText(b Block) (text string, ok bool) {
	tb, isText := b.(TextBlock)
	if !isText {
		return "", false
	}
	spans := tb.Spans()
	if len(spans) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.PlainText)
	}
	return sb.String(), true
}

// TextParts maps ExtractText over top-level blocks in order, skipping blocks
// without text.
func TextParts(blocks []Block) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s, ok := ExtractText(b); ok {
			out = append(out, s)
		}
	}
	return out
}
