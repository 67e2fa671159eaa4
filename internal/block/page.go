package block

import "strings"

// Page binds a page id to its fetched top-level blocks.
type Page struct {
	ID     string
	Blocks []Block
}

// Parts returns the text of each block that has any, in page order.
func (p Page) Parts() []string {
	return TextParts(p.Blocks)
}

// Text joins Parts with newlines.
func (p Page) Text() string {
	return strings.Join(p.Parts(), "\n")
}

// IsBlank reports whether the page has no text beyond whitespace.
func (p Page) IsBlank() bool {
	return strings.TrimSpace(p.Text()) == ""
}
