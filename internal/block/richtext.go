package block

import (
	"encoding/json"
	"fmt"
)

// RichTextType is the discriminator of a rich text span.
type RichTextType string

const (
	RichTextText     RichTextType = "text"
	RichTextMention  RichTextType = "mention"
	RichTextEquation RichTextType = "equation"
)

// RichText is one styled run inside a block. Exactly one of Text, Mention or
// Equation is set according to Type. Mention and Equation payloads are kept
// as raw JSON and never interpreted.
//
// PlainText is derived by the API and only populated on decode; it is never
// written back.
type RichText struct {
	Type        RichTextType
	Text        *Text
	Mention     json.RawMessage
	Equation    json.RawMessage
	Annotations Annotations
	PlainText   string
	Href        string
}

type Text struct {
	Content string
	Link    string
}

// Annotations is formatting carried through unchanged. The zero value means
// no formatting.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// IsDefault reports whether a carries no formatting at all.
func (a Annotations) IsDefault() bool {
	return !a.Bold && !a.Italic && !a.Strikethrough && !a.Underline && !a.Code &&
		(a.Color == "" || a.Color == "default")
}

// PlainSpan builds a default-annotated text span.
func PlainSpan(s string) RichText {
	return RichText{
		Type:      RichTextText,
		Text:      &Text{Content: s},
		PlainText: s,
	}
}

type wireLink struct {
	URL string `json:"url"`
}

type wireText struct {
	Content string    `json:"content"`
	Link    *wireLink `json:"link,omitempty"`
}

type wireRichTextIn struct {
	Type        RichTextType    `json:"type"`
	Text        *wireText       `json:"text"`
	Mention     json.RawMessage `json:"mention"`
	Equation    json.RawMessage `json:"equation"`
	Annotations *Annotations    `json:"annotations"`
	PlainText   *string         `json:"plain_text"`
	Href        *string         `json:"href"`
}

type wireRichTextOut struct {
	Type        RichTextType    `json:"type"`
	Text        *wireText       `json:"text,omitempty"`
	Mention     json.RawMessage `json:"mention,omitempty"`
	Equation    json.RawMessage `json:"equation,omitempty"`
	Annotations *Annotations    `json:"annotations,omitempty"`
}

func (r *RichText) UnmarshalJSON(data []byte) error {
	var in wireRichTextIn
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := RichText{
		Type:     in.Type,
		Mention:  nullToNil(in.Mention),
		Equation: nullToNil(in.Equation),
	}
	if out.Type == "" && in.Text != nil {
		out.Type = RichTextText
	}
	if in.Text != nil {
		out.Text = &Text{Content: in.Text.Content}
		if in.Text.Link != nil {
			out.Text.Link = in.Text.Link.URL
		}
	}
	if in.Annotations != nil {
		out.Annotations = *in.Annotations
		if out.Annotations.Color == "default" {
			out.Annotations.Color = ""
		}
	}
	if in.Href != nil {
		out.Href = *in.Href
	}
	switch {
	case in.PlainText != nil:
		out.PlainText = *in.PlainText
	case out.Text != nil:
		// Append-shaped payloads (e.g. generator output) omit plain_text.
		out.PlainText = out.Text.Content
	}
	*r = out
	return nil
}

func (r RichText) MarshalJSON() ([]byte, error) {
	out := wireRichTextOut{Type: r.Type}
	switch r.Type {
	case RichTextText, "":
		out.Type = RichTextText
		t := wireText{}
		if r.Text != nil {
			t.Content = r.Text.Content
			if r.Text.Link != "" {
				t.Link = &wireLink{URL: r.Text.Link}
			}
		}
		out.Text = &t
	case RichTextMention:
		if len(r.Mention) == 0 {
			return nil, fmt.Errorf("rich text: mention span without payload")
		}
		out.Mention = r.Mention
	case RichTextEquation:
		if len(r.Equation) == 0 {
			return nil, fmt.Errorf("rich text: equation span without payload")
		}
		out.Equation = r.Equation
	default:
		return nil, fmt.Errorf("rich text: unknown span type %q", r.Type)
	}
	if !r.Annotations.IsDefault() {
		a := r.Annotations
		if a.Color == "" {
			a.Color = "default"
		}
		out.Annotations = &a
	}
	return json.Marshal(out)
}
