package block

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedEncode is returned when an Unsupported block reaches the encoder.
// Callers filter those out with Supported before writing.
var ErrUnsupportedEncode = errors.New("block: unsupported block cannot be encoded")

// DecodeError reports structurally malformed block JSON. An unknown type tag
// is not an error.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "block decode error"
	}
	if e.Type == "" {
		return fmt.Sprintf("block decode: %v", e.Err)
	}
	return fmt.Sprintf("block decode (%s): %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type wirePayloadIn struct {
	RichText     []RichText      `json:"rich_text"`
	Color        string          `json:"color"`
	Checked      bool            `json:"checked"`
	Language     string          `json:"language"`
	IsToggleable bool            `json:"is_toggleable"`
	Children     json.RawMessage `json:"children"`
}

type wirePayloadOut struct {
	RichText     []RichText        `json:"rich_text"`
	Color        string            `json:"color,omitempty"`
	Checked      bool              `json:"checked,omitempty"`
	Language     string            `json:"language,omitempty"`
	IsToggleable bool              `json:"is_toggleable,omitempty"`
	Children     []json.RawMessage `json:"children,omitempty"`
}

// Decode parses a single block object.
func Decode(data []byte) (Block, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if env == nil {
		return nil, &DecodeError{Err: errors.New("block is null")}
	}
	rawType, ok := env["type"]
	if !ok {
		return nil, &DecodeError{Err: errors.New("missing type")}
	}
	var typ string
	if err := json.Unmarshal(rawType, &typ); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("type: %w", err)}
	}

	kind := Kind(typ)
	if kind == KindDivider {
		return &Divider{}, nil
	}
	if !isTextKind(kind) {
		return &Unsupported{Type: typ, Raw: bytes.Clone(data)}, nil
	}

	rawPayload, ok := env[typ]
	if !ok || isNull(rawPayload) {
		return nil, &DecodeError{Type: typ, Err: fmt.Errorf("missing %s payload", typ)}
	}
	var p wirePayloadIn
	if err := json.Unmarshal(rawPayload, &p); err != nil {
		return nil, &DecodeError{Type: typ, Err: err}
	}
	content := Content{RichText: p.RichText, Color: normalizeColor(p.Color)}

	switch kind {
	case KindHeading1:
		return &Heading{Level: 1, Content: content, Toggleable: p.IsToggleable}, nil
	case KindHeading2:
		return &Heading{Level: 2, Content: content, Toggleable: p.IsToggleable}, nil
	case KindHeading3:
		return &Heading{Level: 3, Content: content, Toggleable: p.IsToggleable}, nil
	case KindParagraph:
		return &Paragraph{Content: content}, nil
	case KindBulletedListItem:
		return &BulletedListItem{Content: content}, nil
	case KindNumberedListItem:
		return &NumberedListItem{Content: content}, nil
	case KindToDo:
		return &ToDo{Content: content, Checked: p.Checked}, nil
	case KindQuote:
		return &Quote{Content: content}, nil
	case KindCallout:
		return &Callout{Content: content}, nil
	case KindCode:
		return &Code{Content: content, Language: p.Language}, nil
	case KindToggle:
		t := &Toggle{Content: content}
		if len(p.Children) > 0 && !isNull(p.Children) {
			kids, err := DecodeList(p.Children)
			if err != nil {
				return nil, &DecodeError{Type: typ, Err: fmt.Errorf("children: %w", err)}
			}
			t.Children = kids
		}
		return t, nil
	}
	return &Unsupported{Type: typ, Raw: bytes.Clone(data)}, nil
}

// DecodeList parses a JSON array of blocks. Unknown kinds become Unsupported
// entries; only malformed JSON fails the whole list.
func DecodeList(data []byte) ([]Block, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &DecodeError{Err: err}
	}
	out := make([]Block, 0, len(raws))
	for i, raw := range raws {
		b, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Encode renders b in the append-children shape expected by the store.
func Encode(b Block) ([]byte, error) {
	env, err := envelope(b)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// EncodeList renders blocks as a JSON array.
func EncodeList(blocks []Block) ([]byte, error) {
	raws, err := encodeAll(blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raws)
}

func encodeAll(blocks []Block) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(blocks))
	for i, b := range blocks {
		raw, err := Encode(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func envelope(b Block) (map[string]any, error) {
	if b == nil {
		return nil, errors.New("block: nil block")
	}
	var payload any
	switch v := b.(type) {
	case *Unsupported:
		return nil, fmt.Errorf("%w (type %q)", ErrUnsupportedEncode, v.Type)
	case *Divider:
		payload = struct{}{}
	case *Heading:
		if v.Level < 1 || v.Level > 3 {
			return nil, fmt.Errorf("block: invalid heading level %d", v.Level)
		}
		p := contentOut(v.Content)
		p.IsToggleable = v.Toggleable
		payload = p
	case *ToDo:
		p := contentOut(v.Content)
		p.Checked = v.Checked
		payload = p
	case *Code:
		p := contentOut(v.Content)
		p.Language = v.Language
		payload = p
	case *Toggle:
		p := contentOut(v.Content)
		if len(v.Children) > 0 {
			kids, err := encodeAll(v.Children)
			if err != nil {
				return nil, fmt.Errorf("toggle children: %w", err)
			}
			p.Children = kids
		}
		payload = p
	case contentHolder:
		payload = contentOut(v.content())
	default:
		return nil, fmt.Errorf("block: cannot encode %T", b)
	}
	kind := string(b.Kind())
	return map[string]any{
		"object": "block",
		"type":   kind,
		kind:     payload,
	}, nil
}

func contentOut(c Content) wirePayloadOut {
	rt := c.RichText
	if rt == nil {
		rt = []RichText{}
	}
	return wirePayloadOut{RichText: rt, Color: c.Color}
}

func isTextKind(k Kind) bool {
	switch k {
	case KindHeading1, KindHeading2, KindHeading3, KindParagraph,
		KindBulletedListItem, KindNumberedListItem, KindToDo, KindToggle,
		KindQuote, KindCallout, KindCode:
		return true
	}
	return false
}

func normalizeColor(c string) string {
	if c == "default" {
		return ""
	}
	return c
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func nullToNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	return raw
}

// List is a block sequence that (de)serializes as a JSON array. It lets wire
// structs embed blocks directly.
type List []Block

func (l *List) UnmarshalJSON(data []byte) error {
	blocks, err := DecodeList(data)
	if err != nil {
		return err
	}
	*l = blocks
	return nil
}

func (l List) MarshalJSON() ([]byte, error) {
	return EncodeList(l)
}
