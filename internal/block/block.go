// Package block models the content blocks exchanged with the Notion API.
//
// A Block is a closed set of concrete types (Heading, Paragraph, ...). Any wire
// tag the package does not know decodes into Unsupported instead of failing, so
// pages containing newer block kinds can still be read.
package block

// Kind is the wire tag of a block ("paragraph", "heading_2", ...).
type Kind string

const (
	KindHeading1         Kind = "heading_1"
	KindHeading2         Kind = "heading_2"
	KindHeading3         Kind = "heading_3"
	KindParagraph        Kind = "paragraph"
	KindBulletedListItem Kind = "bulleted_list_item"
	KindNumberedListItem Kind = "numbered_list_item"
	KindToDo             Kind = "to_do"
	KindToggle           Kind = "toggle"
	KindQuote            Kind = "quote"
	KindCallout          Kind = "callout"
	KindDivider          Kind = "divider"
	KindCode             Kind = "code"
)

// Block is one unit of page content. Implementations live in this package only.
type Block interface {
	Kind() Kind
	isBlock()
}

// TextBlock is implemented by every block kind that carries rich text.
type TextBlock interface {
	Block
	Spans() []RichText
}

// Content is the rich text payload shared by all textual kinds.
type Content struct {
	RichText []RichText
	Color    string
}

func (c Content) Spans() []RichText { return c.RichText }

func (c Content) content() Content { return c }

type contentHolder interface {
	content() Content
}

// Heading is heading_1, heading_2 or heading_3 depending on Level.
type Heading struct {
	Level int
	Content
	Toggleable bool
}

func (h *Heading) Kind() Kind {
	switch h.Level {
	case 1:
		return KindHeading1
	case 2:
		return KindHeading2
	default:
		return KindHeading3
	}
}

type Paragraph struct {
	Content
}

func (*Paragraph) Kind() Kind { return KindParagraph }

type BulletedListItem struct {
	Content
}

func (*BulletedListItem) Kind() Kind { return KindBulletedListItem }

type NumberedListItem struct {
	Content
}

func (*NumberedListItem) Kind() Kind { return KindNumberedListItem }

type ToDo struct {
	Content
	Checked bool
}

func (*ToDo) Kind() Kind { return KindToDo }

// Toggle may own nested blocks. Inbound pages usually leave Children empty
// because the API only returns them through a separate children request.
type Toggle struct {
	Content
	Children []Block
}

func (*Toggle) Kind() Kind { return KindToggle }

type Quote struct {
	Content
}

func (*Quote) Kind() Kind { return KindQuote }

type Callout struct {
	Content
}

func (*Callout) Kind() Kind { return KindCallout }

type Code struct {
	Content
	Language string
}

func (*Code) Kind() Kind { return KindCode }

type Divider struct{}

func (*Divider) Kind() Kind { return KindDivider }

// Unsupported absorbs any block whose wire tag is not modelled here.
// Raw holds the original JSON object.
type Unsupported struct {
	Type string
	Raw  []byte
}

func (u *Unsupported) Kind() Kind { return Kind(u.Type) }

func (*Heading) isBlock()          {}
func (*Paragraph) isBlock()        {}
func (*BulletedListItem) isBlock() {}
func (*NumberedListItem) isBlock() {}
func (*ToDo) isBlock()             {}
func (*Toggle) isBlock()           {}
func (*Quote) isBlock()            {}
func (*Callout) isBlock()          {}
func (*Code) isBlock()             {}
func (*Divider) isBlock()          {}
func (*Unsupported) isBlock()      {}

// IsUnsupported reports whether b is the catch-all variant.
func IsUnsupported(b Block) bool {
	_, ok := b.(*Unsupported)
	return ok
}

// Supported returns the blocks that can be written back to the store, in order,
// and how many Unsupported blocks were dropped.
func Supported(blocks []Block) ([]Block, int) {
	out := make([]Block, 0, len(blocks))
	dropped := 0
	for _, b := range blocks {
		if b == nil || IsUnsupported(b) {
			dropped++
			continue
		}
		if t, ok := b.(*Toggle); ok && len(t.Children) > 0 {
			kids, n := Supported(t.Children)
			dropped += n
			cp := *t
			cp.Children = kids
			b = &cp
		}
		out = append(out, b)
	}
	return out, dropped
}
