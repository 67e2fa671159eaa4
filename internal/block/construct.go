package block

// DefaultCodeLanguage is used when Code is called without a language.
const DefaultCodeLanguage = "plain text"

func plain(s string) Content {
	return Content{RichText: []RichText{PlainSpan(s)}}
}

// NewParagraph builds a paragraph holding a single plain span.
func NewParagraph(s string) *Paragraph {
	return &Paragraph{Content: plain(s)}
}

// NewHeading builds a heading of the given level; levels outside 1..3 are clamped.
func NewHeading(level int, s string) *Heading {
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	return &Heading{Level: level, Content: plain(s)}
}

func NewHeading1(s string) *Heading { return NewHeading(1, s) }
func NewHeading2(s string) *Heading { return NewHeading(2, s) }
func NewHeading3(s string) *Heading { return NewHeading(3, s) }

// NewCode builds a code block with a single plain span.
func NewCode(s, language string) *Code {
	if language == "" {
		language = DefaultCodeLanguage
	}
	return &Code{Content: plain(s), Language: language}
}
