package block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtractTextFromConstructors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		level := rapid.IntRange(1, 3).Draw(t, "level")
		lang := rapid.SampledFrom([]string{"", "go", "sql"}).Draw(t, "lang")

		for _, b := range []Block{NewParagraph(s), NewHeading(level, s), NewCode(s, lang)} {
			got, ok := ExtractText(b)
			if !ok || got != s {
				t.Fatalf("%s: ExtractText = (%q, %v), want (%q, true)", b.Kind(), got, ok, s)
			}
		}
	})
}

func TestExtractTextEmptySpans(t *testing.T) {
	empty := Content{RichText: []RichText{}}
	for _, b := range []Block{
		&Paragraph{Content: empty},
		&Heading{Level: 1},
		&BulletedListItem{},
		&NumberedListItem{Content: empty},
		&ToDo{Checked: true},
		&Toggle{Children: []Block{NewParagraph("hidden")}},
		&Quote{},
		&Callout{},
		&Code{Language: "go"},
		&Divider{},
		&Unsupported{Type: "image"},
	} {
		_, ok := ExtractText(b)
		assert.False(t, ok, "kind %s", b.Kind())
	}
}

func TestExtractTextKeepsEmptyString(t *testing.T) {
	got, ok := ExtractText(NewParagraph(""))
	require.True(t, ok)
	assert.Equal(t, "", got)
}

func TestEncodedConstructorsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		level := rapid.IntRange(1, 3).Draw(t, "level")
		in := []Block{NewParagraph(s), NewHeading(level, s), NewCode(s, "go")}

		raw, err := EncodeList(in)
		if err != nil {
			t.Fatalf("EncodeList: %v", err)
		}
		if strings.Contains(string(raw), "plain_text") {
			t.Fatalf("plain_text leaked into %s", raw)
		}
		out, err := DecodeList(raw)
		if err != nil {
			t.Fatalf("DecodeList: %v", err)
		}
		for i := range in {
			want, _ := ExtractText(in[i])
			got, ok := ExtractText(out[i])
			if !ok || got != want || out[i].Kind() != in[i].Kind() {
				t.Fatalf("block %d: got (%s, %q, %v), want (%s, %q)", i, out[i].Kind(), got, ok, in[i].Kind(), want)
			}
		}
	})
}

func TestPageText(t *testing.T) {
	p := Page{ID: "p1", Blocks: []Block{
		NewParagraph("Today was a good day."),
		&Divider{},
		NewHeading2("Goals"),
		&Unsupported{Type: "image"},
		&Paragraph{},
	}}
	assert.Equal(t, []string{"Today was a good day.", "Goals"}, p.Parts())
	assert.Equal(t, "Today was a good day.\nGoals", p.Text())
	assert.False(t, p.IsBlank())

	blank := Page{ID: "p2", Blocks: []Block{NewParagraph("  "), &Divider{}}}
	assert.True(t, blank.IsBlank())
}
