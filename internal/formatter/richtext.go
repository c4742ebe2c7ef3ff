package formatter

import (
	"strings"
	"unicode/utf8"
)

// FacetKind tells a link facet from a tag facet.
type FacetKind int

const (
	FacetLink FacetKind = iota
	FacetTag
)

// Facet annotates Text[Start:End]. Offsets count UTF-8 bytes, not characters.
type Facet struct {
	Start int
	End   int
	Kind  FacetKind
	// Value is the link URI or the tag without its leading '#'.
	Value string
}

// RichText is post text with facets.
type RichText struct {
	Text   string
	Facets []Facet
}

// Length counts characters.
func (r RichText) Length() int { return utf8.RuneCountInString(r.Text) }

type richBuilder struct {
	buf    strings.Builder
	facets []Facet
}

func (b *richBuilder) text(s string) {
	b.buf.WriteString(s)
}

func (b *richBuilder) link(label, uri string) {
	b.annotate(label, FacetLink, uri)
}

func (b *richBuilder) tag(text, tag string) {
	b.annotate(text, FacetTag, tag)
}

func (b *richBuilder) annotate(s string, kind FacetKind, value string) {
	start := b.buf.Len()
	b.buf.WriteString(s)
	if s == "" {
		return
	}
	b.facets = append(b.facets, Facet{Start: start, End: b.buf.Len(), Kind: kind, Value: value})
}

func (b *richBuilder) build() RichText {
	return RichText{Text: b.buf.String(), Facets: b.facets}
}
