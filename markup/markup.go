// Package markup encodes highlight tags for a color scheme and decodes them back out of
// document text.
//
// The wire format is
//
//	<mark class="TOKEN" style="background: #COLOR">CONTENT</mark>
//
// where TOKEN is the scheme name lower-cased with spaces turned into hyphens.
package markup

import (
	"iter"
	"regexp"
	"strings"

	"themedmark/model"
)

const (
	Tag       = "mark"
	separator = "-"
)

// Attribute keywords are case-insensitive; class must precede style.
var openTagRe = regexp.MustCompile(`(?i)<mark\sclass="([^"]*)"\sstyle="background:\s(#[^"]*)">`)

// Token derives the class token for a scheme name.
func Token(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", separator)
}

// NameFromToken is the inverse of Token, up to case.
func NameFromToken(token string) string {
	return strings.ReplaceAll(token, separator, " ")
}

// OpenTag returns the opening tag for scheme in mode m.
func OpenTag(scheme model.ColorScheme, m model.Mode) string {
	var b strings.Builder
	b.WriteString(`<` + Tag + ` class="`)
	b.WriteString(Token(scheme.Name))
	b.WriteString(`" style="background: `)
	b.WriteString(scheme.Color(m))
	b.WriteString(`">`)
	return b.String()
}

// Encode wraps content in a highlight tag for scheme in mode m.
func Encode(scheme model.ColorScheme, m model.Mode, content string) string {
	return OpenTag(scheme, m) + content + `</` + Tag + `>`
}

// Decode yields every opening highlight tag in text, left to right and non-overlapping.
// Each range over the returned sequence scans text from the start.
func Decode(text string) iter.Seq[model.Occurrence] {
	return func(yield func(model.Occurrence) bool) {
		pos := 0
		for pos < len(text) {
			loc := openTagRe.FindStringSubmatchIndex(text[pos:])
			if loc == nil {
				return
			}
			start, end := pos+loc[0], pos+loc[1]
			raw := text[start:end]
			token := text[pos+loc[2] : pos+loc[3]]
			color := text[pos+loc[4] : pos+loc[5]]

			colorStart := loc[4] - loc[0]
			colorEnd := colorStart + 1 + wordRun(color[1:])

			if !yield(model.NewOccurrence(raw, token, color, start, colorStart, colorEnd)) {
				return
			}
			pos = end
		}
	}
}

// wordRun counts the leading [0-9A-Za-z_] bytes of s.
func wordRun(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			n++
			continue
		}
		break
	}
	return n
}
