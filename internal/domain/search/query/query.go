// Package query turns raw user search text into quoted phrases, known
// key:value attributes and the remaining free text.
package query

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the maximum number of bytes of query text that is parsed.
// Longer input is truncated, never rejected.
const MaxQueryLength = 4096

// Known attribute names.
const (
	AttrMapper  = "mapper"
	AttrCurator = "curator"
)

var knownAttributes = map[string]struct{}{
	AttrMapper:  {},
	AttrCurator: {},
}

// IsKnownAttribute reports whether name is extracted by the parser.
func IsKnownAttribute(name string) bool {
	_, ok := knownAttributes[strings.ToLower(name)]
	return ok
}

// Parsed is the structured form of a raw query string.
type Parsed struct {
	original   string
	freeText   string
	quoted     []string
	attributes map[string][]string
}

// Parse splits raw into quoted sections, known attributes and free text.
// Parse never fails: malformed input degrades to literal free text.
func Parse(raw string) Parsed {
	original := raw
	raw = truncate(raw, MaxQueryLength)

	rest, quoted := extractQuoted(raw)

	attrs := make(map[string][]string)
	var free []string
	for _, tok := range strings.Fields(rest) {
		name, value, ok := strings.Cut(tok, ":")
		if ok && name != "" && value != "" && IsKnownAttribute(name) {
			key := strings.ToLower(name)
			attrs[key] = append(attrs[key], value)
			continue
		}
		free = append(free, tok)
	}

	return Parsed{
		original:   original,
		freeText:   strings.Join(free, " "),
		quoted:     quoted,
		attributes: attrs,
	}
}

// extractQuoted removes double-quoted segments from s and returns the
// remaining text plus the inner text of each segment in order.
// An unterminated quote swallows the rest of the string.
func extractQuoted(s string) (string, []string) {
	var (
		rest   strings.Builder
		quoted []string
	)
	for {
		start := strings.IndexByte(s, '"')
		if start < 0 {
			rest.WriteString(s)
			break
		}
		rest.WriteString(s[:start])
		rest.WriteByte(' ')

		s = s[start+1:]
		end := strings.IndexByte(s, '"')
		if end < 0 {
			if inner := strings.TrimSpace(s); inner != "" {
				quoted = append(quoted, s)
			}
			break
		}
		if inner := s[:end]; strings.TrimSpace(inner) != "" {
			quoted = append(quoted, inner)
		}
		s = s[end+1:]
	}
	return rest.String(), quoted
}

// Original returns the unmodified input.
func (p Parsed) Original() string { return p.original }

// FreeText returns the text left after quotes and attributes were stripped.
func (p Parsed) FreeText() string { return p.freeText }

// QuotedSections returns quoted phrases in order of appearance.
func (p Parsed) QuotedSections() []string { return p.quoted }

// Attributes returns the extracted attributes keyed by lowercase name.
func (p Parsed) Attributes() map[string][]string { return p.attributes }

// Values returns the values of one attribute in order of appearance.
func (p Parsed) Values(name string) []string { return p.attributes[strings.ToLower(name)] }

// HasFreeText reports whether any non-blank free text remains.
func (p Parsed) HasFreeText() bool { return strings.TrimSpace(p.freeText) != "" }

// IsEmpty reports whether there is nothing to match on: no free text and no quoted phrase.
func (p Parsed) IsEmpty() bool { return !p.HasFreeText() && len(p.quoted) == 0 }

// Reconstruct renders a query string that parses back to the same attributes,
// quoted sections and free text tokens.
func (p Parsed) Reconstruct() string {
	parts := make([]string, 0, 1+len(p.quoted)+len(p.attributes))
	if p.freeText != "" {
		parts = append(parts, p.freeText)
	}
	for _, q := range p.quoted {
		parts = append(parts, `"`+q+`"`)
	}

	names := make([]string, 0, len(p.attributes))
	for name := range p.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range p.attributes[name] {
			parts = append(parts, name+":"+v)
		}
	}
	return strings.Join(parts, " ")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
