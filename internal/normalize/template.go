package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Template placeholders, written as {kind:groups} or {kind:groups|default}:
//
//	{cap:1}      capitalized group 1
//	{cap:1,2}    capitalized first non-empty of groups 1 and 2
//	{capsp:1}    like cap, followed by a space when non-empty
//	{paren:2}    " (group)" lowercased, omitted when empty
//	{raw:3}      group verbatim
//	{cap:1|Mixed Nuts}  literal default when every group is empty
//
// Anything outside braces is copied literally.
type template struct {
	source   string
	segments []segment
}

type segmentKind int

const (
	segLiteral segmentKind = iota
	segCap
	segCapSpace
	segParen
	segRaw
)

type segment struct {
	kind     segmentKind
	literal  string
	groups   []int
	fallback string
}

func mustParseTemplate(src string) template {
	t, err := parseTemplate(src)
	if err != nil {
		panic(err)
	}
	return t
}

func parseTemplate(src string) (template, error) {
	t := template{source: src}
	rest := src
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			t.segments = append(t.segments, segment{kind: segLiteral, literal: rest})
			break
		}
		if open > 0 {
			t.segments = append(t.segments, segment{kind: segLiteral, literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return template{}, fmt.Errorf("template %q: unterminated placeholder", src)
		}
		seg, err := parsePlaceholder(rest[open+1 : open+end])
		if err != nil {
			return template{}, fmt.Errorf("template %q: %w", src, err)
		}
		t.segments = append(t.segments, seg)
		rest = rest[open+end+1:]
	}
	return t, nil
}

func parsePlaceholder(body string) (segment, error) {
	kindName, spec, ok := strings.Cut(body, ":")
	if !ok {
		return segment{}, fmt.Errorf("placeholder %q: missing group list", body)
	}

	var seg segment
	switch kindName {
	case "cap":
		seg.kind = segCap
	case "capsp":
		seg.kind = segCapSpace
	case "paren":
		seg.kind = segParen
	case "raw":
		seg.kind = segRaw
	default:
		return segment{}, fmt.Errorf("placeholder %q: unknown kind %q", body, kindName)
	}

	groupList, fallback, _ := strings.Cut(spec, "|")
	seg.fallback = fallback
	for _, g := range strings.Split(groupList, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(g))
		if err != nil || n < 1 {
			return segment{}, fmt.Errorf("placeholder %q: bad group %q", body, g)
		}
		seg.groups = append(seg.groups, n)
	}
	return seg, nil
}

// maxGroup reports the highest capture group the template refers to.
func (t template) maxGroup() int {
	max := 0
	for _, s := range t.segments {
		for _, g := range s.groups {
			if g > max {
				max = g
			}
		}
	}
	return max
}

func (t template) render(groups []string) string {
	var b strings.Builder
	for _, s := range t.segments {
		if s.kind == segLiteral {
			b.WriteString(s.literal)
			continue
		}

		value := ""
		for _, g := range s.groups {
			if g < len(groups) && strings.TrimSpace(groups[g]) != "" {
				value = strings.TrimSpace(groups[g])
				break
			}
		}

		if value == "" {
			if s.fallback != "" {
				b.WriteString(s.fallback)
				if s.kind == segCapSpace {
					b.WriteByte(' ')
				}
			}
			continue
		}

		switch s.kind {
		case segCap:
			b.WriteString(capitalize(value))
		case segCapSpace:
			b.WriteString(capitalize(value))
			b.WriteByte(' ')
		case segParen:
			b.WriteString(" (")
			b.WriteString(strings.ToLower(value))
			b.WriteByte(')')
		case segRaw:
			b.WriteString(value)
		}
	}
	return b.String()
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
