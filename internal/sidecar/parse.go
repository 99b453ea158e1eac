package sidecar

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
)

// Frontmatter keys of a sidecar file.
const (
	fieldUID          = "uid"
	fieldDescription  = "description"
	fieldSectionOrder = "section_order"
	fieldSeeAlso      = "see_also"
	fieldVersion      = "version"
)

// Parse decodes a sidecar file into an Entry. The file is YAML frontmatter
// followed by a markdown body whose level-2 headings delimit sections.
func Parse(content []byte) (*Entry, error) {
	fm, body, had, _, err := frontmatter.Split(content)
	if err != nil {
		return nil, fmt.Errorf("split sidecar frontmatter: %w", err)
	}

	entry := &Entry{}
	orderHints := map[string]int{}

	if had {
		fields, err := frontmatter.ParseYAML(fm)
		if err != nil {
			return nil, fmt.Errorf("parse sidecar frontmatter: %w", err)
		}
		if v, ok := fields[fieldUID].(string); ok {
			entry.UID = metadata.UID(strings.TrimSpace(v))
		}
		if v, ok := fields[fieldDescription].(string); ok {
			entry.Description = strings.TrimSpace(v)
		}
		orderHints = parseOrderHints(fields[fieldSectionOrder])
		entry.SeeAlso = parseSeeAlso(fields[fieldSeeAlso])
	}

	intro, sections := splitSections(body)
	entry.Intro = intro
	for i := range sections {
		if hint, ok := orderHints[sections[i].Heading]; ok {
			h := hint
			sections[i].Order = &h
		}
	}
	entry.Sections = sections

	return entry, nil
}

func parseOrderHints(v any) map[string]int {
	hints := map[string]int{}
	m, ok := v.(map[string]any)
	if !ok {
		return hints
	}
	for heading, raw := range m {
		switch n := raw.(type) {
		case int:
			hints[heading] = n
		case int64:
			hints[heading] = int(n)
		case float64:
			hints[heading] = int(n)
		}
	}
	return hints
}

func parseSeeAlso(v any) []Ref {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	refs := make([]Ref, 0, len(items))
	for _, item := range items {
		switch vv := item.(type) {
		case string:
			// Shorthand: a bare string is a UID if it has a kind prefix,
			// otherwise an external URL.
			s := strings.TrimSpace(vv)
			if metadata.UID(s).Kind() != metadata.KindUnknown {
				refs = append(refs, Ref{UID: metadata.UID(s)})
			} else {
				refs = append(refs, Ref{URL: s})
			}
		case map[string]any:
			var r Ref
			if u, ok := vv["uid"].(string); ok {
				r.UID = metadata.UID(strings.TrimSpace(u))
			}
			if u, ok := vv["url"].(string); ok {
				r.URL = strings.TrimSpace(u)
			}
			if l, ok := vv["label"].(string); ok {
				r.Label = l
			}
			if !r.UID.IsZero() || r.URL != "" {
				refs = append(refs, r)
			}
		}
	}
	return refs
}

// splitSections parses the markdown body and cuts it into an intro (content
// before the first level-2 heading) and one section per level-2 heading.
func splitSections(body []byte) (string, []Section) {
	if len(body) == 0 {
		return "", nil
	}

	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(body))

	type headingPos struct {
		title     string
		lineStart int // offset of the heading line's first byte
		lineEnd   int // offset just past the heading line's newline
	}

	var headings []headingPos
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		h, ok := child.(*gmast.Heading)
		if !ok || h.Level != 2 || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		headings = append(headings, headingPos{
			title:     strings.TrimSpace(string(body[seg.Start:seg.Stop])),
			lineStart: lineStartBefore(body, seg.Start),
			lineEnd:   lineEndAfter(body, seg.Stop),
		})
	}

	if len(headings) == 0 {
		return strings.TrimSpace(string(body)), nil
	}

	intro := strings.TrimSpace(string(body[:headings[0].lineStart]))

	sections := make([]Section, 0, len(headings))
	for i, h := range headings {
		end := len(body)
		if i+1 < len(headings) {
			end = headings[i+1].lineStart
		}
		sections = append(sections, Section{
			Heading: h.title,
			Body:    strings.TrimSpace(string(body[h.lineEnd:end])),
		})
	}
	return intro, sections
}

func lineStartBefore(body []byte, offset int) int {
	for i := offset - 1; i >= 0; i-- {
		if body[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func lineEndAfter(body []byte, offset int) int {
	for i := offset; i < len(body); i++ {
		if body[i] == '\n' {
			return i + 1
		}
	}
	return len(body)
}

// Serialize encodes an Entry into sidecar file bytes. Used only for skeleton
// creation and tests; generation never rewrites existing sidecar files.
func Serialize(e *Entry, version string) ([]byte, error) {
	fields := map[string]any{
		fieldUID:         string(e.UID),
		fieldDescription: e.Description,
	}
	if version != "" {
		fields[fieldVersion] = version
	}

	hints := map[string]any{}
	for _, s := range e.Sections {
		if s.Order != nil {
			hints[s.Heading] = *s.Order
		}
	}
	if len(hints) > 0 {
		fields[fieldSectionOrder] = hints
	}

	if len(e.SeeAlso) > 0 {
		items := make([]any, 0, len(e.SeeAlso))
		for _, r := range e.SeeAlso {
			item := map[string]any{}
			if !r.UID.IsZero() {
				item["uid"] = string(r.UID)
			}
			if r.URL != "" {
				item["url"] = r.URL
			}
			if r.Label != "" {
				item["label"] = r.Label
			}
			items = append(items, item)
		}
		fields[fieldSeeAlso] = items
	}

	var body strings.Builder
	if e.Intro != "" {
		body.WriteString(e.Intro)
		body.WriteString("\n")
	}
	for _, s := range e.Sections {
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString("## ")
		body.WriteString(s.Heading)
		body.WriteString("\n\n")
		body.WriteString(s.Body)
		body.WriteString("\n")
	}

	fp, err := ComputeFingerprint(fields, []byte(body.String()))
	if err != nil {
		return nil, err
	}
	fields[fingerprintField] = fp

	fmBytes, err := frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
	if err != nil {
		return nil, fmt.Errorf("serialize sidecar frontmatter: %w", err)
	}
	return frontmatter.Join(fmBytes, []byte(body.String()), true, frontmatter.Style{Newline: "\n"}), nil
}
