// Package sections implements section-aware editing of markdown documents.
//
// A document is modeled as a flat sequence of Section records computed
// from its ATX headers (levels 1–6). A section's extent runs from its
// header line to the next header of equal or shallower level, or to the
// end of the document. Updates are applied against those extents and
// never touch bytes outside the target section's span.
//
// Known limitation: the scanner does not exclude headers that appear
// inside fenced code blocks. A ``` fence containing "# example" is
// treated as a real header. Documents produced by the drafting
// templates rarely contain fenced headers, so this has not been fixed;
// changing it would shift section boundaries in existing documents.
package sections

import (
	"fmt"
	"strings"
)

// --- Update modes ---

// Mode selects how new content is combined with an existing section.
type Mode string

const (
	ModeReplace        Mode = "replace"
	ModeAppend         Mode = "append"
	ModePrepend        Mode = "prepend"
	ModeInsertAtOffset Mode = "insert-at-offset"
)

// validModes is the set of allowed update modes.
var validModes = map[Mode]bool{
	ModeReplace:        true,
	ModeAppend:         true,
	ModePrepend:        true,
	ModeInsertAtOffset: true,
}

// ValidateMode returns an error if the mode is not recognized.
func ValidateMode(m Mode) error {
	if !validModes[m] {
		return fmt.Errorf("invalid update mode %q: must be one of: replace, append, prepend, insert-at-offset", m)
	}
	return nil
}

// --- Section records ---

// Section describes one markdown section as byte offsets into the
// document it was scanned from.
type Section struct {
	Level       int    // header depth, 1–6
	Title       string // header text with leading #'s and spaces stripped
	HeaderStart int    // offset of the first '#' of the header line
	BodyStart   int    // offset just past the header line's newline
	End         int    // offset of the next equal-or-shallower header, or len(doc)
}

// Body returns the section's body bytes within doc.
func (s Section) Body(doc string) string {
	return doc[s.BodyStart:s.End]
}

// Scan computes the section records for a document. Records are
// returned in document order. A document with no headers scans to nil.
func Scan(doc string) []Section {
	var secs []Section

	offset := 0
	for offset <= len(doc) {
		lineEnd := strings.IndexByte(doc[offset:], '\n')
		var next int
		if lineEnd < 0 {
			lineEnd = len(doc)
			next = len(doc) + 1 // terminate after the last line
		} else {
			lineEnd += offset
			next = lineEnd + 1
		}

		line := doc[offset:lineEnd]
		if level, title, ok := parseHeader(line); ok {
			// Close any open sections at this level or deeper.
			for i := range secs {
				if secs[i].End == len(doc) && secs[i].Level >= level {
					secs[i].End = offset
				}
			}
			secs = append(secs, Section{
				Level:       level,
				Title:       title,
				HeaderStart: offset,
				BodyStart:   min(next, len(doc)),
				End:         len(doc),
			})
		}

		offset = next
	}

	return secs
}

// parseHeader reports whether line is an ATX header and returns its
// level and title text.
func parseHeader(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := line[level:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}

// Find locates a section by name: first by exact case-insensitive
// title match, then by case-insensitive substring. Ties resolve to the
// first match in document order.
func Find(doc, name string) (Section, bool) {
	secs := Scan(doc)
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return Section{}, false
	}

	for _, s := range secs {
		if strings.ToLower(s.Title) == target {
			return s, true
		}
	}
	for _, s := range secs {
		if strings.Contains(strings.ToLower(s.Title), target) {
			return s, true
		}
	}
	return Section{}, false
}

// --- Update application ---

// UpdateRequest describes one merge operation against a document.
type UpdateRequest struct {
	Section string // target section name; ignored by insert-at-offset
	Content string
	Mode    Mode
	Offset  *int // required by insert-at-offset, ignored otherwise
}

// Apply performs the requested update and returns the new document.
// If the target section does not exist, every mode except
// insert-at-offset degrades to appending a brand-new section at the
// end of the document.
func Apply(doc string, req UpdateRequest) (string, error) {
	if err := ValidateMode(req.Mode); err != nil {
		return "", err
	}

	if req.Mode == ModeInsertAtOffset {
		if req.Offset == nil {
			return "", fmt.Errorf("insert-at-offset requires an explicit offset")
		}
		off := *req.Offset
		if off < 0 {
			off = 0
		}
		if off > len(doc) {
			off = len(doc)
		}
		return doc[:off] + req.Content + doc[off:], nil
	}

	sec, found := Find(doc, req.Section)
	if !found {
		return appendNewSection(doc, req.Section, req.Content), nil
	}

	// A header on the document's final line has no newline of its own;
	// give it one so the body never glues onto the header text.
	if sec.BodyStart == len(doc) && !strings.HasSuffix(doc, "\n") {
		doc += "\n"
		sec.BodyStart = len(doc)
		sec.End = len(doc)
	}

	switch req.Mode {
	case ModeReplace:
		return doc[:sec.BodyStart] + separated(req.Content, sec.End < len(doc)) + doc[sec.End:], nil
	case ModeAppend:
		return doc[:sec.End] + separated(req.Content, sec.End < len(doc)) + doc[sec.End:], nil
	case ModePrepend:
		return doc[:sec.BodyStart] + withTrailingNewline(req.Content) + doc[sec.BodyStart:], nil
	}

	return "", fmt.Errorf("unhandled update mode %q", req.Mode)
}

// separated ensures content inserted before a following header keeps
// that header on its own line. Content already ending in a newline is
// returned unchanged, which is what makes replace idempotent: a body
// read back out of a document always carries its trailing newline.
func separated(content string, hasFollower bool) string {
	if hasFollower {
		return withTrailingNewline(content)
	}
	return content
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// --- New-section creation ---

// sectionLevels maps well-known section names to the header level used
// when the section is created from scratch. Anything absent defaults
// to level 2.
var sectionLevels = map[string]int{
	"title":                       1,
	"overview":                    2,
	"problem statement":           2,
	"goals":                       2,
	"requirements":                2,
	"functional requirements":     2,
	"non-functional requirements": 2,
	"user stories":                2,
	"acceptance criteria":         3,
	"architecture":                2,
	"design":                      2,
	"data model":                  2,
	"api":                         2,
	"open questions":              2,
	"out of scope":                2,
	"success criteria":            2,
	"next steps":                  2,
	"notes":                       2,
	"references":                  3,
}

// headerLevelFor returns the creation level for a section name.
func headerLevelFor(name string) int {
	if lvl, ok := sectionLevels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl
	}
	return 2
}

// appendNewSection adds a fresh section at the end of the document.
// Empty documents get the section as their entire content.
func appendNewSection(doc, name, content string) string {
	header := strings.Repeat("#", headerLevelFor(name)) + " " + strings.TrimSpace(name)
	block := header + "\n\n" + withTrailingNewline(content)

	if strings.TrimSpace(doc) == "" {
		return block
	}

	sep := "\n"
	if !strings.HasSuffix(doc, "\n") {
		sep = "\n\n"
	}
	return doc + sep + block
}
