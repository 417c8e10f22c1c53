// Package docsession manages document-drafting sessions: multi-turn
// efforts that classify a user's intent into a document type, draft an
// initial markdown document, and fold follow-up feedback into it one
// focused question at a time.
//
// The package follows the same design split as the rest of the module:
// types and validation here, lifecycle in store.go, draft skeletons in
// templates.go, model-output parsing in parse.go.
package docsession

import (
	"fmt"
	"strings"
	"time"
)

// --- Document type enum ---

// DocType categorizes what kind of document a session produces.
type DocType string

const (
	TypeProductBrief  DocType = "product-brief"
	TypeRequirements  DocType = "requirements"
	TypeDesign        DocType = "design"
	TypeSpecification DocType = "specification"
	TypeBrainstorm    DocType = "exploratory-brainstorm"
)

// validDocTypes is the set of allowed document types.
var validDocTypes = map[DocType]bool{
	TypeProductBrief:  true,
	TypeRequirements:  true,
	TypeDesign:        true,
	TypeSpecification: true,
	TypeBrainstorm:    true,
}

// ValidateDocType returns an error if the type is not recognized.
func ValidateDocType(t DocType) error {
	if !validDocTypes[t] {
		return fmt.Errorf("invalid document type %q: must be one of: product-brief, requirements, design, specification, exploratory-brainstorm", t)
	}
	return nil
}

// typeFolders maps document types to their folder under docs/.
var typeFolders = map[DocType]string{
	TypeProductBrief:  "prd",
	TypeRequirements:  "requirements",
	TypeDesign:        "design",
	TypeSpecification: "spec",
	TypeBrainstorm:    "ideas",
}

// TypeFolder returns the docs/ subfolder for a document type.
// Unknown types fall back to the product-brief folder.
func TypeFolder(t DocType) string {
	if folder, ok := typeFolders[t]; ok {
		return folder
	}
	return typeFolders[TypeProductBrief]
}

// --- Session record ---

// Session is one active drafting effort.
type Session struct {
	ID           string    `json:"id"`
	DocType      DocType   `json:"doc_type"`
	Agent        string    `json:"agent"`
	DocumentPath string    `json:"document_path"`
	Title        string    `json:"title"`
	Turns        int       `json:"turns"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// --- Completion phrases ---

// completionPhrases are the terminal utterances, matched
// case-insensitively with optional trailing punctuation.
var completionPhrases = []string{
	"done",
	"/done",
	"finish",
	"finished",
	"complete",
	"that's it",
	"looks good",
	"that works",
}

// IsCompletionPhrase reports whether input is one of the fixed
// session-terminating phrases.
func IsCompletionPhrase(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimRight(s, ".!?")
	s = strings.TrimSpace(s)
	for _, p := range completionPhrases {
		if s == p {
			return true
		}
	}
	return false
}

// --- Slug generation ---

const maxSlugLen = 60

// Slugify converts a document title into a filesystem-safe slug:
// lowercased, non-alphanumerics collapsed to hyphens, truncated to 60
// characters at a word boundary where possible.
func Slugify(title string) string {
	if strings.TrimSpace(title) == "" {
		return "untitled"
	}

	s := strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	if len(slug) <= maxSlugLen {
		return slug
	}

	truncated := slug[:maxSlugLen]
	if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxSlugLen/2 {
		truncated = truncated[:lastHyphen]
	}
	return strings.TrimRight(truncated, "-")
}

// FallbackTitle derives a title from the first eight words of the
// kickoff input. Used when classification fails or no model exists.
func FallbackTitle(input string) string {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return "Untitled Document"
	}
	if len(fields) > 8 {
		fields = fields[:8]
	}
	return strings.Join(fields, " ")
}
