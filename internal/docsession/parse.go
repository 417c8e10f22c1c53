package docsession

import (
	"encoding/json"
	"strings"
)

// Model output contracts. Refinement turns must answer with the
// updated document and the next question separated by two delimiters;
// classification must answer with a small JSON object. Both parsers
// degrade instead of erroring: a malformed response never crashes a
// session or loses user input.

const (
	// DocumentDelimiter opens the updated-document block.
	DocumentDelimiter = "---DOCUMENT---"
	// QuestionDelimiter closes it and opens the next-question block.
	QuestionDelimiter = "---QUESTION---"
)

// ParseRefinement splits a refinement response into the updated
// document and the next question. ok is false when either delimiter is
// missing, they arrive out of order, or either block is empty; callers
// then keep the document unchanged and surface the raw output as the
// question. The empty-document check matters: a degenerate response
// must never wipe the document on disk.
func ParseRefinement(output string) (doc, question string, ok bool) {
	docIdx := strings.Index(output, DocumentDelimiter)
	qIdx := strings.Index(output, QuestionDelimiter)
	if docIdx < 0 || qIdx < 0 || qIdx < docIdx {
		return "", "", false
	}

	doc = strings.TrimSpace(output[docIdx+len(DocumentDelimiter) : qIdx])
	question = strings.TrimSpace(output[qIdx+len(QuestionDelimiter):])
	if doc == "" || question == "" {
		return "", "", false
	}
	return doc + "\n", question, true
}

// classification mirrors the JSON object the model returns for a
// kickoff message.
type classification struct {
	DocType string `json:"docType"`
	Title   string `json:"title"`
}

// ParseClassification extracts the document type and title from a
// classification response. Any parse failure, unknown type, or empty
// title falls back deterministically: type product-brief, title from
// the first eight words of the original input.
func ParseClassification(output, input string) (DocType, string) {
	docType := TypeProductBrief
	title := FallbackTitle(input)

	raw := extractJSONObject(output)
	if raw == "" {
		return docType, title
	}

	var c classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return docType, title
	}

	if ValidateDocType(DocType(c.DocType)) == nil {
		docType = DocType(c.DocType)
	}
	if strings.TrimSpace(c.Title) != "" {
		title = strings.TrimSpace(c.Title)
	}
	return docType, title
}

// extractJSONObject returns the outermost {...} span in s, tolerating
// prose or code fences around it. Empty when no braces pair up.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
