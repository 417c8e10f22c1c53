package routing

import (
	"strings"

	"github.com/draftyhq/drafty/internal/docsession"
)

// Heuristic vocabularies. All matching is case-insensitive over the
// whole message; the cascade in policy.go fixes the precedence.

// revisionVerbs signal the user wants an existing document changed.
var revisionVerbs = []string{
	"fix", "improve", "update", "revise", "refine", "iterate", "polish",
	"adjust", "correct", "rewrite", "edit", "expand", "clarify", "address",
}

// documentNouns anchor a revision verb to a document.
var documentNouns = []string{
	"document", "doc", "draft", "prd", "brief", "requirements", "design",
	"spec", "section", "brainstorm",
}

// reviewContinuationPhrases refer back to prior review output.
var reviewContinuationPhrases = []string{
	"the issues", "the feedback", "the comments", "the review",
	"what you found", "those points", "the problems",
}

// switchVerbs signal a deliberate change of target.
var switchVerbs = []string{
	"switch", "change", "move", "use", "instead", "start over", "new",
	"another", "different", "separate",
}

// switchTargetNouns are the things a switch verb can point at.
var switchTargetNouns = []string{
	"agent", "document", "doc", "file", "prd", "requirements", "design",
	"spec", "brainstorm", "idea",
}

// newIntentWords widen switch detection when a last document exists.
var newIntentWords = []string{
	"new", "another", "different", "instead", "switch", "change",
}

// kickoffPatterns mark a message as the start of a fresh authoring
// effort.
var kickoffPatterns = []string{
	"this will be a", "this will be an",
	"i want to build", "i want to create", "i want to develop", "i want to design",
	"we need", "we are building", "we are creating", "we are developing",
	"we're building", "we're creating", "we're developing",
}

// projectNouns are standalone signals of a project kickoff.
var projectNouns = []string{
	"project", "product", "application", "platform", "system", "mvp",
	"prd", "requirements", "design doc", "design-doc", "spec",
}

// questionWords disqualify a message from being a kickoff when it
// opens with one.
var questionWords = []string{
	"what", "why", "how", "when", "where", "who", "which", "can", "could",
	"should", "would", "do", "does", "is", "are",
}

// explicitNewDocPhrases make a start_new_doc decision unambiguous
// enough to skip confirmation at sufficient confidence.
var explicitNewDocPhrases = []string{
	"new document", "new doc", "new prd", "new brief", "new design",
	"new spec", "start a new", "create a new", "start fresh", "from scratch",
}

const (
	minKickoffLen = 24
	minSwitchLen  = 12
)

// IsRevisionRequest reports whether input asks for changes to an
// existing document: a revision verb plus either a document noun or a
// review-continuation phrase, and neither a kickoff nor a completion
// phrase.
func IsRevisionRequest(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" || docsession.IsCompletionPhrase(s) || IsKickoff(s) {
		return false
	}
	if !containsAny(s, revisionVerbs) {
		return false
	}
	return containsAny(s, documentNouns) || containsAny(s, reviewContinuationPhrases)
}

// IsSwitchCandidate reports whether input looks like a request to
// change agents or documents and therefore deserves the model-assisted
// classifier.
func IsSwitchCandidate(input string, hasLastDoc bool) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return false
	}

	if containsAny(s, switchVerbs) && containsAny(s, switchTargetNouns) {
		return true
	}
	return hasLastDoc && len(s) >= minSwitchLen && containsAny(s, newIntentWords)
}

// IsKickoff reports whether input reads like the start of a fresh
// authoring effort: long enough, not opening with a question word, and
// carrying either a kickoff pattern or a project noun.
func IsKickoff(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	if len(s) < minKickoffLen {
		return false
	}

	first := s
	if idx := strings.IndexAny(s, " \t"); idx > 0 {
		first = s[:idx]
	}
	for _, q := range questionWords {
		if first == q {
			return false
		}
	}

	return containsAny(s, kickoffPatterns) || containsAny(s, projectNouns)
}

// IsExplicitNewDocRequest reports whether input unambiguously asks for
// a brand-new document.
func IsExplicitNewDocRequest(input string) bool {
	return containsAny(strings.ToLower(input), explicitNewDocPhrases)
}
