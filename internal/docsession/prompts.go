package docsession

import (
	"fmt"

	"github.com/draftyhq/drafty/internal/llm"
)

// Prompt builders for the three session round-trips. Each returns the
// full message list for one llm.Model.Complete call; the contracts the
// model must follow (JSON object, bare markdown, delimiter pair) are
// spelled out in the system message and enforced leniently by the
// parsers in parse.go.

func classifyMessages(input string) []llm.Message {
	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You classify a user's request into a document type. " +
				"Answer with a single JSON object and nothing else: " +
				`{"docType": "<product-brief|requirements|design|specification|exploratory-brainstorm>", "title": "<short document title>"}`,
		},
		{Role: llm.RoleUser, Content: input},
	}
}

func draftMessages(docType DocType, title, input string) []llm.Message {
	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: fmt.Sprintf(
				"You draft structured markdown documents. Produce an initial %s titled %q "+
					"based on the user's request. Include every major section for this document type "+
					"and write [TBD] where information is missing. Answer with the bare markdown "+
					"document only — no commentary, no code fences.",
				docType, title,
			),
		},
		{Role: llm.RoleUser, Content: input},
	}
}

func questionMessages(docType DocType, draft string) []llm.Message {
	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: fmt.Sprintf(
				"You help refine a %s draft. Read the draft and ask exactly one focused "+
					"follow-up question targeting its weakest or most incomplete section. "+
					"Answer with the question only.",
				docType,
			),
		},
		{Role: llm.RoleUser, Content: draft},
	}
}

func refineMessages(sess *Session, current, feedback string) []llm.Message {
	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: fmt.Sprintf(
				"You maintain a %s draft. Merge the user's feedback into the document, "+
					"changing only what the feedback touches. Answer in exactly this shape:\n\n"+
					"%s\n<the full updated markdown document>\n%s\n<exactly one follow-up question>",
				sess.DocType, DocumentDelimiter, QuestionDelimiter,
			),
		},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Current document:\n\n%s\n\nFeedback:\n\n%s", current, feedback)},
	}
}
