package docsession

import (
	"fmt"
	"strings"
	"text/template"
)

// Draft skeletons: the deterministic initial documents used when the
// model is unavailable or its drafting call fails. Every major section
// for the type is present with a [TBD] placeholder so later turns have
// stable section names to merge into.

const productBriefTemplate = `# {{.Title}}

## Overview

{{.Seed}}

## Problem Statement

[TBD]

## Target Users

[TBD]

## Goals

[TBD]

## Out of Scope

[TBD]

## Success Criteria

[TBD]

## Open Questions

[TBD]
`

const requirementsTemplate = `# {{.Title}} — Requirements

## Overview

{{.Seed}}

## Functional Requirements

[TBD]

## Non-Functional Requirements

[TBD]

## User Stories

[TBD]

## Constraints

[TBD]

## Open Questions

[TBD]
`

const designTemplate = `# {{.Title}} — Design

## Overview

{{.Seed}}

## Architecture

[TBD]

## Data Model

[TBD]

## API

[TBD]

## Trade-offs

[TBD]

## Open Questions

[TBD]
`

const specificationTemplate = `# {{.Title}} — Specification

## Overview

{{.Seed}}

## Scope

[TBD]

## Behavior

[TBD]

## Edge Cases

[TBD]

## Acceptance Criteria

[TBD]

## Open Questions

[TBD]
`

const brainstormTemplate = `# {{.Title}} — Ideas

## Starting Point

{{.Seed}}

## Ideas

[TBD]

## Themes

[TBD]

## Next Steps

[TBD]
`

var draftTemplates = map[DocType]*template.Template{
	TypeProductBrief:  template.Must(template.New("product-brief").Parse(productBriefTemplate)),
	TypeRequirements:  template.Must(template.New("requirements").Parse(requirementsTemplate)),
	TypeDesign:        template.Must(template.New("design").Parse(designTemplate)),
	TypeSpecification: template.Must(template.New("specification").Parse(specificationTemplate)),
	TypeBrainstorm:    template.Must(template.New("brainstorm").Parse(brainstormTemplate)),
}

// DraftSkeleton renders the deterministic initial document for a type.
// seed is the user's kickoff input, quoted into the overview so the
// document never starts empty.
func DraftSkeleton(docType DocType, title, seed string) string {
	tmpl, ok := draftTemplates[docType]
	if !ok {
		tmpl = draftTemplates[TypeProductBrief]
	}

	var b strings.Builder
	err := tmpl.Execute(&b, struct{ Title, Seed string }{Title: title, Seed: strings.TrimSpace(seed)})
	if err != nil {
		// Templates are static and parse at init; execution over two
		// strings cannot realistically fail. Degrade anyway.
		return fmt.Sprintf("# %s\n\n%s\n", title, seed)
	}
	return b.String()
}

// firstQuestions are the deterministic follow-up questions used when
// the model cannot supply one.
var firstQuestions = map[DocType]string{
	TypeProductBrief:  "What is the single most important problem this product solves, and for whom?",
	TypeRequirements:  "Which requirement is absolutely non-negotiable for the first version?",
	TypeDesign:        "What is the main architectural constraint this design must respect?",
	TypeSpecification: "Which behavior needs the most precise definition before implementation starts?",
	TypeBrainstorm:    "Which of these directions feels most promising to explore first?",
}

// FallbackQuestion returns the deterministic follow-up for a type.
func FallbackQuestion(docType DocType) string {
	if q, ok := firstQuestions[docType]; ok {
		return q
	}
	return firstQuestions[TypeProductBrief]
}
