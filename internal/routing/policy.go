package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/draftyhq/drafty/internal/llm"
)

// Policy is the routing-intent classifier: an ordered rule cascade
// with the model-assisted classifier as one strategy in the middle.
type Policy struct {
	model  llm.Model // nil means heuristic-only
	logger *zap.Logger
}

// NewPolicy creates a Policy. model may be nil.
func NewPolicy(model llm.Model, logger *zap.Logger) *Policy {
	return &Policy{model: model, logger: logger}
}

// Evaluate classifies one message that arrived with no open session.
func (p *Policy) Evaluate(ctx context.Context, input, currentAgent string, lastDoc *LastDocument) Decision {
	// Rule 1: a revision request against a remembered document resumes
	// it directly. High confidence, never confirmed: resuming is never
	// more destructive than continuing.
	if lastDoc != nil && IsRevisionRequest(input) {
		return Decision{
			Action:     ActionResumeLastDoc,
			Confidence: 0.95,
			Reason:     "revision request against the last document",
		}
	}

	// Rule 2: switch-looking messages get the model's opinion.
	if IsSwitchCandidate(input, lastDoc != nil) {
		return p.classifySwitch(ctx, input, currentAgent, lastDoc)
	}

	// Rule 3: kickoff messages start a new document without the model.
	if IsKickoff(input) {
		return Decision{
			Action:     ActionStartNewDoc,
			Confidence: 0.9,
			Reason:     "message reads as a project kickoff",
		}
	}

	// Rule 4: everything else is plain agent chat.
	return Decision{
		Action:     ActionRouteToAgent,
		Confidence: 0.5,
		Reason:     "no document intent detected",
	}
}

// classifySwitch runs the model-assisted classifier, dropping to the
// pure heuristics on any failure.
func (p *Policy) classifySwitch(ctx context.Context, input, currentAgent string, lastDoc *LastDocument) Decision {
	if p.model == nil {
		return p.heuristicClassify(input, lastDoc)
	}

	output, err := p.model.Complete(ctx, classifyIntentMessages(input, currentAgent, lastDoc))
	if err != nil {
		p.logger.Warn("routing: intent classification call failed", zap.Error(err))
		return p.heuristicClassify(input, lastDoc)
	}

	dec, err := parseDecision(output)
	if err != nil {
		p.logger.Warn("routing: intent classification parse failed", zap.Error(err))
		return p.heuristicClassify(input, lastDoc)
	}
	return dec
}

// heuristicClassify reuses the revision/switch vocabularies as a pure
// fallback strategy, at deliberately lower confidence than either the
// model or the direct rules.
func (p *Policy) heuristicClassify(input string, lastDoc *LastDocument) Decision {
	if lastDoc != nil && IsRevisionRequest(input) {
		return Decision{
			Action:     ActionResumeLastDoc,
			Confidence: 0.6,
			Reason:     "heuristic fallback: revision wording",
		}
	}

	s := strings.ToLower(input)
	if containsAny(s, newIntentWords) && containsAny(s, switchTargetNouns) {
		return Decision{
			Action:               ActionStartNewDoc,
			Confidence:           0.6,
			Reason:               "heuristic fallback: new-target wording",
			RequiresConfirmation: true,
		}
	}

	return Decision{
		Action:     ActionRouteToAgent,
		Confidence: 0.5,
		Reason:     "heuristic fallback: no clear switch target",
	}
}

// NeedsConfirmation reports whether a decision must pass the yes/no
// gate before executing. Only start_new_doc ever gates, and only when
// it would displace a remembered document.
func NeedsConfirmation(dec Decision, input string, lastDoc *LastDocument) bool {
	if dec.Action != ActionStartNewDoc || lastDoc == nil {
		return false
	}
	if IsExplicitNewDocRequest(input) && dec.Confidence >= 0.7 {
		return false
	}
	return dec.RequiresConfirmation || dec.Confidence < 0.9
}

// --- Model contract ---

func classifyIntentMessages(input, currentAgent string, lastDoc *LastDocument) []llm.Message {
	lastDocLine := "none"
	if lastDoc != nil {
		lastDocLine = fmt.Sprintf("%s (%s)", lastDoc.Path, lastDoc.DocType)
	}

	return []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You classify a chat message into a routing action. Answer with a single JSON object " +
				"and nothing else: {\"action\": \"<start_new_doc|resume_last_doc|route_to_agent>\", " +
				"\"confidence\": <0..1>, \"reason\": \"<one sentence>\", \"requiresConfirmation\": <bool>, " +
				"\"targetDocType\": \"<optional document type>\", \"targetAgent\": \"<optional agent name>\"}",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf("Current agent: %s\nLast document: %s\nMessage: %s",
				currentAgent, lastDocLine, input),
		},
	}
}

// parseDecision extracts and validates the classifier's JSON object.
func parseDecision(output string) (Decision, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return Decision{}, fmt.Errorf("no JSON object in classifier output")
	}

	var dec Decision
	if err := json.Unmarshal([]byte(output[start:end+1]), &dec); err != nil {
		return Decision{}, fmt.Errorf("decoding classifier output: %w", err)
	}
	if err := ValidateAction(dec.Action); err != nil {
		return Decision{}, err
	}
	if dec.Confidence < 0 || dec.Confidence > 1 {
		return Decision{}, fmt.Errorf("classifier confidence %v out of range", dec.Confidence)
	}
	return dec, nil
}
