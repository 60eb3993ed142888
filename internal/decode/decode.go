// Package decode validates untrusted collaborator JSON — generated drafts and
// phrased question lists — into typed values. Nothing from an LLM or an
// external form reaches the graph without passing through here.
package decode

import (
	"encoding/json"
	"fmt"
	"strings"

	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/workflow"
)

// Error is a structured parse failure: which part of the payload was bad and
// why. Collaborator failures are recoverable, so callers branch on this
// rather than surfacing it to the user.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("decoding %s: %s", e.Path, e.Reason)
}

// WorkflowDraft decodes a draft payload. Entry-level problems are tolerated
// where the downstream pipeline recovers from them anyway (the synthesizer
// drops unresolvable limbo zones, the analyzer flags missing fields as gaps);
// a draft is only rejected when it is syntactically broken or holds no usable
// stage at all.
func WorkflowDraft(data []byte) (model.WorkflowDraft, error) {
	var draft model.WorkflowDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return model.WorkflowDraft{}, &Error{Path: "draft", Reason: err.Error()}
	}

	stages := draft.Stages[:0]
	for _, s := range draft.Stages {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		if s.Kind != model.StageKindSequential && s.Kind != model.StageKindParallel {
			s.Kind = model.StageKindSequential
		}
		stages = append(stages, s)
	}
	draft.Stages = stages

	if len(draft.Stages) == 0 {
		return model.WorkflowDraft{}, &Error{Path: "draft.stages", Reason: "no usable stages"}
	}

	zones := draft.LimboZones[:0]
	for _, z := range draft.LimboZones {
		if strings.TrimSpace(z.BetweenStages[0]) == "" || strings.TrimSpace(z.BetweenStages[1]) == "" {
			continue
		}
		zones = append(zones, z)
	}
	draft.LimboZones = zones

	return draft, nil
}

// Questions decodes a phrased question list. Unlike drafts, questions are
// held to the strict wire contract: a single malformed entry rejects the
// whole response, and the caller falls back to the deterministic mapping.
func Questions(data []byte) ([]model.EnrichmentQuestion, error) {
	var questions []model.EnrichmentQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, &Error{Path: "questions", Reason: err.Error()}
	}

	for i, q := range questions {
		path := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Text) == "" {
			return nil, &Error{Path: path + ".text", Reason: "empty question text"}
		}
		switch q.Kind {
		case model.QuestionKindInput, model.QuestionKindOutput, model.QuestionKindTeam,
			model.QuestionKindDescription, model.QuestionKindDependency, model.QuestionKindGeneral:
		default:
			return nil, &Error{Path: path + ".kind", Reason: fmt.Sprintf("unknown question kind %q", q.Kind)}
		}
		if q.Kind == model.QuestionKindDependency {
			if _, err := workflow.ParseFieldPath(q.Field, q.StageIndex, q.LimboZoneIndex); err != nil {
				return nil, &Error{Path: path + ".field", Reason: err.Error()}
			}
		}
	}

	return questions, nil
}
