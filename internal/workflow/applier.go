package workflow

import (
	"errors"
	"fmt"
	"strings"

	"flowforge.app/forge/internal/model"
)

// ApplyError reports a single answer that could not be applied. The batch it
// belongs to proceeds; the graph is unchanged for that answer.
type ApplyError struct {
	QuestionID string
	Field      string
	Reason     string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("answer to question %q: %s", e.QuestionID, e.Reason)
}

// QuestionAnswer pairs a question with the user's answer value.
type QuestionAnswer struct {
	Question model.EnrichmentQuestion
	Value    string
}

// Apply patches the graph from one question and answer, returning a new
// graph; the input snapshot is never mutated. Replace semantics on list
// fields guarantee idempotence: re-submitting the same answer yields the same
// final state, never accumulating duplicates. On error the input graph is
// returned unchanged and the error is always an *ApplyError.
func Apply(g model.WorkflowGraph, q model.EnrichmentQuestion, value string) (model.WorkflowGraph, error) {
	value = strings.TrimSpace(value)

	switch q.Kind {
	case model.QuestionKindInput:
		return applyToStage(g, q, func(s *model.Stage) {
			s.Inputs = []model.InputRequirement{{Name: value}}
		})
	case model.QuestionKindOutput:
		return applyToStage(g, q, func(s *model.Stage) {
			s.Outputs = []model.OutputRequirement{{Name: value}}
		})
	case model.QuestionKindTeam:
		return applyToStage(g, q, func(s *model.Stage) {
			s.AssignedTeam = value
		})
	case model.QuestionKindDescription:
		return applyToStage(g, q, func(s *model.Stage) {
			s.Description = value
		})
	case model.QuestionKindDependency:
		return applyToDependency(g, q, value)
	case model.QuestionKindGeneral:
		return applyGeneral(g, q, value)
	default:
		return g, &ApplyError{QuestionID: q.ID, Field: q.Field, Reason: fmt.Sprintf("unsupported question kind %q", q.Kind)}
	}
}

// ApplyAll applies a batch of answers in submission order. A failing answer
// is recorded and skipped; the rest of the batch still applies.
func ApplyAll(g model.WorkflowGraph, answers []QuestionAnswer) (model.WorkflowGraph, []ApplyError) {
	var failed []ApplyError
	for _, qa := range answers {
		next, err := Apply(g, qa.Question, qa.Value)
		if err != nil {
			var applyErr *ApplyError
			if errors.As(err, &applyErr) {
				failed = append(failed, *applyErr)
			} else {
				failed = append(failed, ApplyError{QuestionID: qa.Question.ID, Field: qa.Question.Field, Reason: err.Error()})
			}
			continue
		}
		g = next
	}
	return g, failed
}

func applyToStage(g model.WorkflowGraph, q model.EnrichmentQuestion, patch func(*model.Stage)) (model.WorkflowGraph, error) {
	if q.StageIndex == nil {
		return g, &ApplyError{QuestionID: q.ID, Field: q.Field, Reason: "question has no stage pointer"}
	}
	if *q.StageIndex < 0 || *q.StageIndex >= len(g.Stages) {
		return g, &ApplyError{QuestionID: q.ID, Field: q.Field, Reason: fmt.Sprintf("stage index %d out of range", *q.StageIndex)}
	}

	out := g.Clone()
	patch(&out.Stages[*q.StageIndex])
	return out, nil
}

func applyToDependency(g model.WorkflowGraph, q model.EnrichmentQuestion, value string) (model.WorkflowGraph, error) {
	path, err := ParseFieldPath(q.Field, q.StageIndex, q.LimboZoneIndex)
	if err != nil {
		return g, asApplyError(q, err)
	}

	out := g.Clone()
	dep, err := resolveDependency(&out, path)
	if err != nil {
		return g, asApplyError(q, err)
	}
	dep.LinkedTo = value
	return out, nil
}

// applyGeneral handles the catch-all question kinds: naming the workflow and
// filling in an empty limbo zone. An empty zone's answer becomes its single
// transition condition; replace semantics keep this idempotent too.
func applyGeneral(g model.WorkflowGraph, q model.EnrichmentQuestion, value string) (model.WorkflowGraph, error) {
	switch {
	case q.LimboZoneIndex != nil && q.Field == "dependencies":
		if *q.LimboZoneIndex < 0 || *q.LimboZoneIndex >= len(g.LimboZones) {
			return g, &ApplyError{QuestionID: q.ID, Field: q.Field, Reason: fmt.Sprintf("limbo zone index %d out of range", *q.LimboZoneIndex)}
		}
		out := g.Clone()
		out.LimboZones[*q.LimboZoneIndex].Dependencies = []model.Dependency{{
			Kind:        model.DependencyKindTaskCompletion,
			Description: value,
		}}
		return out, nil
	case q.Field == "name":
		out := g.Clone()
		out.Name = value
		return out, nil
	default:
		return g, &ApplyError{QuestionID: q.ID, Field: q.Field, Reason: "general question does not target a known field"}
	}
}

func asApplyError(q model.EnrichmentQuestion, err error) *ApplyError {
	var pathErr *PathError
	if errors.As(err, &pathErr) {
		return &ApplyError{QuestionID: q.ID, Field: pathErr.Field, Reason: pathErr.Reason}
	}
	return &ApplyError{QuestionID: q.ID, Field: q.Field, Reason: err.Error()}
}
