package workflow

import (
	"fmt"
	"regexp"
	"strconv"

	"flowforge.app/forge/internal/model"
)

// The wire form "dependencies[<index>].linkedTo" is a contract shared with
// the question-phrasing collaborator. It is parsed here, once, and nowhere
// else; everything past this point works with the tagged FieldPath union.
var depPathPattern = regexp.MustCompile(`^dependencies\[(\d+)\]\.linkedTo$`)

type FieldPathKind string

const (
	FieldPathStageField      FieldPathKind = "stage_field"
	FieldPathStageDependency FieldPathKind = "stage_dependency"
	FieldPathLimboDependency FieldPathKind = "limbo_dependency"
)

// FieldPath addresses a single patchable element of a workflow graph.
type FieldPath struct {
	Kind           FieldPathKind
	StageIndex     int
	LimboZoneIndex int
	DepIndex       int
	Field          string
}

// PathError reports an unparseable or unresolvable field path. It is a
// per-answer condition: callers report it and move on to the next answer.
type PathError struct {
	Field  string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("field path %q: %s", e.Field, e.Reason)
}

// ParseFieldPath turns a question's field string plus its pointer into a
// FieldPath. Dependency paths resolve against whichever pointer is set; a
// dependency path with no pointer at all is an addressing error.
func ParseFieldPath(field string, stageIndex, limboZoneIndex *int) (FieldPath, error) {
	if m := depPathPattern.FindStringSubmatch(field); m != nil {
		depIndex, err := strconv.Atoi(m[1])
		if err != nil {
			return FieldPath{}, &PathError{Field: field, Reason: "dependency index is not a number"}
		}
		switch {
		case limboZoneIndex != nil:
			return FieldPath{Kind: FieldPathLimboDependency, LimboZoneIndex: *limboZoneIndex, DepIndex: depIndex, Field: "linkedTo"}, nil
		case stageIndex != nil:
			return FieldPath{Kind: FieldPathStageDependency, StageIndex: *stageIndex, DepIndex: depIndex, Field: "linkedTo"}, nil
		default:
			return FieldPath{}, &PathError{Field: field, Reason: "dependency path has neither a stage nor a limbo zone pointer"}
		}
	}

	if stageIndex == nil {
		return FieldPath{}, &PathError{Field: field, Reason: "stage field path has no stage pointer"}
	}
	return FieldPath{Kind: FieldPathStageField, StageIndex: *stageIndex, Field: field}, nil
}

// Wire serializes the path back to the wire contract form.
func (p FieldPath) Wire() string {
	switch p.Kind {
	case FieldPathStageDependency, FieldPathLimboDependency:
		return fmt.Sprintf("dependencies[%d].linkedTo", p.DepIndex)
	default:
		return p.Field
	}
}

// DependencyFieldPath builds the wire form for a dependency at the given
// array index.
func DependencyFieldPath(depIndex int) string {
	return fmt.Sprintf("dependencies[%d].linkedTo", depIndex)
}

// resolveDependency returns a pointer to the addressed dependency slice and
// index inside the (already cloned) graph, or a PathError when the path runs
// off the end of an array.
func resolveDependency(g *model.WorkflowGraph, p FieldPath) (*model.Dependency, error) {
	switch p.Kind {
	case FieldPathStageDependency:
		if p.StageIndex < 0 || p.StageIndex >= len(g.Stages) {
			return nil, &PathError{Field: p.Wire(), Reason: fmt.Sprintf("stage index %d out of range", p.StageIndex)}
		}
		deps := g.Stages[p.StageIndex].Dependencies
		if p.DepIndex < 0 || p.DepIndex >= len(deps) {
			return nil, &PathError{Field: p.Wire(), Reason: fmt.Sprintf("dependency index %d out of range for stage %d", p.DepIndex, p.StageIndex)}
		}
		return &deps[p.DepIndex], nil
	case FieldPathLimboDependency:
		if p.LimboZoneIndex < 0 || p.LimboZoneIndex >= len(g.LimboZones) {
			return nil, &PathError{Field: p.Wire(), Reason: fmt.Sprintf("limbo zone index %d out of range", p.LimboZoneIndex)}
		}
		deps := g.LimboZones[p.LimboZoneIndex].Dependencies
		if p.DepIndex < 0 || p.DepIndex >= len(deps) {
			return nil, &PathError{Field: p.Wire(), Reason: fmt.Sprintf("dependency index %d out of range for limbo zone %d", p.DepIndex, p.LimboZoneIndex)}
		}
		return &deps[p.DepIndex], nil
	default:
		return nil, &PathError{Field: p.Wire(), Reason: "not a dependency path"}
	}
}
