package workflow

import (
	"fmt"
	"strings"

	"flowforge.app/forge/internal/model"
)

// Descriptions shorter than this are too thin to execute against.
const minDescriptionLength = 20

// Analyze scans a graph for missing or unlinked information. It is pure and
// deterministic: two calls on an equal graph return an identical,
// identically-ordered gap list. Per-stage gaps come first in stage order,
// then per-zone gaps in zone order, then workflow-level gaps.
func Analyze(g model.WorkflowGraph) []model.Gap {
	gaps := []model.Gap{}

	for i := range g.Stages {
		gaps = append(gaps, analyzeStage(i, g.Stages[i])...)
	}
	for i := range g.LimboZones {
		gaps = append(gaps, analyzeLimboZone(i, g.LimboZones[i], g)...)
	}
	if strings.TrimSpace(g.Name) == "" {
		gaps = append(gaps, model.Gap{
			Kind:       model.GapKindMissingName,
			Severity:   model.GapSeverityLow,
			Field:      "name",
			Message:    "The workflow has no name",
			Suggestion: "What should this workflow be called?",
		})
	}

	return gaps
}

func analyzeStage(index int, s model.Stage) []model.Gap {
	var gaps []model.Gap
	at := ptr(index)

	if len(s.Inputs) == 0 {
		gaps = append(gaps, model.Gap{
			Kind:       model.GapKindMissingInput,
			Severity:   model.GapSeverityHigh,
			StageIndex: at,
			Field:      "inputs",
			Message:    fmt.Sprintf("Stage %q has no inputs defined", s.Name),
			Suggestion: fmt.Sprintf("What materials or information does the %q stage need before it can start?", s.Name),
		})
	}
	if len(s.Outputs) == 0 {
		gaps = append(gaps, model.Gap{
			Kind:       model.GapKindMissingOutput,
			Severity:   model.GapSeverityHigh,
			StageIndex: at,
			Field:      "outputs",
			Message:    fmt.Sprintf("Stage %q has no outputs defined", s.Name),
			Suggestion: fmt.Sprintf("What does the %q stage produce when it finishes?", s.Name),
		})
	}
	if strings.TrimSpace(s.AssignedTeam) == "" {
		gaps = append(gaps, model.Gap{
			Kind:       model.GapKindMissingTeam,
			Severity:   model.GapSeverityMedium,
			StageIndex: at,
			Field:      "assignedTeam",
			Message:    fmt.Sprintf("Stage %q has no team assigned", s.Name),
			Suggestion: fmt.Sprintf("Which team is responsible for the %q stage?", s.Name),
		})
	}
	if len(s.Description) < minDescriptionLength {
		gaps = append(gaps, model.Gap{
			Kind:       model.GapKindThinDescription,
			Severity:   model.GapSeverityLow,
			StageIndex: at,
			Field:      "description",
			Message:    fmt.Sprintf("Stage %q has a very short description", s.Name),
			Suggestion: fmt.Sprintf("Can you describe what happens during the %q stage in more detail?", s.Name),
		})
	}
	for j, dep := range s.Dependencies {
		if !dep.Linked() {
			gaps = append(gaps, model.Gap{
				Kind:       model.GapKindUnlinkedDependency,
				Severity:   model.GapSeverityHigh,
				StageIndex: at,
				Field:      DependencyFieldPath(j),
				Message:    fmt.Sprintf("Dependency %q on stage %q is not linked to a task", dep.Description, s.Name),
				Suggestion: fmt.Sprintf("Which task or stage does %q depend on?", dep.Description),
			})
		}
	}

	return gaps
}

func analyzeLimboZone(index int, z model.LimboZone, g model.WorkflowGraph) []model.Gap {
	at := ptr(index)
	from, to := stageNames(g, z)

	if len(z.Dependencies) == 0 {
		return []model.Gap{{
			Kind:           model.GapKindMissingLimboDetail,
			Severity:       model.GapSeverityMedium,
			LimboZoneIndex: at,
			Field:          "dependencies",
			Message:        fmt.Sprintf("The transition from %q to %q has no conditions defined", from, to),
			Suggestion:     fmt.Sprintf("What needs to happen between %q and %q before the next stage can begin?", from, to),
		}}
	}

	var gaps []model.Gap
	for j, dep := range z.Dependencies {
		if !dep.Linked() {
			gaps = append(gaps, model.Gap{
				Kind:           model.GapKindUnlinkedDependency,
				Severity:       model.GapSeverityHigh,
				LimboZoneIndex: at,
				Field:          DependencyFieldPath(j),
				Message:        fmt.Sprintf("Dependency %q in the transition from %q to %q is not linked to a task", dep.Description, from, to),
				Suggestion:     fmt.Sprintf("Which task or stage does %q depend on?", dep.Description),
			})
		}
	}
	return gaps
}

func stageNames(g model.WorkflowGraph, z model.LimboZone) (string, string) {
	from, to := z.BetweenStages[0], z.BetweenStages[1]
	if s := g.StageByID(from); s != nil {
		from = s.Name
	}
	if s := g.StageByID(to); s != nil {
		to = s.Name
	}
	return from, to
}

func ptr(i int) *int {
	return &i
}
