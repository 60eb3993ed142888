package workflow

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"flowforge.app/forge/common"
	"flowforge.app/forge/internal/model"
)

// Synthesize maintains the limbo zone invariant: exactly one zone per
// sequence-adjacent stage pair, none for non-adjacent pairs, none referencing
// a stage that no longer exists. Existing zones whose pair is still adjacent
// are kept as-is, dependencies included; everything else is dropped with a
// warning. It never fails.
func Synthesize(stages []model.Stage, existing []model.LimboZone) []model.LimboZone {
	sorted := append([]model.Stage(nil), stages...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	byPair := make(map[[2]string]model.LimboZone, len(existing))
	for _, z := range existing {
		if _, dup := byPair[z.BetweenStages]; dup {
			slog.Warn("dropping duplicate limbo zone", "from", z.BetweenStages[0], "to", z.BetweenStages[1])
			continue
		}
		byPair[z.BetweenStages] = z
	}

	zones := make([]model.LimboZone, 0, max(len(sorted)-1, 0))
	kept := make(map[[2]string]bool, len(byPair))
	for i := 0; i+1 < len(sorted); i++ {
		pair := [2]string{sorted[i].ID, sorted[i+1].ID}
		if z, ok := byPair[pair]; ok {
			zones = append(zones, z)
		} else {
			zones = append(zones, model.LimboZone{
				ID:            limboZoneID(pair[0], pair[1]),
				BetweenStages: pair,
				Dependencies:  []model.Dependency{},
			})
		}
		kept[pair] = true
	}

	for pair := range byPair {
		if !kept[pair] {
			slog.Warn("dropping limbo zone for non-adjacent pair", "from", pair[0], "to", pair[1])
		}
	}

	return zones
}

// SynthesizeFromDraft resolves suggested zones by exact stage-name match and
// then synthesizes. A suggestion whose names do not resolve to a currently
// adjacent pair is dropped; there is no fuzzy matching.
func SynthesizeFromDraft(stages []model.Stage, suggested []model.LimboZoneDraft) []model.LimboZone {
	idByName := make(map[string]string, len(stages))
	for _, s := range stages {
		idByName[s.Name] = s.ID
	}

	resolved := make([]model.LimboZone, 0, len(suggested))
	for _, d := range suggested {
		fromID, fromOK := idByName[d.BetweenStages[0]]
		toID, toOK := idByName[d.BetweenStages[1]]
		if !fromOK || !toOK {
			slog.Warn("dropping suggested limbo zone with unknown stage name",
				"from", d.BetweenStages[0], "to", d.BetweenStages[1])
			continue
		}
		deps := d.Dependencies
		if deps == nil {
			deps = []model.Dependency{}
		}
		resolved = append(resolved, model.LimboZone{
			ID:            limboZoneID(fromID, toID),
			BetweenStages: [2]string{fromID, toID},
			Dependencies:  deps,
		})
	}

	return Synthesize(stages, resolved)
}

// NewGraphFromDraft promotes an (already decoded) draft into a normalized
// graph: stage ids assigned from slugged names, sequences renumbered dense
// 1..N in draft order, limbo zones synthesized.
func NewGraphFromDraft(draft model.WorkflowDraft) model.WorkflowGraph {
	stages := make([]model.Stage, 0, len(draft.Stages))
	seen := make(map[string]int, len(draft.Stages))

	for i, d := range draft.Stages {
		stage := model.Stage{
			ID:           uniqueStageID(d.Name, seen),
			Sequence:     i + 1,
			Name:         d.Name,
			Kind:         d.Kind,
			ParallelWith: d.ParallelWith,
			Description:  d.Description,
			AssignedTeam: d.AssignedTeam,
			Inputs:       d.Inputs,
			Outputs:      d.Outputs,
			Dependencies: d.Dependencies,
		}
		if stage.Kind == "" {
			stage.Kind = model.StageKindSequential
		}
		if stage.Inputs == nil {
			stage.Inputs = []model.InputRequirement{}
		}
		if stage.Outputs == nil {
			stage.Outputs = []model.OutputRequirement{}
		}
		if stage.Dependencies == nil {
			stage.Dependencies = []model.Dependency{}
		}
		stages = append(stages, stage)
	}

	return model.WorkflowGraph{
		Name:       strings.TrimSpace(draft.SuggestedName),
		Industry:   strings.TrimSpace(draft.SuggestedIndustry),
		Stages:     stages,
		LimboZones: SynthesizeFromDraft(stages, draft.LimboZones),
	}
}

// AddStage returns a new graph with the stage appended at the end of the
// sequence. Only the zone between the new stage and its predecessor is
// created; existing zones are untouched.
func AddStage(g model.WorkflowGraph, stage model.Stage) model.WorkflowGraph {
	out := g.Clone()

	if stage.ID == "" {
		seen := make(map[string]int, len(out.Stages))
		for _, s := range out.Stages {
			seen[s.ID] = 1
		}
		stage.ID = uniqueStageID(stage.Name, seen)
	}
	if stage.Kind == "" {
		stage.Kind = model.StageKindSequential
	}
	if stage.Inputs == nil {
		stage.Inputs = []model.InputRequirement{}
	}
	if stage.Outputs == nil {
		stage.Outputs = []model.OutputRequirement{}
	}
	if stage.Dependencies == nil {
		stage.Dependencies = []model.Dependency{}
	}
	stage.Sequence = len(out.Stages) + 1

	out.Stages = append(out.Stages, stage)
	out.LimboZones = Synthesize(out.Stages, out.LimboZones)
	return out
}

// RemoveStage returns a new graph without the named stage. Remaining stages
// are renumbered to a dense 1..N-1 range and zones re-synthesized, so every
// zone that referenced the removed stage disappears and the freshly adjacent
// pair gets a new empty zone. Removing an unknown stage id is a no-op.
func RemoveStage(g model.WorkflowGraph, stageID string) model.WorkflowGraph {
	out := g.Clone()

	stages := out.Stages[:0]
	for _, s := range out.Stages {
		if s.ID != stageID {
			stages = append(stages, s)
		}
	}
	out.Stages = stages
	renumber(out.Stages)
	out.LimboZones = Synthesize(out.Stages, out.LimboZones)
	return out
}

// Normalize renumbers sequences dense 1..N (preserving relative order) and
// re-synthesizes zones. Used after decoding external drafts whose sequence
// numbers may be sparse or missing.
func Normalize(g model.WorkflowGraph) model.WorkflowGraph {
	out := g.Clone()
	sort.SliceStable(out.Stages, func(i, j int) bool { return out.Stages[i].Sequence < out.Stages[j].Sequence })
	renumber(out.Stages)
	out.LimboZones = Synthesize(out.Stages, out.LimboZones)
	return out
}

// Validate checks the structural invariants that hold after every graph
// operation. A failure here is a programmer error, not user input.
func Validate(g model.WorkflowGraph) error {
	ids := make(map[string]bool, len(g.Stages))
	for i, s := range g.Stages {
		if s.ID == "" {
			return fmt.Errorf("stage %d has an empty id", i)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate stage id %q", s.ID)
		}
		ids[s.ID] = true
		if s.Sequence != i+1 {
			return fmt.Errorf("stage %q has sequence %d, want %d", s.ID, s.Sequence, i+1)
		}
	}

	if want, got := max(len(g.Stages)-1, 0), len(g.LimboZones); want != got {
		return fmt.Errorf("graph has %d limbo zones, want %d", got, want)
	}
	for i, z := range g.LimboZones {
		if z.BetweenStages[0] != g.Stages[i].ID || z.BetweenStages[1] != g.Stages[i+1].ID {
			return fmt.Errorf("limbo zone %d pair (%s, %s) is not the adjacent pair (%s, %s)",
				i, z.BetweenStages[0], z.BetweenStages[1], g.Stages[i].ID, g.Stages[i+1].ID)
		}
	}
	return nil
}

func renumber(stages []model.Stage) {
	for i := range stages {
		stages[i].Sequence = i + 1
	}
}

func uniqueStageID(name string, seen map[string]int) string {
	base, err := common.Slugify(name, "stage")
	if err != nil {
		base = "stage"
	}
	seen[base]++
	if seen[base] == 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, seen[base])
}

func limboZoneID(fromID, toID string) string {
	return fmt.Sprintf("limbo-%s-%s", fromID, toID)
}
