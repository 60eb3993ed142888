package model

import "time"

// StageKind distinguishes stages that run one after another from stages that
// run alongside siblings.
type StageKind string

const (
	StageKindSequential StageKind = "sequential"
	StageKindParallel   StageKind = "parallel"
)

// DependencyKind captures what gates progression: a prior task finishing, a
// human approval, elapsed time, or an external event.
type DependencyKind string

const (
	DependencyKindTaskCompletion DependencyKind = "task_completion"
	DependencyKindApproval       DependencyKind = "approval"
	DependencyKindTimeBased      DependencyKind = "time_based"
	DependencyKindExternal       DependencyKind = "external"
)

// Dependency is a precondition attached to a stage or limbo zone. Any
// dependency whose kind is not time_based is considered unlinked until
// LinkedTo names a concrete task or stage. Unlinked is a gap, not an error.
type Dependency struct {
	Kind        DependencyKind `json:"kind"`
	Description string         `json:"description"`
	LinkedTo    string         `json:"linked_to,omitempty"`
}

// Linked reports whether the dependency is tied to a concrete reference.
// Time-based dependencies never need a link.
func (d Dependency) Linked() bool {
	return d.Kind == DependencyKindTimeBased || d.LinkedTo != ""
}

// InputRequirement names a material or artifact a stage consumes.
type InputRequirement struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// OutputRequirement names what a stage produces.
type OutputRequirement struct {
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
}

// Stage is a named, sequence-ordered step of a workflow.
// Sequence numbers are unique and dense 1..N across a graph.
type Stage struct {
	ID           string              `json:"id"`
	Sequence     int                 `json:"sequence"`
	Name         string              `json:"name"`
	Kind         StageKind           `json:"kind"`
	ParallelWith []string            `json:"parallel_with,omitempty"`
	Description  string              `json:"description"`
	AssignedTeam string              `json:"assigned_team,omitempty"`
	Inputs       []InputRequirement  `json:"inputs"`
	Outputs      []OutputRequirement `json:"outputs"`
	Dependencies []Dependency        `json:"dependencies"`
}

// LimboZone is the transition between two sequence-adjacent stages.
// BetweenStages is ordered: [0] is the earlier stage's id, [1] the later's.
type LimboZone struct {
	ID            string       `json:"id"`
	BetweenStages [2]string    `json:"between_stages"`
	Dependencies  []Dependency `json:"dependencies"`
}

// WorkflowGraph is the full specification under enrichment: ordered stages
// plus the limbo zones between them. Graphs are treated as immutable
// snapshots; every structural operation returns a new graph.
type WorkflowGraph struct {
	Name       string      `json:"name,omitempty"`
	Industry   string      `json:"industry,omitempty"`
	Stages     []Stage     `json:"stages"`
	LimboZones []LimboZone `json:"limbo_zones"`
}

// Clone returns a deep copy of the graph. Slices are copied element-wise so
// mutations of the copy never leak into the original snapshot.
func (g WorkflowGraph) Clone() WorkflowGraph {
	out := g
	out.Stages = make([]Stage, len(g.Stages))
	for i, s := range g.Stages {
		out.Stages[i] = s.clone()
	}
	out.LimboZones = make([]LimboZone, len(g.LimboZones))
	for i, z := range g.LimboZones {
		out.LimboZones[i] = z.clone()
	}
	return out
}

func (s Stage) clone() Stage {
	out := s
	out.ParallelWith = append([]string(nil), s.ParallelWith...)
	out.Inputs = append([]InputRequirement(nil), s.Inputs...)
	out.Outputs = append([]OutputRequirement(nil), s.Outputs...)
	out.Dependencies = append([]Dependency(nil), s.Dependencies...)
	return out
}

func (z LimboZone) clone() LimboZone {
	out := z
	out.Dependencies = append([]Dependency(nil), z.Dependencies...)
	return out
}

// StageByID returns the stage with the given id, or nil.
func (g WorkflowGraph) StageByID(id string) *Stage {
	for i := range g.Stages {
		if g.Stages[i].ID == id {
			return &g.Stages[i]
		}
	}
	return nil
}

// WorkflowStatus tracks a workflow record through its lifecycle. A workflow
// leaves this subsystem's ownership once saved.
type WorkflowStatus string

const (
	WorkflowStatusGenerating WorkflowStatus = "generating"
	WorkflowStatusDraft      WorkflowStatus = "draft"
	WorkflowStatusSaved      WorkflowStatus = "saved"
)

// Workflow is the persisted envelope around a graph snapshot.
type Workflow struct {
	ID        int64          `json:"id"`
	Status    WorkflowStatus `json:"status"`
	Prompt    string         `json:"prompt,omitempty"`
	Graph     WorkflowGraph  `json:"graph"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
