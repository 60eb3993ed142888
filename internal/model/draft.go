package model

// WorkflowDraft is the untrusted output of the generation collaborator (an
// LLM call or a manual form). Malformed entries are tolerated: unknown stage
// names in a limbo zone are dropped during synthesis, missing fields surface
// later as gaps. A draft never reaches the graph without passing through the
// validating decoder.
type WorkflowDraft struct {
	Stages            []StageDraft     `json:"stages"`
	LimboZones        []LimboZoneDraft `json:"limbo_zones,omitempty"`
	SuggestedName     string           `json:"suggested_name,omitempty"`
	SuggestedIndustry string           `json:"suggested_industry,omitempty"`
}

// StageDraft mirrors Stage without ids or sequence numbers; both are assigned
// when the draft is promoted to a graph.
type StageDraft struct {
	Name         string              `json:"name"`
	Kind         StageKind           `json:"kind,omitempty"`
	ParallelWith []string            `json:"parallel_with,omitempty"`
	Description  string              `json:"description,omitempty"`
	AssignedTeam string              `json:"assigned_team,omitempty"`
	Inputs       []InputRequirement  `json:"inputs,omitempty"`
	Outputs      []OutputRequirement `json:"outputs,omitempty"`
	Dependencies []Dependency        `json:"dependencies,omitempty"`
}

// LimboZoneDraft references its stages by name, not id — the generator does
// not know the ids the graph will assign. Resolution is by exact name match.
type LimboZoneDraft struct {
	BetweenStages [2]string    `json:"between_stages"`
	Dependencies  []Dependency `json:"dependencies,omitempty"`
}
