package model

// GapKind identifies what is missing or unlinked in the workflow spec.
type GapKind string

const (
	GapKindMissingInput       GapKind = "missing_input"
	GapKindMissingOutput      GapKind = "missing_output"
	GapKindMissingTeam        GapKind = "missing_team"
	GapKindUnlinkedDependency GapKind = "unlinked_dependency"
	GapKindThinDescription    GapKind = "thin_description"
	GapKindMissingLimboDetail GapKind = "missing_limbo_details"
	GapKindMissingName        GapKind = "missing_name"
)

type GapSeverity string

const (
	GapSeverityCritical GapSeverity = "critical"
	GapSeverityHigh     GapSeverity = "high"
	GapSeverityMedium   GapSeverity = "medium"
	GapSeverityLow      GapSeverity = "low"
)

// Blocking reports whether the severity blocks saving when incomplete
// workflows are not allowed.
func (s GapSeverity) Blocking() bool {
	return s == GapSeverityCritical || s == GapSeverityHigh
}

// Gap is a structurally or semantically incomplete element of the workflow,
// found by static analysis. The pointer is either a stage index or a limbo
// zone index, never both. Gaps are derived from a graph snapshot and never
// stored, so they cannot go stale independently of the graph.
type Gap struct {
	Kind           GapKind     `json:"kind"`
	Severity       GapSeverity `json:"severity"`
	StageIndex     *int        `json:"stage_index,omitempty"`
	LimboZoneIndex *int        `json:"limbo_zone_index,omitempty"`
	Field          string      `json:"field,omitempty"`
	Message        string      `json:"message"`
	Suggestion     string      `json:"suggestion,omitempty"`
}

// GateResult is the completeness gate's verdict on a gap list.
type GateResult struct {
	Complete     bool  `json:"complete"`
	BlockingGaps []Gap `json:"blocking_gaps"`
	Warnings     []Gap `json:"warnings"`
}
