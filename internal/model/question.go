package model

// QuestionKind tells the answer applier which patch to perform.
type QuestionKind string

const (
	QuestionKindInput       QuestionKind = "input"
	QuestionKindOutput      QuestionKind = "output"
	QuestionKindTeam        QuestionKind = "team"
	QuestionKindDescription QuestionKind = "description"
	QuestionKindDependency  QuestionKind = "dependency"
	QuestionKindGeneral     QuestionKind = "general"
)

// EnrichmentQuestion asks the user to resolve a gap. The pointer and field
// address the exact graph element the answer will patch; the wire form of
// dependency fields is "dependencies[<index>].linkedTo".
type EnrichmentQuestion struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Kind           QuestionKind `json:"kind"`
	StageIndex     *int         `json:"stage_index,omitempty"`
	LimboZoneIndex *int         `json:"limbo_zone_index,omitempty"`
	Field          string       `json:"field,omitempty"`
	Options        []string     `json:"options,omitempty"`
	Required       bool         `json:"required"`
	Priority       GapSeverity  `json:"priority"`
}

// Answer is the user's free-form response to one question.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}
