package workflow

import (
	"fmt"
	"strings"

	"flowforge.app/forge/internal/model"
)

// QuestionsFromGaps is the deterministic fallback mapping from gaps to
// enrichment questions: 1:1 and order-preserving. It is used whenever the
// external phrasing collaborator is unavailable or returns malformed output,
// so the enrichment loop never blocks on it.
func QuestionsFromGaps(gaps []model.Gap) []model.EnrichmentQuestion {
	questions := make([]model.EnrichmentQuestion, len(gaps))
	for i, g := range gaps {
		questions[i] = QuestionFromGap(g)
	}
	return questions
}

// QuestionFromGap maps one gap to one question. The pointer and field are
// copied verbatim so the answer lands on the exact element the gap flagged.
func QuestionFromGap(gap model.Gap) model.EnrichmentQuestion {
	text := gap.Suggestion
	if text == "" {
		text = gap.Message
	}

	return model.EnrichmentQuestion{
		ID:             questionID(gap),
		Text:           text,
		Kind:           questionKind(gap.Kind),
		StageIndex:     gap.StageIndex,
		LimboZoneIndex: gap.LimboZoneIndex,
		Field:          gap.Field,
		Required:       gap.Severity.Blocking(),
		Priority:       gap.Severity,
	}
}

func questionKind(kind model.GapKind) model.QuestionKind {
	switch kind {
	case model.GapKindMissingInput:
		return model.QuestionKindInput
	case model.GapKindMissingOutput:
		return model.QuestionKindOutput
	case model.GapKindMissingTeam:
		return model.QuestionKindTeam
	case model.GapKindThinDescription:
		return model.QuestionKindDescription
	case model.GapKindUnlinkedDependency:
		return model.QuestionKindDependency
	default:
		return model.QuestionKindGeneral
	}
}

// questionID derives a stable id from the gap's target so re-analyzing an
// unchanged graph yields the same question ids, which keeps answers
// correlatable across enrichment rounds.
func questionID(gap model.Gap) string {
	parts := []string{"q", string(gap.Kind)}
	if gap.StageIndex != nil {
		parts = append(parts, fmt.Sprintf("stage-%d", *gap.StageIndex))
	}
	if gap.LimboZoneIndex != nil {
		parts = append(parts, fmt.Sprintf("limbo-%d", *gap.LimboZoneIndex))
	}
	if gap.Field != "" {
		field := strings.NewReplacer("[", "-", "]", "", ".", "-").Replace(gap.Field)
		parts = append(parts, field)
	}
	return strings.Join(parts, ":")
}
