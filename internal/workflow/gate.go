package workflow

import "flowforge.app/forge/internal/model"

// EvaluateGate decides whether a graph may be saved. Critical and high gaps
// block unless the caller explicitly allows an incomplete save; medium and
// low gaps are surfaced as warnings either way. A gate rejection is a result,
// not an error — the caller presents the blocking list and may retry with
// allowIncomplete set.
func EvaluateGate(gaps []model.Gap, allowIncomplete bool) model.GateResult {
	result := model.GateResult{
		BlockingGaps: []model.Gap{},
		Warnings:     []model.Gap{},
	}

	for _, g := range gaps {
		switch {
		case g.Severity.Blocking():
			if !allowIncomplete {
				result.BlockingGaps = append(result.BlockingGaps, g)
			}
		default:
			result.Warnings = append(result.Warnings, g)
		}
	}

	result.Complete = len(result.BlockingGaps) == 0
	return result
}
