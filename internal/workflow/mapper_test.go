package workflow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/workflow"
)

var _ = Describe("QuestionsFromGaps", func() {
	It("maps gaps to questions 1:1 in order", func() {
		g := completeGraph()
		g.Stages[0].Inputs = nil
		g.Stages[1].AssignedTeam = ""

		gaps := workflow.Analyze(g)
		questions := workflow.QuestionsFromGaps(gaps)

		Expect(questions).To(HaveLen(len(gaps)))
		for i := range gaps {
			Expect(questions[i].Field).To(Equal(gaps[i].Field))
			Expect(questions[i].StageIndex).To(Equal(gaps[i].StageIndex))
			Expect(questions[i].LimboZoneIndex).To(Equal(gaps[i].LimboZoneIndex))
		}
	})

	It("prefers the gap's suggestion as question text", func() {
		q := workflow.QuestionFromGap(model.Gap{
			Kind:       model.GapKindMissingTeam,
			Severity:   model.GapSeverityMedium,
			Message:    "Stage has no team",
			Suggestion: "Which team runs this stage?",
		})

		Expect(q.Text).To(Equal("Which team runs this stage?"))
	})

	It("falls back to the message when there is no suggestion", func() {
		q := workflow.QuestionFromGap(model.Gap{
			Kind:     model.GapKindMissingName,
			Severity: model.GapSeverityLow,
			Message:  "The workflow has no name",
		})

		Expect(q.Text).To(Equal("The workflow has no name"))
	})

	It("marks blocking severities as required", func() {
		high := workflow.QuestionFromGap(model.Gap{Kind: model.GapKindMissingInput, Severity: model.GapSeverityHigh})
		low := workflow.QuestionFromGap(model.Gap{Kind: model.GapKindMissingName, Severity: model.GapSeverityLow})

		Expect(high.Required).To(BeTrue())
		Expect(high.Priority).To(Equal(model.GapSeverityHigh))
		Expect(low.Required).To(BeFalse())
	})

	It("maps gap kinds onto the patch kinds the applier understands", func() {
		cases := map[model.GapKind]model.QuestionKind{
			model.GapKindMissingInput:       model.QuestionKindInput,
			model.GapKindMissingOutput:      model.QuestionKindOutput,
			model.GapKindMissingTeam:        model.QuestionKindTeam,
			model.GapKindThinDescription:    model.QuestionKindDescription,
			model.GapKindUnlinkedDependency: model.QuestionKindDependency,
			model.GapKindMissingLimboDetail: model.QuestionKindGeneral,
			model.GapKindMissingName:        model.QuestionKindGeneral,
		}
		for gapKind, questionKind := range cases {
			q := workflow.QuestionFromGap(model.Gap{Kind: gapKind, Severity: model.GapSeverityMedium})
			Expect(q.Kind).To(Equal(questionKind), string(gapKind))
		}
	})

	It("derives stable ids so re-analysis correlates with earlier answers", func() {
		g := completeGraph()
		g.Stages[0].Inputs = nil

		first := workflow.QuestionsFromGaps(workflow.Analyze(g))
		second := workflow.QuestionsFromGaps(workflow.Analyze(g.Clone()))

		Expect(first).To(HaveLen(1))
		Expect(first[0].ID).To(Equal(second[0].ID))
		Expect(first[0].ID).To(Equal("q:missing_input:stage-0:inputs"))
	})

	It("encodes dependency indices into the id without brackets", func() {
		q := workflow.QuestionFromGap(model.Gap{
			Kind:       model.GapKindUnlinkedDependency,
			Severity:   model.GapSeverityHigh,
			StageIndex: intPtr(2),
			Field:      "dependencies[1].linkedTo",
		})

		Expect(q.ID).To(Equal("q:unlinked_dependency:stage-2:dependencies-1-linkedTo"))
	})
})

func intPtr(i int) *int { return &i }
