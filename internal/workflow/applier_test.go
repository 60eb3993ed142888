package workflow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/workflow"
)

var _ = Describe("Apply", func() {
	var g model.WorkflowGraph

	BeforeEach(func() {
		g = completeGraph()
	})

	It("replaces a stage's inputs instead of appending", func() {
		q := model.EnrichmentQuestion{ID: "q1", Kind: model.QuestionKindInput, StageIndex: intPtr(0), Field: "inputs"}

		next, err := workflow.Apply(g, q, "cotton fabric rolls")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Stages[0].Inputs).To(Equal([]model.InputRequirement{{Name: "cotton fabric rolls"}}))

		again, err := workflow.Apply(next, q, "cotton fabric rolls")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Stages[0].Inputs).To(HaveLen(1))
	})

	It("sets the assigned team and stays idempotent", func() {
		q := model.EnrichmentQuestion{ID: "q1", Kind: model.QuestionKindTeam, StageIndex: intPtr(1), Field: "assignedTeam"}

		next, err := workflow.Apply(g, q, "QA Team")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Stages[1].AssignedTeam).To(Equal("QA Team"))

		again, err := workflow.Apply(next, q, "QA Team")
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(next))
	})

	It("overwrites a previous team answer rather than accumulating", func() {
		q := model.EnrichmentQuestion{ID: "q1", Kind: model.QuestionKindTeam, StageIndex: intPtr(1), Field: "assignedTeam"}

		first, err := workflow.Apply(g, q, "Sewing Team")
		Expect(err).NotTo(HaveOccurred())

		second, err := workflow.Apply(first, q, "QA Team")
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Stages[1].AssignedTeam).To(Equal("QA Team"))
	})

	It("never mutates the input snapshot", func() {
		q := model.EnrichmentQuestion{ID: "q1", Kind: model.QuestionKindOutput, StageIndex: intPtr(0), Field: "outputs"}

		_, err := workflow.Apply(g, q, "cut panels")
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Stages[0].Outputs).To(Equal([]model.OutputRequirement{{Name: "finished goods"}}))
	})

	It("links a stage dependency through the wire field path", func() {
		g.Stages[1].Dependencies = []model.Dependency{
			{Kind: model.DependencyKindApproval, Description: "supervisor sign-off"},
		}
		q := model.EnrichmentQuestion{
			ID: "q1", Kind: model.QuestionKindDependency,
			StageIndex: intPtr(1), Field: "dependencies[0].linkedTo",
		}

		next, err := workflow.Apply(g, q, "task-42")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Stages[1].Dependencies[0].LinkedTo).To(Equal("task-42"))
		Expect(next.Stages[1].Dependencies[0].Linked()).To(BeTrue())
	})

	It("clears the unlinked dependency gap once the link is applied", func() {
		g.Stages[1].Dependencies = []model.Dependency{
			{Kind: model.DependencyKindApproval, Description: "manager sign-off"},
		}

		before := workflow.Analyze(g)
		Expect(before).To(ContainElement(HaveField("Kind", model.GapKindUnlinkedDependency)))

		q := model.EnrichmentQuestion{
			ID: "q1", Kind: model.QuestionKindDependency,
			StageIndex: intPtr(1), Field: "dependencies[0].linkedTo",
		}
		next, err := workflow.Apply(g, q, "task-42")
		Expect(err).NotTo(HaveOccurred())

		after := workflow.Analyze(next)
		Expect(after).NotTo(ContainElement(HaveField("Kind", model.GapKindUnlinkedDependency)))
	})

	It("links a limbo zone dependency when the zone pointer is set", func() {
		q := model.EnrichmentQuestion{
			ID: "q1", Kind: model.QuestionKindDependency,
			LimboZoneIndex: intPtr(0), Field: "dependencies[0].linkedTo",
		}

		next, err := workflow.Apply(g, q, "task-42")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.LimboZones[0].Dependencies[0].LinkedTo).To(Equal("task-42"))
	})

	It("returns the graph unchanged on an out-of-range dependency index", func() {
		q := model.EnrichmentQuestion{
			ID: "q1", Kind: model.QuestionKindDependency,
			StageIndex: intPtr(0), Field: "dependencies[7].linkedTo",
		}

		next, err := workflow.Apply(g, q, "task-42")
		Expect(err).To(HaveOccurred())
		Expect(next).To(Equal(g))

		var applyErr *workflow.ApplyError
		Expect(err).To(BeAssignableToTypeOf(applyErr))
	})

	It("rejects an out-of-range stage index", func() {
		q := model.EnrichmentQuestion{ID: "q1", Kind: model.QuestionKindTeam, StageIndex: intPtr(9), Field: "assignedTeam"}

		_, err := workflow.Apply(g, q, "QA Team")
		Expect(err).To(MatchError(ContainSubstring("out of range")))
	})

	It("fills an empty limbo zone from a general answer", func() {
		g.LimboZones[0].Dependencies = []model.Dependency{}
		q := model.EnrichmentQuestion{
			ID: "q1", Kind: model.QuestionKindGeneral,
			LimboZoneIndex: intPtr(0), Field: "dependencies",
		}

		next, err := workflow.Apply(g, q, "final stitch inspection")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.LimboZones[0].Dependencies).To(Equal([]model.Dependency{
			{Kind: model.DependencyKindTaskCompletion, Description: "final stitch inspection"},
		}))

		again, err := workflow.Apply(next, q, "final stitch inspection")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.LimboZones[0].Dependencies).To(HaveLen(1))
	})

	It("sets the workflow name from a general answer", func() {
		q := model.EnrichmentQuestion{ID: "q1", Kind: model.QuestionKindGeneral, Field: "name"}

		next, err := workflow.Apply(g, q, "Garment Line A")
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Name).To(Equal("Garment Line A"))
	})
})

var _ = Describe("ApplyAll", func() {
	It("skips failing answers and applies the rest", func() {
		g := completeGraph()

		next, failed := workflow.ApplyAll(g, []workflow.QuestionAnswer{
			{
				Question: model.EnrichmentQuestion{ID: "bad", Kind: model.QuestionKindTeam, StageIndex: intPtr(9), Field: "assignedTeam"},
				Value:    "Nobody",
			},
			{
				Question: model.EnrichmentQuestion{ID: "good", Kind: model.QuestionKindTeam, StageIndex: intPtr(0), Field: "assignedTeam"},
				Value:    "Cutting Crew",
			},
		})

		Expect(failed).To(HaveLen(1))
		Expect(failed[0].QuestionID).To(Equal("bad"))
		Expect(next.Stages[0].AssignedTeam).To(Equal("Cutting Crew"))
	})

	It("returns no failures for an empty batch", func() {
		g := completeGraph()

		next, failed := workflow.ApplyAll(g, nil)

		Expect(failed).To(BeEmpty())
		Expect(next).To(Equal(g))
	})
})
