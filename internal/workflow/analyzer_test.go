package workflow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/workflow"
)

func completeStage(id string, seq int, name string) model.Stage {
	s := stage(id, seq, name)
	s.Description = "A fully detailed description of what happens in this stage."
	s.AssignedTeam = name + " Team"
	s.Inputs = []model.InputRequirement{{Name: "materials"}}
	s.Outputs = []model.OutputRequirement{{Name: "finished goods"}}
	return s
}

func completeGraph() model.WorkflowGraph {
	stages := []model.Stage{
		completeStage("cutting", 1, "Cutting"),
		completeStage("sewing", 2, "Sewing"),
	}
	zones := workflow.Synthesize(stages, nil)
	for i := range zones {
		zones[i].Dependencies = []model.Dependency{
			{Kind: model.DependencyKindTaskCompletion, Description: "handoff", LinkedTo: "task-1"},
		}
	}
	return model.WorkflowGraph{Name: "Garment Production", Stages: stages, LimboZones: zones}
}

var _ = Describe("Analyze", func() {
	It("finds nothing in a complete graph", func() {
		Expect(workflow.Analyze(completeGraph())).To(BeEmpty())
	})

	It("reports stage gaps in a fixed order", func() {
		g := completeGraph()
		g.Stages[0] = stage("cutting", 1, "Cutting") // strip everything

		gaps := workflow.Analyze(g)

		kinds := make([]model.GapKind, len(gaps))
		for i, gap := range gaps {
			kinds[i] = gap.Kind
		}
		Expect(kinds).To(Equal([]model.GapKind{
			model.GapKindMissingInput,
			model.GapKindMissingOutput,
			model.GapKindMissingTeam,
			model.GapKindThinDescription,
		}))
		for _, gap := range gaps {
			Expect(gap.StageIndex).To(HaveValue(Equal(0)))
		}
	})

	It("flags unlinked non-time-based stage dependencies with the wire field path", func() {
		g := completeGraph()
		g.Stages[1].Dependencies = []model.Dependency{
			{Kind: model.DependencyKindTimeBased, Description: "24h fabric rest"},
			{Kind: model.DependencyKindApproval, Description: "supervisor sign-off"},
		}

		gaps := workflow.Analyze(g)

		Expect(gaps).To(HaveLen(1))
		Expect(gaps[0].Kind).To(Equal(model.GapKindUnlinkedDependency))
		Expect(gaps[0].Severity).To(Equal(model.GapSeverityHigh))
		Expect(gaps[0].StageIndex).To(HaveValue(Equal(1)))
		Expect(gaps[0].Field).To(Equal("dependencies[1].linkedTo"))
	})

	It("flags empty limbo zones with the stage names in the message", func() {
		g := completeGraph()
		g.LimboZones[0].Dependencies = []model.Dependency{}

		gaps := workflow.Analyze(g)

		Expect(gaps).To(HaveLen(1))
		Expect(gaps[0].Kind).To(Equal(model.GapKindMissingLimboDetail))
		Expect(gaps[0].Severity).To(Equal(model.GapSeverityMedium))
		Expect(gaps[0].LimboZoneIndex).To(HaveValue(Equal(0)))
		Expect(gaps[0].Message).To(ContainSubstring(`"Cutting"`))
		Expect(gaps[0].Message).To(ContainSubstring(`"Sewing"`))
	})

	It("flags unlinked limbo zone dependencies individually", func() {
		g := completeGraph()
		g.LimboZones[0].Dependencies = []model.Dependency{
			{Kind: model.DependencyKindTaskCompletion, Description: "inspection", LinkedTo: "task-9"},
			{Kind: model.DependencyKindExternal, Description: "dye delivery"},
		}

		gaps := workflow.Analyze(g)

		Expect(gaps).To(HaveLen(1))
		Expect(gaps[0].Kind).To(Equal(model.GapKindUnlinkedDependency))
		Expect(gaps[0].LimboZoneIndex).To(HaveValue(Equal(0)))
		Expect(gaps[0].Field).To(Equal("dependencies[1].linkedTo"))
	})

	It("reports a missing workflow name last", func() {
		g := completeGraph()
		g.Name = "  "

		gaps := workflow.Analyze(g)

		Expect(gaps).To(HaveLen(1))
		Expect(gaps[0].Kind).To(Equal(model.GapKindMissingName))
		Expect(gaps[0].Severity).To(Equal(model.GapSeverityLow))
	})

	It("orders stage gaps before zone gaps before workflow gaps", func() {
		g := completeGraph()
		g.Name = ""
		g.Stages[0].AssignedTeam = ""
		g.LimboZones[0].Dependencies = []model.Dependency{}

		gaps := workflow.Analyze(g)

		Expect(gaps).To(HaveLen(3))
		Expect(gaps[0].Kind).To(Equal(model.GapKindMissingTeam))
		Expect(gaps[1].Kind).To(Equal(model.GapKindMissingLimboDetail))
		Expect(gaps[2].Kind).To(Equal(model.GapKindMissingName))
	})

	It("returns identical results for equal graphs", func() {
		g := completeGraph()
		g.Stages[0] = stage("cutting", 1, "Cutting")
		g.LimboZones[0].Dependencies = []model.Dependency{}

		Expect(workflow.Analyze(g)).To(Equal(workflow.Analyze(g.Clone())))
	})
})
