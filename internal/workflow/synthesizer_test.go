package workflow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/workflow"
)

func stage(id string, seq int, name string) model.Stage {
	return model.Stage{
		ID:           id,
		Sequence:     seq,
		Name:         name,
		Kind:         model.StageKindSequential,
		Inputs:       []model.InputRequirement{},
		Outputs:      []model.OutputRequirement{},
		Dependencies: []model.Dependency{},
	}
}

func garmentGraph() model.WorkflowGraph {
	stages := []model.Stage{
		stage("cutting", 1, "Cutting"),
		stage("sewing", 2, "Sewing"),
		stage("quality-check", 3, "Quality Check"),
	}
	return model.WorkflowGraph{
		Name:       "Garment Production",
		Industry:   "fashion",
		Stages:     stages,
		LimboZones: workflow.Synthesize(stages, nil),
	}
}

var _ = Describe("Synthesize", func() {
	It("creates exactly one zone per adjacent pair", func() {
		g := garmentGraph()

		Expect(g.LimboZones).To(HaveLen(2))
		Expect(g.LimboZones[0].BetweenStages).To(Equal([2]string{"cutting", "sewing"}))
		Expect(g.LimboZones[1].BetweenStages).To(Equal([2]string{"sewing", "quality-check"}))
	})

	It("produces no zones for a single-stage graph", func() {
		zones := workflow.Synthesize([]model.Stage{stage("cutting", 1, "Cutting")}, nil)
		Expect(zones).To(BeEmpty())
	})

	It("keeps an existing zone's dependencies when the pair stays adjacent", func() {
		g := garmentGraph()
		g.LimboZones[0].Dependencies = []model.Dependency{
			{Kind: model.DependencyKindApproval, Description: "Pattern sign-off"},
		}

		zones := workflow.Synthesize(g.Stages, g.LimboZones)

		Expect(zones).To(HaveLen(2))
		Expect(zones[0].Dependencies).To(HaveLen(1))
		Expect(zones[0].Dependencies[0].Description).To(Equal("Pattern sign-off"))
	})

	It("drops zones referencing stages that no longer exist", func() {
		g := garmentGraph()
		stale := append(g.LimboZones, model.LimboZone{
			ID:            "limbo-sewing-packaging",
			BetweenStages: [2]string{"sewing", "packaging"},
		})

		zones := workflow.Synthesize(g.Stages, stale)

		Expect(zones).To(HaveLen(2))
		for _, z := range zones {
			Expect(z.BetweenStages).NotTo(Equal([2]string{"sewing", "packaging"}))
		}
	})

	It("drops zones between non-adjacent stages", func() {
		g := garmentGraph()
		zones := workflow.Synthesize(g.Stages, []model.LimboZone{
			{ID: "limbo-cutting-quality-check", BetweenStages: [2]string{"cutting", "quality-check"}},
		})

		Expect(zones).To(HaveLen(2))
		Expect(zones[0].BetweenStages).To(Equal([2]string{"cutting", "sewing"}))
		Expect(zones[1].BetweenStages).To(Equal([2]string{"sewing", "quality-check"}))
	})

	It("is deterministic for equal inputs", func() {
		g := garmentGraph()

		first := workflow.Synthesize(g.Stages, g.LimboZones)
		second := workflow.Synthesize(g.Stages, g.LimboZones)

		Expect(first).To(Equal(second))
	})
})

var _ = Describe("SynthesizeFromDraft", func() {
	It("resolves suggested zones by exact stage name", func() {
		g := garmentGraph()
		zones := workflow.SynthesizeFromDraft(g.Stages, []model.LimboZoneDraft{
			{
				BetweenStages: [2]string{"Cutting", "Sewing"},
				Dependencies:  []model.Dependency{{Kind: model.DependencyKindApproval, Description: "Fabric inspection"}},
			},
		})

		Expect(zones).To(HaveLen(2))
		Expect(zones[0].Dependencies).To(HaveLen(1))
		Expect(zones[0].Dependencies[0].Description).To(Equal("Fabric inspection"))
		Expect(zones[1].Dependencies).To(BeEmpty())
	})

	It("drops suggestions whose names do not resolve", func() {
		g := garmentGraph()
		zones := workflow.SynthesizeFromDraft(g.Stages, []model.LimboZoneDraft{
			{
				BetweenStages: [2]string{"Cuting", "Sewing"}, // typo, no fuzzy match
				Dependencies:  []model.Dependency{{Kind: model.DependencyKindApproval, Description: "Fabric inspection"}},
			},
		})

		Expect(zones).To(HaveLen(2))
		Expect(zones[0].Dependencies).To(BeEmpty())
	})
})

var _ = Describe("NewGraphFromDraft", func() {
	It("assigns slug ids and dense sequences in draft order", func() {
		g := workflow.NewGraphFromDraft(model.WorkflowDraft{
			SuggestedName: "Garment Production",
			Stages: []model.StageDraft{
				{Name: "Cutting"},
				{Name: "Sewing"},
				{Name: "Quality Check"},
			},
		})

		Expect(g.Name).To(Equal("Garment Production"))
		Expect(g.Stages).To(HaveLen(3))
		Expect(g.Stages[0].ID).To(Equal("cutting"))
		Expect(g.Stages[2].ID).To(Equal("quality-check"))
		for i, s := range g.Stages {
			Expect(s.Sequence).To(Equal(i + 1))
		}
		Expect(workflow.Validate(g)).To(Succeed())
	})

	It("deduplicates colliding stage names", func() {
		g := workflow.NewGraphFromDraft(model.WorkflowDraft{
			Stages: []model.StageDraft{
				{Name: "Review"},
				{Name: "Review"},
				{Name: "Review"},
			},
		})

		Expect(g.Stages[0].ID).To(Equal("review"))
		Expect(g.Stages[1].ID).To(Equal("review-2"))
		Expect(g.Stages[2].ID).To(Equal("review-3"))
		Expect(workflow.Validate(g)).To(Succeed())
	})

	It("defaults missing kinds to sequential and leaves no nil slices", func() {
		g := workflow.NewGraphFromDraft(model.WorkflowDraft{
			Stages: []model.StageDraft{{Name: "Cutting"}},
		})

		Expect(g.Stages[0].Kind).To(Equal(model.StageKindSequential))
		Expect(g.Stages[0].Inputs).NotTo(BeNil())
		Expect(g.Stages[0].Outputs).NotTo(BeNil())
		Expect(g.Stages[0].Dependencies).NotTo(BeNil())
	})
})

var _ = Describe("AddStage", func() {
	It("appends at the end and creates one new zone", func() {
		g := garmentGraph()

		next := workflow.AddStage(g, model.Stage{Name: "Packaging"})

		Expect(next.Stages).To(HaveLen(4))
		Expect(next.Stages[3].ID).To(Equal("packaging"))
		Expect(next.Stages[3].Sequence).To(Equal(4))
		Expect(next.LimboZones).To(HaveLen(3))
		Expect(next.LimboZones[2].BetweenStages).To(Equal([2]string{"quality-check", "packaging"}))
		Expect(workflow.Validate(next)).To(Succeed())
	})

	It("does not mutate the input graph", func() {
		g := garmentGraph()

		_ = workflow.AddStage(g, model.Stage{Name: "Packaging"})

		Expect(g.Stages).To(HaveLen(3))
		Expect(g.LimboZones).To(HaveLen(2))
	})
})

var _ = Describe("RemoveStage", func() {
	It("renumbers survivors and synthesizes a zone for the new adjacency", func() {
		g := garmentGraph()

		next := workflow.RemoveStage(g, "sewing")

		Expect(next.Stages).To(HaveLen(2))
		Expect(next.Stages[0].Sequence).To(Equal(1))
		Expect(next.Stages[1].Sequence).To(Equal(2))
		Expect(next.LimboZones).To(HaveLen(1))
		Expect(next.LimboZones[0].BetweenStages).To(Equal([2]string{"cutting", "quality-check"}))
		Expect(next.LimboZones[0].Dependencies).To(BeEmpty())
		Expect(workflow.Validate(next)).To(Succeed())
	})

	It("is a no-op for an unknown stage id", func() {
		g := garmentGraph()

		next := workflow.RemoveStage(g, "embroidery")

		Expect(next.Stages).To(HaveLen(3))
		Expect(next.LimboZones).To(HaveLen(2))
	})
})

var _ = Describe("Validate", func() {
	It("accepts a well-formed graph", func() {
		Expect(workflow.Validate(garmentGraph())).To(Succeed())
	})

	It("rejects sparse sequences", func() {
		g := garmentGraph()
		g.Stages[2].Sequence = 5

		Expect(workflow.Validate(g)).To(MatchError(ContainSubstring("sequence")))
	})

	It("rejects duplicate stage ids", func() {
		g := garmentGraph()
		g.Stages[1].ID = "cutting"

		Expect(workflow.Validate(g)).To(MatchError(ContainSubstring("duplicate")))
	})

	It("rejects a wrong zone count", func() {
		g := garmentGraph()
		g.LimboZones = g.LimboZones[:1]

		Expect(workflow.Validate(g)).To(MatchError(ContainSubstring("limbo zones")))
	})
})
