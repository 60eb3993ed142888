package workflow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"flowforge.app/forge/internal/workflow"
)

var _ = Describe("ParseFieldPath", func() {
	It("parses a stage dependency path", func() {
		path, err := workflow.ParseFieldPath("dependencies[2].linkedTo", intPtr(1), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(path.Kind).To(Equal(workflow.FieldPathStageDependency))
		Expect(path.StageIndex).To(Equal(1))
		Expect(path.DepIndex).To(Equal(2))
	})

	It("prefers the limbo zone pointer when both are set", func() {
		path, err := workflow.ParseFieldPath("dependencies[0].linkedTo", intPtr(1), intPtr(3))

		Expect(err).NotTo(HaveOccurred())
		Expect(path.Kind).To(Equal(workflow.FieldPathLimboDependency))
		Expect(path.LimboZoneIndex).To(Equal(3))
	})

	It("rejects a dependency path with no pointer", func() {
		_, err := workflow.ParseFieldPath("dependencies[0].linkedTo", nil, nil)

		Expect(err).To(MatchError(ContainSubstring("neither")))
		var pathErr *workflow.PathError
		Expect(err).To(BeAssignableToTypeOf(pathErr))
	})

	It("treats anything else as a plain stage field", func() {
		path, err := workflow.ParseFieldPath("assignedTeam", intPtr(0), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(path.Kind).To(Equal(workflow.FieldPathStageField))
		Expect(path.Field).To(Equal("assignedTeam"))
	})

	It("rejects a plain field with no stage pointer", func() {
		_, err := workflow.ParseFieldPath("assignedTeam", nil, nil)

		Expect(err).To(HaveOccurred())
	})

	It("does not match malformed dependency syntax", func() {
		path, err := workflow.ParseFieldPath("dependencies[x].linkedTo", intPtr(0), nil)

		// Falls through to the plain-field branch rather than half-parsing.
		Expect(err).NotTo(HaveOccurred())
		Expect(path.Kind).To(Equal(workflow.FieldPathStageField))
	})

	It("round-trips through Wire", func() {
		path, err := workflow.ParseFieldPath("dependencies[4].linkedTo", intPtr(0), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(path.Wire()).To(Equal("dependencies[4].linkedTo"))
		Expect(workflow.DependencyFieldPath(4)).To(Equal(path.Wire()))
	})
})
