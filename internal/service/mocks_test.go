package service_test

import (
	"context"

	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/queue"
	"flowforge.app/forge/internal/store"
	"flowforge.app/forge/internal/workflow"
)

type mockWorkflowStore struct {
	createFn       func(ctx context.Context, wf *model.Workflow) error
	getByIDFn      func(ctx context.Context, id int64) (*model.Workflow, error)
	updateGraphFn  func(ctx context.Context, id int64, graph model.WorkflowGraph) (*model.Workflow, error)
	updateStatusFn func(ctx context.Context, id int64, status model.WorkflowStatus) error
	markSavedFn    func(ctx context.Context, id int64) (*model.Workflow, error)
	listFn         func(ctx context.Context, limit, offset int32) ([]model.Workflow, error)
}

func (m *mockWorkflowStore) Create(ctx context.Context, wf *model.Workflow) error {
	if m.createFn != nil {
		return m.createFn(ctx, wf)
	}
	wf.ID = 1
	return nil
}

func (m *mockWorkflowStore) GetByID(ctx context.Context, id int64) (*model.Workflow, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockWorkflowStore) UpdateGraph(ctx context.Context, id int64, graph model.WorkflowGraph) (*model.Workflow, error) {
	if m.updateGraphFn != nil {
		return m.updateGraphFn(ctx, id, graph)
	}
	return &model.Workflow{ID: id, Status: model.WorkflowStatusDraft, Graph: graph}, nil
}

func (m *mockWorkflowStore) UpdateStatus(ctx context.Context, id int64, status model.WorkflowStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockWorkflowStore) MarkSaved(ctx context.Context, id int64) (*model.Workflow, error) {
	if m.markSavedFn != nil {
		return m.markSavedFn(ctx, id)
	}
	return &model.Workflow{ID: id, Status: model.WorkflowStatusSaved}, nil
}

func (m *mockWorkflowStore) List(ctx context.Context, limit, offset int32) ([]model.Workflow, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return []model.Workflow{}, nil
}

type mockPhraser struct {
	questionsFn func(ctx context.Context, graph model.WorkflowGraph, gaps []model.Gap) []model.EnrichmentQuestion
}

func (m *mockPhraser) Questions(ctx context.Context, graph model.WorkflowGraph, gaps []model.Gap) []model.EnrichmentQuestion {
	if m.questionsFn != nil {
		return m.questionsFn(ctx, graph, gaps)
	}
	return workflow.QuestionsFromGaps(gaps)
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, task queue.GenerationTask) error
}

func (m *mockProducer) Enqueue(ctx context.Context, task queue.GenerationTask) error {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, task)
	}
	return nil
}

func (m *mockProducer) Close() error { return nil }
