package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"flowforge.app/forge/common/logger"
	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/phrasing"
	"flowforge.app/forge/internal/queue"
	"flowforge.app/forge/internal/store"
	"flowforge.app/forge/internal/workflow"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrAlreadySaved     = errors.New("workflow has already been saved")
	ErrStillGenerating  = errors.New("workflow draft is still being generated")
)

// SaveResult carries the gate verdict alongside the (possibly unchanged)
// workflow. A rejected save is a result, not an error.
type SaveResult struct {
	Workflow *model.Workflow
	Gate     model.GateResult
}

// WorkflowService runs the enrichment loop over persisted workflow records.
// All operations on one workflow are serialized behind a per-record mutex:
// graph transforms themselves are pure, but read-transform-write against the
// store needs a single writer per record.
type WorkflowService interface {
	CreateFromDraft(ctx context.Context, draft model.WorkflowDraft) (*model.Workflow, error)
	RequestGeneration(ctx context.Context, prompt string) (*model.Workflow, error)
	CompleteGeneration(ctx context.Context, workflowID int64, draft model.WorkflowDraft) (*model.Workflow, error)
	FailGeneration(ctx context.Context, workflowID int64) error
	Get(ctx context.Context, workflowID int64) (*model.Workflow, error)
	List(ctx context.Context, limit, offset int32) ([]model.Workflow, error)
	AddStage(ctx context.Context, workflowID int64, stage model.Stage) (*model.Workflow, error)
	RemoveStage(ctx context.Context, workflowID int64, stageID string) (*model.Workflow, error)
	Gaps(ctx context.Context, workflowID int64) ([]model.Gap, error)
	Questions(ctx context.Context, workflowID int64) ([]model.EnrichmentQuestion, error)
	ApplyAnswers(ctx context.Context, workflowID int64, answers []model.Answer) (*model.Workflow, []workflow.ApplyError, error)
	Save(ctx context.Context, workflowID int64, allowIncomplete bool) (*SaveResult, error)
}

type workflowService struct {
	store    store.WorkflowStore
	phraser  phrasing.Phraser
	producer queue.Producer

	locks sync.Map // workflow id -> *sync.Mutex
}

func NewWorkflowService(wfStore store.WorkflowStore, phraser phrasing.Phraser, producer queue.Producer) WorkflowService {
	return &workflowService{
		store:    wfStore,
		phraser:  phraser,
		producer: producer,
	}
}

func (s *workflowService) CreateFromDraft(ctx context.Context, draft model.WorkflowDraft) (*model.Workflow, error) {
	graph := workflow.NewGraphFromDraft(draft)
	if err := workflow.Validate(graph); err != nil {
		return nil, fmt.Errorf("normalized draft failed validation: %w", err)
	}

	wf := &model.Workflow{
		Status: model.WorkflowStatusDraft,
		Graph:  graph,
	}
	if err := s.store.Create(ctx, wf); err != nil {
		return nil, fmt.Errorf("creating workflow: %w", err)
	}

	slog.InfoContext(ctx, "workflow created from draft",
		"workflow_id", wf.ID,
		"stages", len(graph.Stages),
		"limbo_zones", len(graph.LimboZones))
	return wf, nil
}

// RequestGeneration creates an empty record and enqueues the draft
// generation task. The record is immediately addressable so the caller can
// poll while the worker fills it in.
func (s *workflowService) RequestGeneration(ctx context.Context, prompt string) (*model.Workflow, error) {
	wf := &model.Workflow{
		Status: model.WorkflowStatusGenerating,
		Prompt: prompt,
	}
	if err := s.store.Create(ctx, wf); err != nil {
		return nil, fmt.Errorf("creating workflow: %w", err)
	}

	if err := s.producer.Enqueue(ctx, queue.GenerationTask{
		WorkflowID: wf.ID,
		Prompt:     prompt,
	}); err != nil {
		return nil, fmt.Errorf("enqueueing generation: %w", err)
	}

	slog.InfoContext(ctx, "generation requested", "workflow_id", wf.ID)
	return wf, nil
}

// CompleteGeneration attaches the generated draft to the record. Called by
// the worker after the decoder accepted the draft.
func (s *workflowService) CompleteGeneration(ctx context.Context, workflowID int64, draft model.WorkflowDraft) (*model.Workflow, error) {
	unlock := s.lock(workflowID)
	defer unlock()

	graph := workflow.NewGraphFromDraft(draft)
	if err := workflow.Validate(graph); err != nil {
		return nil, fmt.Errorf("normalized draft failed validation: %w", err)
	}

	wf, err := s.store.UpdateGraph(ctx, workflowID, graph)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if err := s.store.UpdateStatus(ctx, workflowID, model.WorkflowStatusDraft); err != nil {
		return nil, s.wrapStoreErr(err)
	}
	wf.Status = model.WorkflowStatusDraft

	slog.InfoContext(ctx, "generation completed", "workflow_id", workflowID, "stages", len(graph.Stages))
	return wf, nil
}

// FailGeneration demotes a generating record to an empty editable draft, so
// a dead-lettered task still leaves the user with a workable record.
func (s *workflowService) FailGeneration(ctx context.Context, workflowID int64) error {
	unlock := s.lock(workflowID)
	defer unlock()
	return s.wrapStoreErr(s.store.UpdateStatus(ctx, workflowID, model.WorkflowStatusDraft))
}

func (s *workflowService) Get(ctx context.Context, workflowID int64) (*model.Workflow, error) {
	wf, err := s.store.GetByID(ctx, workflowID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return wf, nil
}

func (s *workflowService) List(ctx context.Context, limit, offset int32) ([]model.Workflow, error) {
	return s.store.List(ctx, limit, offset)
}

func (s *workflowService) AddStage(ctx context.Context, workflowID int64, stage model.Stage) (*model.Workflow, error) {
	return s.transform(ctx, workflowID, func(g model.WorkflowGraph) (model.WorkflowGraph, error) {
		return workflow.AddStage(g, stage), nil
	})
}

func (s *workflowService) RemoveStage(ctx context.Context, workflowID int64, stageID string) (*model.Workflow, error) {
	return s.transform(ctx, workflowID, func(g model.WorkflowGraph) (model.WorkflowGraph, error) {
		return workflow.RemoveStage(g, stageID), nil
	})
}

// Gaps re-analyzes the current snapshot. Gap lists are always derived, never
// stored, so they cannot go stale independently of the graph.
func (s *workflowService) Gaps(ctx context.Context, workflowID int64) ([]model.Gap, error) {
	wf, err := s.readable(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return workflow.Analyze(wf.Graph), nil
}

func (s *workflowService) Questions(ctx context.Context, workflowID int64) ([]model.EnrichmentQuestion, error) {
	wf, err := s.readable(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	gaps := workflow.Analyze(wf.Graph)
	return s.phraser.Questions(ctx, wf.Graph, gaps), nil
}

// ApplyAnswers patches the graph from a batch of answers in submission
// order. Answers that fail to apply are reported individually; the rest of
// the batch still lands, and the updated snapshot is written back once.
func (s *workflowService) ApplyAnswers(ctx context.Context, workflowID int64, answers []model.Answer) (*model.Workflow, []workflow.ApplyError, error) {
	unlock := s.lock(workflowID)
	defer unlock()

	wf, err := s.editable(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}

	// Questions are addressed by their deterministic ids, so the current
	// gap set is the authority on what each answer may patch.
	questionsByID := make(map[string]model.EnrichmentQuestion)
	for _, q := range workflow.QuestionsFromGaps(workflow.Analyze(wf.Graph)) {
		questionsByID[q.ID] = q
	}

	var (
		pairs  []workflow.QuestionAnswer
		failed []workflow.ApplyError
	)
	for _, a := range answers {
		q, ok := questionsByID[a.QuestionID]
		if !ok {
			failed = append(failed, workflow.ApplyError{
				QuestionID: a.QuestionID,
				Reason:     "question does not match any open gap",
			})
			continue
		}
		pairs = append(pairs, workflow.QuestionAnswer{Question: q, Value: a.Value})
	}

	next, applyErrs := workflow.ApplyAll(wf.Graph, pairs)
	failed = append(failed, applyErrs...)

	updated, err := s.store.UpdateGraph(ctx, workflowID, next)
	if err != nil {
		return nil, nil, s.wrapStoreErr(err)
	}

	slog.InfoContext(ctx, "answers applied",
		"workflow_id", workflowID,
		"answers", len(answers),
		"failed", len(failed))
	return updated, failed, nil
}

// Save runs the completeness gate and persists the terminal state when it
// passes (or when the caller explicitly allows an incomplete save). A
// rejection returns the blocking gaps in the result, never an error.
func (s *workflowService) Save(ctx context.Context, workflowID int64, allowIncomplete bool) (*SaveResult, error) {
	unlock := s.lock(workflowID)
	defer unlock()

	wf, err := s.editable(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	gate := workflow.EvaluateGate(workflow.Analyze(wf.Graph), allowIncomplete)
	if !gate.Complete {
		slog.InfoContext(ctx, "save blocked by completeness gate",
			"workflow_id", workflowID,
			"blocking_gaps", len(gate.BlockingGaps))
		return &SaveResult{Workflow: wf, Gate: gate}, nil
	}

	saved, err := s.store.MarkSaved(ctx, workflowID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}

	slog.InfoContext(ctx, "workflow saved",
		"workflow_id", workflowID,
		"allow_incomplete", allowIncomplete,
		"warnings", len(gate.Warnings))
	return &SaveResult{Workflow: saved, Gate: gate}, nil
}

// transform runs a read-transform-write cycle under the record's lock.
func (s *workflowService) transform(ctx context.Context, workflowID int64, fn func(model.WorkflowGraph) (model.WorkflowGraph, error)) (*model.Workflow, error) {
	unlock := s.lock(workflowID)
	defer unlock()

	wf, err := s.editable(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	next, err := fn(wf.Graph)
	if err != nil {
		return nil, err
	}
	if err := workflow.Validate(next); err != nil {
		return nil, fmt.Errorf("graph invariants violated after edit: %w", err)
	}

	updated, err := s.store.UpdateGraph(ctx, workflowID, next)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return updated, nil
}

func (s *workflowService) editable(ctx context.Context, workflowID int64) (*model.Workflow, error) {
	wf, err := s.readable(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf.Status == model.WorkflowStatusSaved {
		return nil, ErrAlreadySaved
	}
	return wf, nil
}

// readable allows saved workflows (their derived gaps remain viewable) but
// not ones whose draft is still being generated.
func (s *workflowService) readable(ctx context.Context, workflowID int64) (*model.Workflow, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkflowID: logger.Ptr(workflowID)})

	wf, err := s.store.GetByID(ctx, workflowID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if wf.Status == model.WorkflowStatusGenerating {
		return nil, ErrStillGenerating
	}
	return wf, nil
}

func (s *workflowService) lock(workflowID int64) func() {
	value, _ := s.locks.LoadOrStore(workflowID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *workflowService) wrapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrWorkflowNotFound
	}
	return err
}
