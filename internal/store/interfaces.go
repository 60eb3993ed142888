package store

import (
	"context"
	"errors"

	"flowforge.app/forge/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// WorkflowStore defines the contract for workflow persistence. The graph
// column holds the full snapshot JSON; the enrichment loop reads a snapshot,
// transforms it, and writes the replacement back whole.
type WorkflowStore interface {
	Create(ctx context.Context, wf *model.Workflow) error
	GetByID(ctx context.Context, id int64) (*model.Workflow, error)
	UpdateGraph(ctx context.Context, id int64, graph model.WorkflowGraph) (*model.Workflow, error)
	UpdateStatus(ctx context.Context, id int64, status model.WorkflowStatus) error
	MarkSaved(ctx context.Context, id int64) (*model.Workflow, error)
	List(ctx context.Context, limit, offset int32) ([]model.Workflow, error)
}
