package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowforge.app/forge/common/id"
	"flowforge.app/forge/internal/model"
)

type workflowStore struct {
	pool *pgxpool.Pool
}

func NewWorkflowStore(pool *pgxpool.Pool) WorkflowStore {
	return &workflowStore{pool: pool}
}

func (s *workflowStore) Create(ctx context.Context, wf *model.Workflow) error {
	if wf.ID == 0 {
		wf.ID = id.New()
	}
	graph, err := json.Marshal(wf.Graph)
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO workflows (id, status, prompt, graph)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		wf.ID, string(wf.Status), wf.Prompt, graph)
	if err := row.Scan(&wf.CreatedAt, &wf.UpdatedAt); err != nil {
		return fmt.Errorf("creating workflow: %w", err)
	}
	return nil
}

func (s *workflowStore) GetByID(ctx context.Context, workflowID int64) (*model.Workflow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, prompt, graph, created_at, updated_at
		FROM workflows
		WHERE id = $1`,
		workflowID)
	return scanWorkflow(row)
}

func (s *workflowStore) UpdateGraph(ctx context.Context, workflowID int64, graph model.WorkflowGraph) (*model.Workflow, error) {
	encoded, err := json.Marshal(graph)
	if err != nil {
		return nil, fmt.Errorf("encoding graph: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE workflows
		SET graph = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, status, prompt, graph, created_at, updated_at`,
		workflowID, encoded)
	return scanWorkflow(row)
}

func (s *workflowStore) UpdateStatus(ctx context.Context, workflowID int64, status model.WorkflowStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflows
		SET status = $2, updated_at = now()
		WHERE id = $1`,
		workflowID, string(status))
	if err != nil {
		return fmt.Errorf("updating workflow status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *workflowStore) MarkSaved(ctx context.Context, workflowID int64) (*model.Workflow, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE workflows
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, status, prompt, graph, created_at, updated_at`,
		workflowID, string(model.WorkflowStatusSaved))
	return scanWorkflow(row)
}

func (s *workflowStore) List(ctx context.Context, limit, offset int32) ([]model.Workflow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, prompt, graph, created_at, updated_at
		FROM workflows
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}
	defer rows.Close()

	var workflows []model.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *wf)
	}
	return workflows, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*model.Workflow, error) {
	var (
		wf        model.Workflow
		status    string
		graph     []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&wf.ID, &status, &wf.Prompt, &graph, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(graph, &wf.Graph); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	wf.Status = model.WorkflowStatus(status)
	wf.CreatedAt = createdAt
	wf.UpdatedAt = updatedAt
	return &wf, nil
}
