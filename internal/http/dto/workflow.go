package dto

import (
	"flowforge.app/forge/internal/model"
	"flowforge.app/forge/internal/workflow"
)

type GenerateWorkflowRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type AddStageRequest struct {
	Name         string                    `json:"name" binding:"required"`
	Kind         model.StageKind           `json:"kind"`
	Description  string                    `json:"description"`
	AssignedTeam string                    `json:"assigned_team"`
	ParallelWith []string                  `json:"parallel_with"`
	Inputs       []model.InputRequirement  `json:"inputs"`
	Outputs      []model.OutputRequirement `json:"outputs"`
	Dependencies []model.Dependency        `json:"dependencies"`
}

func (r AddStageRequest) ToStage() model.Stage {
	return model.Stage{
		Name:         r.Name,
		Kind:         r.Kind,
		Description:  r.Description,
		AssignedTeam: r.AssignedTeam,
		ParallelWith: r.ParallelWith,
		Inputs:       r.Inputs,
		Outputs:      r.Outputs,
		Dependencies: r.Dependencies,
	}
}

type SubmitAnswersRequest struct {
	Answers []model.Answer `json:"answers" binding:"required"`
}

type SaveWorkflowRequest struct {
	AllowIncomplete bool `json:"allow_incomplete"`
}

type WorkflowResponse struct {
	ID        int64                `json:"id"`
	Status    model.WorkflowStatus `json:"status"`
	Prompt    string               `json:"prompt,omitempty"`
	Graph     model.WorkflowGraph  `json:"graph"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

func ToWorkflowResponse(wf *model.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:        wf.ID,
		Status:    wf.Status,
		Prompt:    wf.Prompt,
		Graph:     wf.Graph,
		CreatedAt: wf.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: wf.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

type ApplyFailure struct {
	QuestionID string `json:"question_id"`
	Field      string `json:"field,omitempty"`
	Reason     string `json:"reason"`
}

func ToApplyFailures(errs []workflow.ApplyError) []ApplyFailure {
	failures := make([]ApplyFailure, len(errs))
	for i, e := range errs {
		failures[i] = ApplyFailure{QuestionID: e.QuestionID, Field: e.Field, Reason: e.Reason}
	}
	return failures
}

type SubmitAnswersResponse struct {
	Workflow WorkflowResponse `json:"workflow"`
	Failed   []ApplyFailure   `json:"failed"`
}

type SaveWorkflowResponse struct {
	Complete     bool             `json:"complete"`
	BlockingGaps []model.Gap      `json:"blocking_gaps"`
	Warnings     []model.Gap      `json:"warnings"`
	Workflow     WorkflowResponse `json:"workflow"`
}
