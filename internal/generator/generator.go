// Package generator turns a natural-language process description into a
// WorkflowDraft via a structured-output LLM call. The draft is untrusted
// until the validating decoder accepts it.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"flowforge.app/forge/common/logger"
	"flowforge.app/forge/internal/decode"
	"flowforge.app/forge/internal/llm"
	"flowforge.app/forge/internal/model"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (model.WorkflowDraft, error)
}

type generator struct {
	llm       llm.Client
	maxTokens int
}

func New(client llm.Client, maxTokens int) Generator {
	if maxTokens == 0 {
		maxTokens = 8192
	}
	return &generator{llm: client, maxTokens: maxTokens}
}

// draftPayload defines the structured-output schema the model must follow.
// It mirrors the WorkflowDraft wire shape.
type draftPayload struct {
	Stages []struct {
		Name         string   `json:"name" jsonschema:"required,description=Short stage name"`
		Kind         string   `json:"kind" jsonschema:"enum=sequential,enum=parallel"`
		Description  string   `json:"description" jsonschema:"description=What happens during this stage"`
		AssignedTeam string   `json:"assigned_team"`
		ParallelWith []string `json:"parallel_with"`
		Inputs       []struct {
			Name   string `json:"name" jsonschema:"required"`
			Source string `json:"source"`
		} `json:"inputs"`
		Outputs []struct {
			Name        string `json:"name" jsonschema:"required"`
			Destination string `json:"destination"`
		} `json:"outputs"`
		Dependencies []struct {
			Kind        string `json:"kind" jsonschema:"required,enum=task_completion,enum=approval,enum=time_based,enum=external"`
			Description string `json:"description" jsonschema:"required"`
			LinkedTo    string `json:"linked_to"`
		} `json:"dependencies"`
	} `json:"stages" jsonschema:"required,description=Ordered stages of the process"`
	LimboZones []struct {
		BetweenStages [2]string `json:"between_stages" jsonschema:"required,description=Names of the two adjacent stages this transition sits between"`
		Dependencies  []struct {
			Kind        string `json:"kind" jsonschema:"required"`
			Description string `json:"description" jsonschema:"required"`
			LinkedTo    string `json:"linked_to"`
		} `json:"dependencies"`
	} `json:"limbo_zones"`
	SuggestedName     string `json:"suggested_name"`
	SuggestedIndustry string `json:"suggested_industry"`
}

func (g *generator) Generate(ctx context.Context, prompt string) (model.WorkflowDraft, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "forge.generator"})

	start := time.Now()
	var raw json.RawMessage
	resp, err := g.llm.Chat(ctx, llm.Request{
		SystemPrompt: generatorSystemPrompt,
		UserPrompt:   prompt,
		SchemaName:   "workflow_draft",
		Schema:       llm.GenerateSchema[draftPayload](),
		MaxTokens:    g.maxTokens,
		Temperature:  llm.Temp(0),
	}, &raw)
	if err != nil {
		return model.WorkflowDraft{}, fmt.Errorf("generating draft: %w", err)
	}

	draft, err := decode.WorkflowDraft(raw)
	if err != nil {
		return model.WorkflowDraft{}, fmt.Errorf("generated draft rejected: %w", err)
	}

	slog.InfoContext(ctx, "draft generated",
		"model", g.llm.Model(),
		"stages", len(draft.Stages),
		"suggested_zones", len(draft.LimboZones),
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return draft, nil
}

const generatorSystemPrompt = `You are a manufacturing and operations analyst. The user describes a multi-stage business process in plain language. Extract it into a structured workflow draft.

Rules:
- Break the process into ordered stages. Each stage gets a short name and a description of at least one full sentence.
- List the inputs each stage consumes and the outputs it produces, when the user mentions them. Leave them empty when the user does not say.
- Record the team responsible for a stage only if the user names one. Never invent team names.
- When the user describes conditions between two consecutive stages (approvals, waiting periods, handoffs), emit a limbo zone between those stages, referencing the stages by the exact names you gave them.
- Dependencies that wait on a task or approval should name what they wait on in the description; leave linked_to empty unless the user gives a concrete reference.
- Suggest a concise workflow name and the industry it belongs to.

Do not pad the draft with information the user never gave. Missing details are found and asked about later.`
