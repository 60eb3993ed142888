package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flowforge.app/forge/internal/decode"
	"flowforge.app/forge/internal/http/dto"
	"flowforge.app/forge/internal/service"
)

type WorkflowHandler struct {
	service service.WorkflowService
}

func NewWorkflowHandler(service service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

// Create builds a workflow directly from a client-supplied draft document.
// The body goes through the validating decoder, not gin binding: stage kinds
// get coerced and malformed entries dropped the same way generated drafts do.
func (h *WorkflowHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	draft, err := decode.WorkflowDraft(body)
	if err != nil {
		slog.WarnContext(ctx, "invalid workflow draft", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.service.CreateFromDraft(ctx, draft)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create workflow", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create workflow"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkflowResponse(wf))
}

// Generate accepts a natural language prompt and enqueues draft generation.
// The workflow record is returned immediately in generating status.
func (h *WorkflowHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.service.RequestGeneration(ctx, req.Prompt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to request generation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request generation"})
		return
	}

	c.JSON(http.StatusAccepted, dto.ToWorkflowResponse(wf))
}

func (h *WorkflowHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	workflowID, ok := h.workflowID(c)
	if !ok {
		return
	}

	wf, err := h.service.Get(ctx, workflowID)
	if err != nil {
		h.renderError(c, err, "failed to get workflow")
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowResponse(wf))
}

func (h *WorkflowHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := parseInt32(c.DefaultQuery("limit", "50"), 50)
	offset := parseInt32(c.DefaultQuery("offset", "0"), 0)

	workflows, err := h.service.List(ctx, limit, offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list workflows", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list workflows"})
		return
	}

	responses := make([]dto.WorkflowResponse, len(workflows))
	for i := range workflows {
		responses[i] = dto.ToWorkflowResponse(&workflows[i])
	}
	c.JSON(http.StatusOK, gin.H{"workflows": responses})
}

func (h *WorkflowHandler) AddStage(c *gin.Context) {
	ctx := c.Request.Context()

	workflowID, ok := h.workflowID(c)
	if !ok {
		return
	}

	var req dto.AddStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, err := h.service.AddStage(ctx, workflowID, req.ToStage())
	if err != nil {
		h.renderError(c, err, "failed to add stage")
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowResponse(wf))
}

func (h *WorkflowHandler) RemoveStage(c *gin.Context) {
	ctx := c.Request.Context()

	workflowID, ok := h.workflowID(c)
	if !ok {
		return
	}

	wf, err := h.service.RemoveStage(ctx, workflowID, c.Param("stageID"))
	if err != nil {
		h.renderError(c, err, "failed to remove stage")
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkflowResponse(wf))
}

func (h *WorkflowHandler) Gaps(c *gin.Context) {
	ctx := c.Request.Context()

	workflowID, ok := h.workflowID(c)
	if !ok {
		return
	}

	gaps, err := h.service.Gaps(ctx, workflowID)
	if err != nil {
		h.renderError(c, err, "failed to analyze workflow")
		return
	}

	c.JSON(http.StatusOK, gin.H{"gaps": gaps})
}

func (h *WorkflowHandler) Questions(c *gin.Context) {
	ctx := c.Request.Context()

	workflowID, ok := h.workflowID(c)
	if !ok {
		return
	}

	questions, err := h.service.Questions(ctx, workflowID)
	if err != nil {
		h.renderError(c, err, "failed to build questions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// Answers applies a batch of enrichment answers. Individual failures are
// reported per answer; the remaining answers still apply.
func (h *WorkflowHandler) Answers(c *gin.Context) {
	ctx := c.Request.Context()

	workflowID, ok := h.workflowID(c)
	if !ok {
		return
	}

	var req dto.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wf, failed, err := h.service.ApplyAnswers(ctx, workflowID, req.Answers)
	if err != nil {
		h.renderError(c, err, "failed to apply answers")
		return
	}

	c.JSON(http.StatusOK, dto.SubmitAnswersResponse{
		Workflow: dto.ToWorkflowResponse(wf),
		Failed:   dto.ToApplyFailures(failed),
	})
}

// Save runs the completeness gate. A blocked save is not an error: the gate
// result comes back with 409 so the client can surface the blocking gaps.
func (h *WorkflowHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()

	workflowID, ok := h.workflowID(c)
	if !ok {
		return
	}

	var req dto.SaveWorkflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.service.Save(ctx, workflowID, req.AllowIncomplete)
	if err != nil {
		h.renderError(c, err, "failed to save workflow")
		return
	}

	resp := dto.SaveWorkflowResponse{
		Complete:     result.Gate.Complete,
		BlockingGaps: result.Gate.BlockingGaps,
		Warnings:     result.Gate.Warnings,
		Workflow:     dto.ToWorkflowResponse(result.Workflow),
	}
	if !result.Gate.Complete {
		c.JSON(http.StatusConflict, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WorkflowHandler) workflowID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
		return 0, false
	}
	return id, true
}

func (h *WorkflowHandler) renderError(c *gin.Context, err error, msg string) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, service.ErrWorkflowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
	case errors.Is(err, service.ErrAlreadySaved):
		c.JSON(http.StatusConflict, gin.H{"error": "workflow has already been saved"})
	case errors.Is(err, service.ErrStillGenerating):
		c.JSON(http.StatusConflict, gin.H{"error": "workflow draft is still being generated"})
	default:
		var decodeErr *decode.Error
		if errors.As(err, &decodeErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": decodeErr.Error()})
			return
		}
		slog.ErrorContext(ctx, msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func parseInt32(s string, fallback int32) int32 {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v < 0 {
		return fallback
	}
	return int32(v)
}
