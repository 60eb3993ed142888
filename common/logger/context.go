package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Business context (workflow_id, task ids) set once at the edge of
// a request or queue message flows into every log statement underneath it.
type LogFields struct {
	WorkflowID *int64  // Workflow record being enriched
	TaskID     *string // Redis stream message id for queued generation tasks
	QuestionID *string // Question being answered, when applying answers
	Component  string  // Component name, e.g. "forge.service.workflow"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.WorkflowID != nil {
		result.WorkflowID = next.WorkflowID
	}
	if next.TaskID != nil {
		result.TaskID = next.TaskID
	}
	if next.QuestionID != nil {
		result.QuestionID = next.QuestionID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{WorkflowID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long prompts or answers.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
