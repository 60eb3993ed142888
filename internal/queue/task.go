package queue

// GenerationTask asks the worker to generate a workflow draft from a
// natural-language prompt and attach it to an existing workflow record.
type GenerationTask struct {
	WorkflowID int64
	Prompt     string
	TraceID    string
	Attempt    int
}
