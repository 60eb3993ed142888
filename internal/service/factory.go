package service

import (
	"flowforge.app/forge/internal/phrasing"
	"flowforge.app/forge/internal/queue"
	"flowforge.app/forge/internal/store"
)

// ServicesConfig collects the dependencies the service layer needs.
type ServicesConfig struct {
	WorkflowStore store.WorkflowStore
	Phraser       phrasing.Phraser
	Producer      queue.Producer
}

// Services is the composition root for business logic.
type Services struct {
	workflows WorkflowService
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		workflows: NewWorkflowService(cfg.WorkflowStore, cfg.Phraser, cfg.Producer),
	}
}

func (s *Services) Workflows() WorkflowService {
	return s.workflows
}
