package service

import (
	"context"
	"sync"

	"github.com/opsboard/otpgate/model"
	"github.com/opsboard/otpgate/persistence"
	"github.com/opsboard/otpgate/protocol"
	"github.com/opsboard/otpgate/workflow"
)

// WorkflowExecutionService hosts the workflow machines for UI callers. Events
// for one workflow id are serialized with a per-id lock so an in-flight
// confirmation blocks further submissions; independent workflows share
// nothing and run concurrently.
type WorkflowExecutionService struct {
	storage  persistence.Storage
	protocol *protocol.Client
	opts     workflow.Options
	locks    sync.Map
}

func NewWorkflowExecutionService(storage persistence.Storage, protocolClient *protocol.Client, opts workflow.Options) *WorkflowExecutionService {
	return &WorkflowExecutionService{
		storage:  storage,
		protocol: protocolClient,
		opts:     opts,
	}
}

func (s *WorkflowExecutionService) StartWorkflow(req model.WorkflowStartRequest) (*model.WorkflowExecution, error) {
	machine := workflow.NewWorkflowMachine(s.storage, s.protocol, s.opts)
	if err := machine.Start(req.Operation, req.ScopeId, req.TargetId, req.Payload, req.Recap); err != nil {
		return nil, err
	}
	return machine.Execution(), nil
}

func (s *WorkflowExecutionService) Submit(ctx context.Context, workflowId string, payload map[string]any) (*model.WorkflowExecution, error) {
	return s.withMachine(workflowId, func(m *workflow.WorkflowMachine) error {
		return m.Submit(ctx, payload)
	})
}

func (s *WorkflowExecutionService) ConfirmIntent(ctx context.Context, workflowId string) (*model.WorkflowExecution, error) {
	return s.withMachine(workflowId, func(m *workflow.WorkflowMachine) error {
		return m.ConfirmIntent(ctx)
	})
}

func (s *WorkflowExecutionService) Back(workflowId string) (*model.WorkflowExecution, error) {
	return s.withMachine(workflowId, func(m *workflow.WorkflowMachine) error {
		return m.Back()
	})
}

func (s *WorkflowExecutionService) SubmitCode(ctx context.Context, workflowId string, code string) (*model.WorkflowExecution, error) {
	return s.withMachine(workflowId, func(m *workflow.WorkflowMachine) error {
		return m.SubmitCode(ctx, code)
	})
}

func (s *WorkflowExecutionService) RequestResend(ctx context.Context, workflowId string) (*model.WorkflowExecution, error) {
	return s.withMachine(workflowId, func(m *workflow.WorkflowMachine) error {
		return m.RequestResend(ctx)
	})
}

func (s *WorkflowExecutionService) Retry(workflowId string) (*model.WorkflowExecution, error) {
	return s.withMachine(workflowId, func(m *workflow.WorkflowMachine) error {
		return m.Retry()
	})
}

func (s *WorkflowExecutionService) Cancel(workflowId string) (*model.WorkflowExecution, error) {
	exec, err := s.withMachine(workflowId, func(m *workflow.WorkflowMachine) error {
		return m.Cancel()
	})
	if err == nil {
		s.locks.Delete(workflowId)
	}
	return exec, err
}

// GetWorkflow reads the state snapshot without taking the event lock, so a
// caller can observe SUBMITTING or VERIFYING_CODE while the network call is
// in flight.
func (s *WorkflowExecutionService) GetWorkflow(workflowId string) (*model.WorkflowExecution, error) {
	machine, err := workflow.GetWorkflowMachine(workflowId, s.storage, s.protocol, s.opts)
	if err != nil {
		return nil, err
	}
	return machine.Execution(), nil
}

func (s *WorkflowExecutionService) withMachine(workflowId string, fn func(m *workflow.WorkflowMachine) error) (*model.WorkflowExecution, error) {
	lock := s.lockFor(workflowId)
	lock.Lock()
	defer lock.Unlock()
	machine, err := workflow.GetWorkflowMachine(workflowId, s.storage, s.protocol, s.opts)
	if err != nil {
		return nil, err
	}
	if err := fn(machine); err != nil {
		return nil, err
	}
	return machine.Execution(), nil
}

func (s *WorkflowExecutionService) lockFor(workflowId string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(workflowId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
