package service

import (
	"context"
	"testing"
	"time"

	"github.com/opsboard/otpgate/model"
	"github.com/opsboard/otpgate/persistence"
	"github.com/opsboard/otpgate/persistence/inmem"
	"github.com/opsboard/otpgate/protocol"
	"github.com/opsboard/otpgate/workflow"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	submitReplies  []map[string]any
	confirmReplies []map[string]any
}

func (d *fakeDispatcher) SubmitMutation(ctx context.Context, req *model.MutationRequest) (map[string]any, error) {
	reply := d.submitReplies[0]
	d.submitReplies = d.submitReplies[1:]
	return reply, nil
}

func (d *fakeDispatcher) ConfirmCode(ctx context.Context, challengeRef string, code string, scopeId string) (map[string]any, error) {
	reply := d.confirmReplies[0]
	d.confirmReplies = d.confirmReplies[1:]
	return reply, nil
}

func newService(dispatcher *fakeDispatcher) *WorkflowExecutionService {
	storage := inmem.NewInmemContextStorage(inmem.Config{SessionTTL: 1 * time.Minute})
	return NewWorkflowExecutionService(storage, protocol.NewClient(dispatcher, 6),
		workflow.Options{CodeLength: 6, CooldownSeconds: 60})
}

func TestServiceDrivesWorkflowEndToEnd(t *testing.T) {
	svc := newService(&fakeDispatcher{
		submitReplies:  []map[string]any{{"type": "success", "data": map[string]any{"pendingChangeId": "pc1"}}},
		confirmReplies: []map[string]any{{"success": true}},
	})

	exec, err := svc.StartWorkflow(model.WorkflowStartRequest{
		Operation: model.OP_CREDIT_BALANCE,
		ScopeId:   "ent1",
		TargetId:  "bal1",
		Payload:   map[string]any{"amount": 5000},
	})
	require.NoError(t, err)
	require.Equal(t, model.COLLECTING_INPUT, exec.State)

	exec, err = svc.Submit(context.Background(), exec.Id, nil)
	require.NoError(t, err)
	require.Equal(t, model.AWAITING_CODE, exec.State)
	require.Equal(t, "pc1", exec.ChallengeRef)

	exec, err = svc.SubmitCode(context.Background(), exec.Id, "123456")
	require.NoError(t, err)
	require.Equal(t, model.SUCCEEDED, exec.State)

	loaded, err := svc.GetWorkflow(exec.Id)
	require.NoError(t, err)
	require.Equal(t, model.SUCCEEDED, loaded.State)
}

func TestServiceUnknownWorkflow(t *testing.T) {
	svc := newService(&fakeDispatcher{})
	_, err := svc.Submit(context.Background(), "missing", nil)
	_, ok := err.(persistence.ContextNotFoundError)
	require.True(t, ok)
}

func TestServiceCancelRemovesWorkflow(t *testing.T) {
	svc := newService(&fakeDispatcher{})
	exec, err := svc.StartWorkflow(model.WorkflowStartRequest{
		Operation: model.OP_CREATE,
		ScopeId:   "ent1",
		Payload:   map[string]any{"name": "agence nord"},
	})
	require.NoError(t, err)

	exec, err = svc.Cancel(exec.Id)
	require.NoError(t, err)
	require.Equal(t, model.IDLE, exec.State)

	_, err = svc.GetWorkflow(exec.Id)
	_, ok := err.(persistence.ContextNotFoundError)
	require.True(t, ok)
}
