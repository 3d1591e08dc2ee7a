package protocol

import (
	"context"
	"testing"

	"github.com/opsboard/otpgate/model"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	submitCalls  int
	confirmCalls int
	reply        map[string]any
	err          error
}

func (f *fakeDispatcher) SubmitMutation(ctx context.Context, req *model.MutationRequest) (map[string]any, error) {
	f.submitCalls++
	return f.reply, f.err
}

func (f *fakeDispatcher) ConfirmCode(ctx context.Context, challengeRef string, code string, scopeId string) (map[string]any, error) {
	f.confirmCalls++
	return f.reply, f.err
}

func TestConfirmShapeGate(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: map[string]any{"success": true}}
	client := NewClient(dispatcher, 6)

	for _, code := range []string{"", "12345", "1234567", "12345a", "abcdef", "12 456"} {
		outcome := client.Confirm(context.Background(), "pc1", code, "ent1")
		require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
		require.NotEmpty(t, outcome.FieldErrors["code"])
		require.NotEmpty(t, outcome.Reason)
	}
	require.Equal(t, 0, dispatcher.confirmCalls)
}

func TestConfirmMissingChallenge(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: map[string]any{"success": true}}
	client := NewClient(dispatcher, 6)

	outcome := client.Confirm(context.Background(), "", "123456", "ent1")
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.NotEmpty(t, outcome.FieldErrors["challengeRef"])
	require.Equal(t, 0, dispatcher.confirmCalls)
}

func TestConfirmPassesThroughNormalizer(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: map[string]any{"success": false, "error": "Code invalide"}}
	client := NewClient(dispatcher, 6)

	outcome := client.Confirm(context.Background(), "pc1", "000000", "ent1")
	require.Equal(t, 1, dispatcher.confirmCalls)
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.Equal(t, "Code invalide", outcome.Reason)
}

func TestConfirmCanReturnSecondPending(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: map[string]any{"pendingChangeId": "pc2"}}
	client := NewClient(dispatcher, 6)

	outcome := client.Confirm(context.Background(), "pc1", "123456", "ent1")
	require.Equal(t, model.OUTCOME_PENDING_CONFIRMATION, outcome.Kind)
	require.Equal(t, "pc2", outcome.ChallengeRef)
}

func TestSubmitTimeout(t *testing.T) {
	dispatcher := &fakeDispatcher{err: context.DeadlineExceeded}
	client := NewClient(dispatcher, 6)

	outcome := client.Submit(context.Background(), &model.MutationRequest{Operation: model.OP_CREATE, ScopeId: "ent1"})
	require.Equal(t, model.OUTCOME_FAILED, outcome.Kind)
	require.Equal(t, TimeoutReason, outcome.Reason)
}

func TestResendResubmitsOriginalMutation(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: map[string]any{"pendingChangeId": "pc9"}}
	client := NewClient(dispatcher, 6)

	outcome := client.Resend(context.Background(), &model.MutationRequest{Operation: model.OP_UPDATE, ScopeId: "ent1", TargetId: "a1"})
	require.Equal(t, 1, dispatcher.submitCalls)
	require.Equal(t, model.OUTCOME_PENDING_CONFIRMATION, outcome.Kind)
}
