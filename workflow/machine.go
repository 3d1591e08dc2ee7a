package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/otpgate/audit"
	"github.com/opsboard/otpgate/logger"
	"github.com/opsboard/otpgate/model"
	"github.com/opsboard/otpgate/persistence"
	"github.com/opsboard/otpgate/protocol"
	"go.uber.org/zap"
)

type Options struct {
	CodeLength      int
	CooldownSeconds int
	Clock           func() time.Time
}

// WorkflowMachine drives one user-initiated mutation from input collection to
// a terminal state. The persisted WorkflowContext is the single source of
// truth: the machine is rehydrated from storage per event and writes the
// context back after each settled transition. SUBMITTING and VERIFYING_CODE
// are saved before the network call so concurrent state reads observe the
// in-flight phase. No failed transition is ever retried without an explicit
// caller event.
type WorkflowMachine struct {
	WorkflowId string
	wfContext  *model.WorkflowContext
	storage    persistence.Storage
	protocol   *protocol.Client
	opts       Options
	clock      func() time.Time
}

func NewWorkflowMachine(storage persistence.Storage, protocolClient *protocol.Client, opts Options) *WorkflowMachine {
	workflowId := uuid.New().String()
	return &WorkflowMachine{
		WorkflowId: workflowId,
		wfContext:  &model.WorkflowContext{Id: workflowId, State: model.IDLE},
		storage:    storage,
		protocol:   protocolClient,
		opts:       opts,
		clock:      clockOrWall(opts),
	}
}

func GetWorkflowMachine(workflowId string, storage persistence.Storage, protocolClient *protocol.Client, opts Options) (*WorkflowMachine, error) {
	wfCtx, err := storage.GetContext(workflowId)
	if err != nil {
		return nil, err
	}
	return &WorkflowMachine{
		WorkflowId: workflowId,
		wfContext:  wfCtx,
		storage:    storage,
		protocol:   protocolClient,
		opts:       opts,
		clock:      clockOrWall(opts),
	}, nil
}

func clockOrWall(opts Options) func() time.Time {
	if opts.Clock != nil {
		return opts.Clock
	}
	return time.Now
}

// Start opens the operation: form fields reset to the given defaults.
func (m *WorkflowMachine) Start(operation model.OperationKind, scopeId string, targetId string, payload map[string]any, recapNeeded bool) error {
	if m.wfContext.State != model.IDLE {
		return m.invalidEvent("start")
	}
	m.wfContext.State = model.COLLECTING_INPUT
	m.wfContext.RecapNeeded = recapNeeded
	m.wfContext.Request = &model.MutationRequest{
		Operation: operation,
		ScopeId:   scopeId,
		TargetId:  targetId,
		Payload:   payload,
	}
	return m.save()
}

// Submit leaves input collection with the current form payload. Validation
// failures stay local and never reach the network; with a recap step the
// machine pauses on CONFIRMING_INTENT, otherwise it dispatches immediately.
func (m *WorkflowMachine) Submit(ctx context.Context, payload map[string]any) error {
	if m.wfContext.State != model.COLLECTING_INPUT {
		return m.invalidEvent("submit")
	}
	if payload != nil {
		m.wfContext.Request.Payload = payload
	}
	if fieldErrors := validateRequest(m.wfContext.Request); len(fieldErrors) > 0 {
		m.wfContext.FieldErrors = fieldErrors
		m.wfContext.Reason = firstMessage(fieldErrors)
		return m.save()
	}
	m.clearErrors()
	if m.wfContext.RecapNeeded {
		m.wfContext.State = model.CONFIRMING_INTENT
		return m.save()
	}
	return m.dispatchMutation(ctx, "submit")
}

// ConfirmIntent is the user accepting the read-only recap.
func (m *WorkflowMachine) ConfirmIntent(ctx context.Context) error {
	if m.wfContext.State != model.CONFIRMING_INTENT {
		return m.invalidEvent("confirm intent")
	}
	return m.dispatchMutation(ctx, "submit")
}

// Back returns from the recap to input collection, form fields preserved.
func (m *WorkflowMachine) Back() error {
	if m.wfContext.State != model.CONFIRMING_INTENT {
		return m.invalidEvent("back")
	}
	m.wfContext.State = model.COLLECTING_INPUT
	m.clearErrors()
	return m.save()
}

func (m *WorkflowMachine) SubmitCode(ctx context.Context, code string) error {
	if m.wfContext.State != model.AWAITING_CODE {
		return m.invalidEvent("submit code")
	}
	if messages := m.protocol.CheckCode(code); messages != nil {
		// shape gate: stay on AWAITING_CODE, no network call
		m.wfContext.FieldErrors = map[string][]string{"code": messages}
		m.wfContext.Reason = messages[0]
		return m.save()
	}
	challenge := m.wfContext.Challenge
	m.wfContext.State = model.VERIFYING_CODE
	m.clearErrors()
	if err := m.save(); err != nil {
		return err
	}
	outcome := m.protocol.Confirm(ctx, challenge.ChallengeRef, code, challenge.ScopeId)
	m.recordAttempt("confirm", outcome)
	switch outcome.Kind {
	case model.OUTCOME_APPLIED:
		m.markSucceeded(outcome)
	case model.OUTCOME_PENDING_CONFIRMATION:
		// degenerate flow: the backend minted a fresh challenge, replace
		// ours and restart the cooldown
		m.replaceChallenge(outcome)
	case model.OUTCOME_FAILED:
		m.wfContext.State = model.AWAITING_CODE
		m.wfContext.Reason = outcome.Reason
		m.wfContext.FieldErrors = outcome.FieldErrors
	}
	return m.save()
}

// RequestResend resubmits the original mutation so the backend delivers a
// fresh code. Rejected while the cooldown is still running.
func (m *WorkflowMachine) RequestResend(ctx context.Context) error {
	if m.wfContext.State != model.AWAITING_CODE {
		return m.invalidEvent("resend")
	}
	timer := RestoreCooldownTimer(m.opts.CooldownSeconds, m.wfContext.ResendAt, m.clock)
	if !timer.CanResend() {
		return fmt.Errorf("resend available in %d seconds", timer.SecondsRemaining())
	}
	return m.dispatchMutation(ctx, "resend")
}

// Retry re-enters input collection after a terminal failure, payload
// preserved.
func (m *WorkflowMachine) Retry() error {
	if m.wfContext.State != model.FAILED {
		return m.invalidEvent("retry")
	}
	m.wfContext.State = model.COLLECTING_INPUT
	m.clearErrors()
	return m.save()
}

// Cancel abandons the workflow at any non-terminal point. The challenge and
// request are discarded locally; an unconfirmed pending change simply expires
// on the backend.
func (m *WorkflowMachine) Cancel() error {
	if m.wfContext.State.Terminal() {
		return m.invalidEvent("cancel")
	}
	m.wfContext.State = model.IDLE
	m.wfContext.Request = nil
	m.wfContext.Challenge = nil
	m.wfContext.ResendAt = time.Time{}
	m.clearErrors()
	m.wfContext.Result = nil
	logger.Info("workflow cancelled", zap.String("id", m.WorkflowId))
	return m.storage.DeleteContext(m.WorkflowId)
}

func (m *WorkflowMachine) GetState() model.WorkflowState {
	return m.wfContext.State
}

// Execution builds the read model for callers, including the live cooldown
// countdown when a challenge is outstanding.
func (m *WorkflowMachine) Execution() *model.WorkflowExecution {
	exec := &model.WorkflowExecution{
		Id:          m.WorkflowId,
		State:       m.wfContext.State,
		Reason:      m.wfContext.Reason,
		Message:     m.wfContext.Message,
		FieldErrors: m.wfContext.FieldErrors,
		Result:      m.wfContext.Result,
	}
	if m.wfContext.Challenge != nil {
		timer := RestoreCooldownTimer(m.opts.CooldownSeconds, m.wfContext.ResendAt, m.clock)
		exec.ChallengeRef = m.wfContext.Challenge.ChallengeRef
		exec.CodeLength = m.wfContext.Challenge.CodeLength
		exec.SecondsRemaining = timer.SecondsRemaining()
		exec.CanResend = m.wfContext.State == model.AWAITING_CODE && timer.CanResend()
	}
	return exec
}

func (m *WorkflowMachine) dispatchMutation(ctx context.Context, event string) error {
	m.wfContext.State = model.SUBMITTING
	m.clearErrors()
	if err := m.save(); err != nil {
		return err
	}
	outcome := m.protocol.Submit(ctx, m.wfContext.Request)
	m.recordAttempt(event, outcome)
	switch outcome.Kind {
	case model.OUTCOME_APPLIED:
		m.markSucceeded(outcome)
	case model.OUTCOME_PENDING_CONFIRMATION:
		m.replaceChallenge(outcome)
	case model.OUTCOME_FAILED:
		if len(outcome.FieldErrors) > 0 {
			// recoverable by editing input, recap discarded
			m.wfContext.State = model.COLLECTING_INPUT
			m.wfContext.FieldErrors = outcome.FieldErrors
			m.wfContext.Reason = outcome.Reason
			m.wfContext.Challenge = nil
			m.wfContext.ResendAt = time.Time{}
		} else {
			m.markFailed(outcome)
		}
	}
	return m.save()
}

func (m *WorkflowMachine) markSucceeded(outcome model.Outcome) {
	m.wfContext.State = model.SUCCEEDED
	m.wfContext.Result = outcome.Result
	m.wfContext.Challenge = nil
	m.wfContext.ResendAt = time.Time{}
	logger.Info("workflow succeeded", zap.String("id", m.WorkflowId))
}

func (m *WorkflowMachine) markFailed(outcome model.Outcome) {
	m.wfContext.State = model.FAILED
	m.wfContext.Reason = outcome.Reason
	m.wfContext.Challenge = nil
	m.wfContext.ResendAt = time.Time{}
	logger.Info("workflow failed", zap.String("id", m.WorkflowId), zap.String("reason", outcome.Reason))
}

// replaceChallenge installs the new challenge, never stacking two: a second
// pending outcome always supersedes the live one.
func (m *WorkflowMachine) replaceChallenge(outcome model.Outcome) {
	timer := NewCooldownTimer(m.opts.CooldownSeconds, m.clock)
	m.wfContext.State = model.AWAITING_CODE
	m.wfContext.Challenge = &model.OtpChallenge{
		ChallengeRef:    outcome.ChallengeRef,
		ScopeId:         m.wfContext.Request.ScopeId,
		CreatedAt:       m.clock(),
		CodeLength:      m.opts.CodeLength,
		CooldownSeconds: m.opts.CooldownSeconds,
	}
	m.wfContext.ResendAt = timer.Deadline()
	m.wfContext.Message = outcome.Message
}

func (m *WorkflowMachine) recordAttempt(event string, outcome model.Outcome) {
	audit.RecordAttempt(audit.AttemptRecord{
		WorkflowId: m.WorkflowId,
		ScopeId:    m.wfContext.Request.ScopeId,
		Event:      event,
		Outcome:    outcome.Kind,
		Reason:     outcome.Reason,
		At:         m.clock(),
	})
}

func (m *WorkflowMachine) clearErrors() {
	m.wfContext.Reason = ""
	m.wfContext.FieldErrors = nil
	m.wfContext.Message = ""
}

func (m *WorkflowMachine) save() error {
	return m.storage.SaveContext(m.wfContext)
}

func (m *WorkflowMachine) invalidEvent(event string) error {
	return fmt.Errorf("can not %s workflow in state %s", event, m.wfContext.State)
}

func validateRequest(req *model.MutationRequest) map[string][]string {
	fieldErrors := make(map[string][]string)
	if !req.Operation.Valid() {
		fieldErrors["operation"] = []string{"unknown operation"}
	}
	if req.ScopeId == "" {
		fieldErrors["entrepriseId"] = []string{"entreprise is required"}
	}
	if req.Operation.Valid() && req.Operation.NeedsTarget() && req.TargetId == "" {
		fieldErrors["targetId"] = []string{"target is required"}
	}
	if req.Operation.Valid() && req.Operation.NeedsPayload() && len(req.Payload) == 0 {
		fieldErrors["payload"] = []string{"payload is required"}
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

func firstMessage(fieldErrors map[string][]string) string {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if len(fieldErrors[field]) > 0 {
			return fieldErrors[field][0]
		}
	}
	return "invalid request"
}
