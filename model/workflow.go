package model

import "time"

type WorkflowState string

const IDLE WorkflowState = "IDLE"
const COLLECTING_INPUT WorkflowState = "COLLECTING_INPUT"
const CONFIRMING_INTENT WorkflowState = "CONFIRMING_INTENT"
const SUBMITTING WorkflowState = "SUBMITTING"
const AWAITING_CODE WorkflowState = "AWAITING_CODE"
const VERIFYING_CODE WorkflowState = "VERIFYING_CODE"
const SUCCEEDED WorkflowState = "SUCCEEDED"
const FAILED WorkflowState = "FAILED"

func (s WorkflowState) Terminal() bool {
	return s == SUCCEEDED || s == FAILED
}

type OperationKind string

const OP_CREATE OperationKind = "CREATE"
const OP_UPDATE OperationKind = "UPDATE"
const OP_DELETE OperationKind = "DELETE"
const OP_ATTACH_RELATION OperationKind = "ATTACH_RELATION"
const OP_DETACH_RELATION OperationKind = "DETACH_RELATION"
const OP_CREDIT_BALANCE OperationKind = "CREDIT_BALANCE"
const OP_DEBIT_BALANCE OperationKind = "DEBIT_BALANCE"

func (k OperationKind) Valid() bool {
	switch k {
	case OP_CREATE, OP_UPDATE, OP_DELETE, OP_ATTACH_RELATION, OP_DETACH_RELATION, OP_CREDIT_BALANCE, OP_DEBIT_BALANCE:
		return true
	}
	return false
}

func (k OperationKind) NeedsTarget() bool {
	return k != OP_CREATE
}

func (k OperationKind) NeedsPayload() bool {
	switch k {
	case OP_CREATE, OP_UPDATE, OP_CREDIT_BALANCE, OP_DEBIT_BALANCE:
		return true
	}
	return false
}

// MutationRequest is one intended write against the dashboard backend. It is
// built once when the workflow leaves input collection and never mutated after
// that; resend reuses the same request verbatim.
type MutationRequest struct {
	Operation OperationKind  `json:"operation"`
	ScopeId   string         `json:"entrepriseId"`
	TargetId  string         `json:"targetId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// OtpChallenge is one outstanding confirmation minted by the backend for a
// staged mutation. Replaced wholesale when a resend or re-confirm yields a new
// pending reference; never persisted past the owning workflow.
type OtpChallenge struct {
	ChallengeRef    string    `json:"challengeRef"`
	ScopeId         string    `json:"entrepriseId"`
	CreatedAt       time.Time `json:"createdAt"`
	CodeLength      int       `json:"codeLength"`
	CooldownSeconds int       `json:"cooldownSeconds"`
}

// WorkflowContext is the persisted single source of truth for one
// user-initiated operation. The state machine is rehydrated from it on every
// event and writes it back after each settled transition.
type WorkflowContext struct {
	Id          string              `json:"id"`
	State       WorkflowState       `json:"state"`
	RecapNeeded bool                `json:"recapNeeded"`
	Request     *MutationRequest    `json:"request,omitempty"`
	Challenge   *OtpChallenge       `json:"challenge,omitempty"`
	ResendAt    time.Time           `json:"resendAt,omitempty"`
	Message     string              `json:"message,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Result      map[string]any      `json:"result,omitempty"`
}

// WorkflowExecution is the read model handed to callers, state plus the
// cooldown bookkeeping the UI renders.
type WorkflowExecution struct {
	Id               string              `json:"id"`
	State            WorkflowState       `json:"state"`
	Reason           string              `json:"reason,omitempty"`
	Message          string              `json:"message,omitempty"`
	FieldErrors      map[string][]string `json:"fieldErrors,omitempty"`
	Result           map[string]any      `json:"result,omitempty"`
	ChallengeRef     string              `json:"challengeRef,omitempty"`
	CodeLength       int                 `json:"codeLength,omitempty"`
	SecondsRemaining int                 `json:"secondsRemaining"`
	CanResend        bool                `json:"canResend"`
}
