package model

type OutcomeKind string

const OUTCOME_APPLIED OutcomeKind = "APPLIED"
const OUTCOME_PENDING_CONFIRMATION OutcomeKind = "PENDING_CONFIRMATION"
const OUTCOME_FAILED OutcomeKind = "FAILED"

// Outcome is the canonical classification of one backend reply. Exactly one
// variant is populated; build it through the constructors below only.
type Outcome struct {
	Kind         OutcomeKind
	Result       map[string]any
	ChallengeRef string
	Message      string
	Reason       string
	FieldErrors  map[string][]string
}

func AppliedOutcome(result map[string]any) Outcome {
	return Outcome{Kind: OUTCOME_APPLIED, Result: result}
}

func PendingOutcome(challengeRef string, message string) Outcome {
	return Outcome{Kind: OUTCOME_PENDING_CONFIRMATION, ChallengeRef: challengeRef, Message: message}
}

func FailedOutcome(reason string) Outcome {
	return Outcome{Kind: OUTCOME_FAILED, Reason: reason}
}

func FailedOutcomeWithFields(reason string, fieldErrors map[string][]string) Outcome {
	return Outcome{Kind: OUTCOME_FAILED, Reason: reason, FieldErrors: fieldErrors}
}
