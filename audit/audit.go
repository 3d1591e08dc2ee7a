package audit

import (
	"time"

	"github.com/opsboard/otpgate/model"
)

type CollectorType string

const LOG_FILE_COLLECTOR CollectorType = "LOG_FILE_COLLECTOR"
const NOOP_COLLECTOR CollectorType = "NOOP_COLLECTOR"

type CollectorConfig struct {
	FileName             string
	CollectorType        CollectorType
	FlushIntervalSeconds int
}

// AttemptRecord is one network-bound attempt of a workflow: the original
// submission, a code confirmation or a resend, plus how it was classified.
// Every OTP attempt stays attributable to the workflow that triggered it.
type AttemptRecord struct {
	WorkflowId string            `json:"workflowId"`
	ScopeId    string            `json:"entrepriseId"`
	Event      string            `json:"event"`
	Outcome    model.OutcomeKind `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
	At         time.Time         `json:"at"`
}

type AttemptCollector interface {
	RecordAttempt(record AttemptRecord)
	Stop()
}

var attemptCollector AttemptCollector = noopCollector{}

func InitCollector(config CollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_COLLECTOR:
		c, err := NewLogFileCollector(config.FileName, config.FlushIntervalSeconds)
		if err != nil {
			return err
		}
		attemptCollector = c
	default:
		attemptCollector = noopCollector{}
	}
	return nil
}

func RecordAttempt(record AttemptRecord) {
	attemptCollector.RecordAttempt(record)
}

func StopCollector() {
	attemptCollector.Stop()
}

type noopCollector struct{}

func (noopCollector) RecordAttempt(record AttemptRecord) {}
func (noopCollector) Stop()                              {}
