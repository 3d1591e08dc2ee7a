package persistence

import (
	"fmt"

	"github.com/opsboard/otpgate/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type ContextNotFoundError struct {
	WorkflowId string
}

func (e ContextNotFoundError) Error() string {
	return fmt.Sprintf("workflow context %s not found", e.WorkflowId)
}

// Storage holds one WorkflowContext per live workflow instance. Contexts of
// abandoned workflows expire after the configured session TTL; the TTL is
// refreshed on every save so only idle sessions are reaped.
type Storage interface {
	SaveContext(wfCtx *model.WorkflowContext) error
	GetContext(workflowId string) (*model.WorkflowContext, error)
	DeleteContext(workflowId string) error
}
