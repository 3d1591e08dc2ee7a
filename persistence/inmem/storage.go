package inmem

import (
	"encoding/json"
	"time"

	"github.com/opsboard/otpgate/model"
	"github.com/opsboard/otpgate/persistence"
	c "github.com/patrickmn/go-cache"
)

type Config struct {
	SessionTTL time.Duration
}

type InmemContextStorage struct {
	cache      *c.Cache
	sessionTTL time.Duration
}

func NewInmemContextStorage(conf Config) *InmemContextStorage {
	return &InmemContextStorage{
		cache:      c.New(conf.SessionTTL, 1*time.Minute),
		sessionTTL: conf.SessionTTL,
	}
}

func (s *InmemContextStorage) SaveContext(wfCtx *model.WorkflowContext) error {
	// stored as bytes so a caller holding the pointer can not mutate the
	// persisted copy, same contract as the redis implementation
	data, err := json.Marshal(wfCtx)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	s.cache.Set(wfCtx.Id, data, s.sessionTTL)
	return nil
}

func (s *InmemContextStorage) GetContext(workflowId string) (*model.WorkflowContext, error) {
	raw, found := s.cache.Get(workflowId)
	if !found {
		return nil, persistence.ContextNotFoundError{WorkflowId: workflowId}
	}
	var wfCtx model.WorkflowContext
	if err := json.Unmarshal(raw.([]byte), &wfCtx); err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return &wfCtx, nil
}

func (s *InmemContextStorage) DeleteContext(workflowId string) error {
	s.cache.Delete(workflowId)
	return nil
}
