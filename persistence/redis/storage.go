package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/opsboard/otpgate/model"
	"github.com/opsboard/otpgate/persistence"
)

const WORKFLOW_KEY string = "WF_CTX"

type Config struct {
	Addrs      []string
	Namespace  string
	PoolSize   int
	Password   string
	SessionTTL time.Duration
}

var _ persistence.Storage = new(redisContextStorage)

type redisContextStorage struct {
	redisClient rd.UniversalClient
	namespace   string
	sessionTTL  time.Duration
}

func NewRedisContextStorage(conf Config) *redisContextStorage {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs:    conf.Addrs,
		PoolSize: conf.PoolSize,
		Password: conf.Password,
	})
	return &redisContextStorage{
		redisClient: redisClient,
		namespace:   conf.Namespace,
		sessionTTL:  conf.SessionTTL,
	}
}

func (r *redisContextStorage) getNamespaceKey(args ...string) string {
	return fmt.Sprintf("%s:%s", r.namespace, strings.Join(args, ":"))
}

func (r *redisContextStorage) SaveContext(wfCtx *model.WorkflowContext) error {
	key := r.getNamespaceKey(WORKFLOW_KEY, wfCtx.Id)
	ctx := context.Background()
	data, err := json.Marshal(wfCtx)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if err := r.redisClient.Set(ctx, key, data, r.sessionTTL).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisContextStorage) GetContext(workflowId string) (*model.WorkflowContext, error) {
	key := r.getNamespaceKey(WORKFLOW_KEY, workflowId)
	ctx := context.Background()
	wfCtxStr, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.ContextNotFoundError{WorkflowId: workflowId}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var wfCtx model.WorkflowContext
	if err := json.Unmarshal([]byte(wfCtxStr), &wfCtx); err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return &wfCtx, nil
}

func (r *redisContextStorage) DeleteContext(workflowId string) error {
	key := r.getNamespaceKey(WORKFLOW_KEY, workflowId)
	ctx := context.Background()
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
