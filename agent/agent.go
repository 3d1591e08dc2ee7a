package agent

import (
	"sync"
	"time"

	"github.com/opsboard/otpgate/audit"
	"github.com/opsboard/otpgate/config"
	"github.com/opsboard/otpgate/logger"
	"github.com/opsboard/otpgate/persistence"
	"github.com/opsboard/otpgate/persistence/inmem"
	"github.com/opsboard/otpgate/persistence/redis"
	"github.com/opsboard/otpgate/protocol"
	"github.com/opsboard/otpgate/rest"
	"github.com/opsboard/otpgate/service"
	"github.com/opsboard/otpgate/transport"
	"github.com/opsboard/otpgate/workflow"
)

type Agent struct {
	Config           config.Config
	storage          persistence.Storage
	dispatcher       transport.Dispatcher
	protocolClient   *protocol.Client
	executionService *service.WorkflowExecutionService
	httpServer       *rest.Server
	shutdown         bool
	shutdownLock     sync.Mutex
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config: config,
	}
	setup := []func() error{
		a.setupAudit,
		a.setupStorage,
		a.setupDispatcher,
		a.setupProtocolClient,
		a.setupExecutionService,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupAudit() error {
	return audit.InitCollector(a.Config.AuditConfig)
}

func (a *Agent) setupStorage() error {
	sessionTTL := time.Duration(a.Config.SessionTTLSeconds) * time.Second
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.storage = redis.NewRedisContextStorage(redis.Config{
			Addrs:      a.Config.RedisConfig.Addrs,
			Namespace:  a.Config.RedisConfig.Namespace,
			SessionTTL: sessionTTL,
		})
	default:
		a.storage = inmem.NewInmemContextStorage(inmem.Config{
			SessionTTL: sessionTTL,
		})
	}
	return nil
}

func (a *Agent) setupDispatcher() error {
	a.dispatcher = transport.NewHttpDispatcher(transport.Config{
		BaseUrl:        a.Config.BackendConfig.BaseUrl,
		TimeoutSeconds: a.Config.BackendConfig.TimeoutSeconds,
	})
	return nil
}

func (a *Agent) setupProtocolClient() error {
	a.protocolClient = protocol.NewClient(a.dispatcher, a.Config.OtpConfig.CodeLength)
	return nil
}

func (a *Agent) setupExecutionService() error {
	a.executionService = service.NewWorkflowExecutionService(a.storage, a.protocolClient, workflow.Options{
		CodeLength:      a.Config.OtpConfig.CodeLength,
		CooldownSeconds: a.Config.OtpConfig.CooldownSeconds,
	})
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.executionService)
	return err
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	logger.Info("shutting down agent")
	if err := a.httpServer.Stop(); err != nil {
		return err
	}
	audit.StopCollector()
	return nil
}
