package util

import (
	"sync"
	"time"

	"github.com/opsboard/otpgate/logger"
	"go.uber.org/zap"
)

type TickWorker struct {
	name     string
	interval time.Duration
	stop     chan struct{}
	wg       *sync.WaitGroup
	fn       func()
}

func NewTickWorker(name string, interval time.Duration, wg *sync.WaitGroup, fn func()) *TickWorker {
	return &TickWorker{
		name:     name,
		interval: interval,
		stop:     make(chan struct{}),
		wg:       wg,
		fn:       fn,
	}
}

func (tw *TickWorker) Start() {
	ticker := time.NewTicker(tw.interval)
	tw.wg.Add(1)
	go func() {
		defer tw.wg.Done()
		for {
			select {
			case <-ticker.C:
				tw.fn()
			case <-tw.stop:
				logger.Info("stopping tick worker", zap.String("worker", tw.name))
				ticker.Stop()
				return
			}
		}
	}()
}

func (tw *TickWorker) Stop() {
	tw.stop <- struct{}{}
}
