package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/opsboard/otpgate/util"
)

type LogFileCollector struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
	wg     sync.WaitGroup
	worker *util.Worker[AttemptRecord]
	tick   *util.TickWorker
}

func NewLogFileCollector(fileName string, flushIntervalSeconds int) (*LogFileCollector, error) {
	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	c := &LogFileCollector{
		file:   file,
		writer: bufio.NewWriter(file),
	}
	c.worker = util.NewWorker[AttemptRecord]("audit-writer", &c.wg, c.write, 256)
	c.tick = util.NewTickWorker("audit-flush", time.Duration(flushIntervalSeconds)*time.Second, &c.wg, c.flush)
	c.worker.Start()
	c.tick.Start()
	return c, nil
}

func (c *LogFileCollector) RecordAttempt(record AttemptRecord) {
	c.worker.Sender() <- record
}

func (c *LogFileCollector) write(record AttemptRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.writer.Write(line); err != nil {
		return err
	}
	return c.writer.WriteByte('\n')
}

func (c *LogFileCollector) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
}

func (c *LogFileCollector) Stop() {
	c.worker.Stop()
	c.tick.Stop()
	c.wg.Wait()
	c.flush()
	c.file.Close()
}
