package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/logger"
)

type countingSyncer struct {
	calls atomic.Int32
}

func (c *countingSyncer) Sync(context.Context) *SyncResult {
	c.calls.Add(1)
	return &SyncResult{ErrorCode: domainerrors.CodeRateLimited, Error: "Rate limited"}
}

func TestAutoSync_TicksUntilStopped(t *testing.T) {
	syncer := &countingSyncer{}
	worker := NewAutoSync(syncer, 5*time.Millisecond, logger.Discard())

	worker.Start(context.Background())
	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	worker.Stop()
	stopped := syncer.calls.Load()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, stopped, syncer.calls.Load())

	worker.Stop()
}

func TestAutoSync_DisabledWithZeroInterval(t *testing.T) {
	syncer := &countingSyncer{}
	worker := NewAutoSync(syncer, 0, logger.Discard())

	assert.False(t, worker.Enabled())
	worker.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	worker.Stop()

	assert.Zero(t, syncer.calls.Load())
}
