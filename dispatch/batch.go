package dispatch

import (
	"context"
	"sync"

	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
)

// Executor runs one delegated task for a named execution agent and reports
// the outcome. The execution-agent runtime satisfies this through a factory
// closure; tests use fakes.
type Executor interface {
	Execute(ctx context.Context, agentName, instructions string) core.ExecutionResult
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, agentName, instructions string) core.ExecutionResult

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, agentName, instructions string) core.ExecutionResult {
	return f(ctx, agentName, instructions)
}

// BatchManagerOptions configures a BatchManager.
type BatchManagerOptions struct {
	Logger logging.Logger
}

// BatchManager dispatches execution-agent tasks fire-and-forget while
// serializing tasks addressed to the same agent name. Two tasks for the same
// agent never run concurrently; tasks for different agents do.
type BatchManager struct {
	executor Executor
	logger   logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	wg    sync.WaitGroup
}

// NewBatchManager constructs a BatchManager over the given executor.
func NewBatchManager(executor Executor, optFns ...func(o *BatchManagerOptions)) *BatchManager {
	opts := BatchManagerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &BatchManager{
		executor: executor,
		logger:   logging.OrNoOp(opts.Logger),
		locks:    make(map[string]*sync.Mutex),
	}
}

// agentLock returns the mutex serializing tasks for one agent name.
func (b *BatchManager) agentLock(agentName string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[agentName]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[agentName] = lock
	}
	return lock
}

// Submit schedules a task without returning a handle. The outcome is logged;
// callers that need it observe it through the journal.
func (b *BatchManager) Submit(agentName, instructions string) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		result := b.Execute(context.Background(), agentName, instructions)
		status := "SUCCESS"
		if !result.Success {
			status = "FAILED"
		}
		b.logger.Info("agent completed", "agent", agentName, "status", status)
	}()
}

// Execute runs a task synchronously, holding the agent's serialization lock
// for the duration.
func (b *BatchManager) Execute(ctx context.Context, agentName, instructions string) core.ExecutionResult {
	lock := b.agentLock(agentName)
	lock.Lock()
	defer lock.Unlock()
	return b.executor.Execute(ctx, agentName, instructions)
}

// Wait blocks until every submitted task has finished. Intended for shutdown
// and tests.
func (b *BatchManager) Wait() {
	b.wg.Wait()
}
