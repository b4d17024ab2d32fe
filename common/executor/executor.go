package executor

import (
	"context"
	"sync"

	"github.com/zeromicro/go-zero/core/threading"
)

// Executor runs committed tasks on a fixed number of workers. A panicking
// handler is recovered and logged without taking its worker down.
type Executor[P interface{}] struct {
	ctx     context.Context
	tasks   chan P
	handler func(ctx context.Context, task P)
	workers int
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

func NewExecutor[P interface{}](ctx context.Context, workers int, queueSize int, handler func(ctx context.Context, task P)) *Executor[P] {
	if workers < 1 {
		workers = 1
	}
	ret := &Executor[P]{
		tasks:   make(chan P, queueSize),
		handler: handler,
		workers: workers,
	}
	ret.ctx, ret.cancel = context.WithCancel(ctx)
	return ret
}

func (e *Executor[P]) Start() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-e.ctx.Done():
					return
				case task, ok := <-e.tasks:
					if !ok {
						return
					}
					threading.RunSafe(func() {
						e.handler(e.ctx, task)
					})
				}
			}
		}()
	}
}

// Stop abandons queued tasks. Running handlers see their context cancelled.
func (e *Executor[P]) Stop() {
	e.cancel()
}

// Wait closes the queue and blocks until every committed task has run or
// the executor is stopped. Commit must not be called afterwards.
func (e *Executor[P]) Wait() {
	e.once.Do(func() {
		close(e.tasks)
	})
	e.wg.Wait()
}

func (e *Executor[P]) QueueSize() int {
	return len(e.tasks)
}

// Commit queues task, blocking while the queue is full. It reports false
// when the executor was stopped before the task could be queued.
func (e *Executor[P]) Commit(task P) bool {
	select {
	case <-e.ctx.Done():
		return false
	case e.tasks <- task:
		return true
	}
}
