package tracerr

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// TaskFunc does the actual work of a task and reports completion via $done,
// possibly long after returning. Every task must invoke $done eventually,
// extra invocations are ignored.
type TaskFunc func(ctx context.Context, done Callback)

type RunQueue interface {
	// Enqueue enqueues the task $f for being run ASAP. $f is counted as $weight item(s) until its done fires.
	Enqueue(weight int64, f TaskFunc)
	// Wait waits for all Enqueue()d tasks to report completion.
	Wait()
	// Err returns the first error any task reported via its done, if any.
	Err() error
}

// ElasticQueue runs enqueued tasks immediately until context cancellation.
type ElasticQueue struct {
	ctx      context.Context
	wg       sync.WaitGroup
	mtx      sync.Mutex
	firstErr error
}

// NewElasticQueue creates a new ElasticQueue. $ctx is forwarded to Enqueue()d tasks.
func NewElasticQueue(ctx context.Context) *ElasticQueue {
	return &ElasticQueue{ctx: ctx}
}

var _ RunQueue = (*ElasticQueue)(nil)

func (eq *ElasticQueue) Enqueue(_ int64, f TaskFunc) {
	eq.enqueue(f, nil)
}

func (eq *ElasticQueue) Wait() {
	eq.wg.Wait()
}

func (eq *ElasticQueue) Err() error {
	eq.mtx.Lock()
	defer eq.mtx.Unlock()

	return eq.firstErr
}

func (eq *ElasticQueue) enqueue(f TaskFunc, cleanup func()) {
	select {
	case <-eq.ctx.Done():
		return
	default:
	}

	eq.wg.Add(1)

	go f(eq.ctx, eq.completer(cleanup))
}

// completer builds the done callback for one task: only its first invocation
// counts, records the task's error and runs $cleanup before releasing Wait().
func (eq *ElasticQueue) completer(cleanup func()) Callback {
	var once sync.Once

	return func(err error, _ ...interface{}) {
		once.Do(func() {
			if err != nil {
				eq.mtx.Lock()
				if eq.firstErr == nil {
					eq.firstErr = err
				}
				eq.mtx.Unlock()
			}

			if cleanup != nil {
				cleanup()
			}

			eq.wg.Done()
		})
	}
}

// LimitedQueue runs enqueued tasks with limited concurrency in FIFO order until context cancellation.
// A task occupies its weight until its done fires, not just until its TaskFunc returns.
type LimitedQueue struct {
	eq    ElasticQueue
	items []queueItem
	mtx   sync.Mutex
	sema  *semaphore.Weighted
}

// NewLimitedQueue creates a new LimitedQueue which runs $concurrency item(s) worth of tasks at a time.
// $ctx is forwarded to Enqueue()d tasks.
func NewLimitedQueue(ctx context.Context, concurrency int64) *LimitedQueue {
	return &LimitedQueue{
		eq:   ElasticQueue{ctx: ctx},
		sema: semaphore.NewWeighted(concurrency),
	}
}

var _ RunQueue = (*LimitedQueue)(nil)

func (lq *LimitedQueue) Enqueue(weight int64, f TaskFunc) {
	select {
	case <-lq.eq.ctx.Done():
		return
	default:
	}

	lq.mtx.Lock()

	if len(lq.items) < 1 && lq.sema.TryAcquire(weight) {
		lq.mtx.Unlock()
		lq.forward(weight, f)
	} else {
		lq.items = append(lq.items, queueItem{weight, f})
		lq.mtx.Unlock()
	}
}

func (lq *LimitedQueue) Wait() {
	lq.eq.Wait()
}

func (lq *LimitedQueue) Err() error {
	return lq.eq.Err()
}

func (lq *LimitedQueue) forward(weight int64, f TaskFunc) {
	lq.eq.enqueue(f, func() {
		lq.sema.Release(weight)
		lq.nextOnes()
	})
}

func (lq *LimitedQueue) nextOnes() {
	select {
	case <-lq.eq.ctx.Done():
		return
	default:
	}

	lq.mtx.Lock()

	for len(lq.items) > 0 {
		if next := lq.items[0]; lq.sema.TryAcquire(next.weight) {
			lq.forward(next.weight, next.f)
			lq.items = lq.items[1:]
		} else {
			break
		}
	}

	lq.mtx.Unlock()
}

type queueItem struct {
	weight int64
	f      TaskFunc
}
