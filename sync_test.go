package tracerr

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestElasticQueue(t *testing.T) {
	const concurrency = 16
	const unit = time.Second / 4
	ctx, cancel := context.WithCancel(context.Background())
	queue := NewElasticQueue(ctx)

	assertTakesTime(t, unit, time.Second/10, func() {
		for i := 0; i < concurrency; i++ {
			queue.Enqueue(1, dumbSleeper(unit))
		}

		queue.Wait()
	})

	assertTakesTime(t, unit/2, time.Second/10, func() {
		for i := 0; i < concurrency; i++ {
			queue.Enqueue(1, smartSleeper(unit))
		}

		time.Sleep(unit / 2)
		cancel()
		queue.Wait()
	})

	assertTakesTime(t, 0, time.Second/10, func() {
		for i := 0; i < concurrency; i++ {
			queue.Enqueue(1, dumbSleeper(unit))
		}

		queue.Wait()
	})
}

func TestLimitedQueue(t *testing.T) {
	const items = 16
	const unit = time.Second / 4
	ctx, cancel := context.WithCancel(context.Background())
	queue := NewLimitedQueue(ctx, 4)

	assertTakesTime(t, 8*unit, time.Second/10, func() {
		for i := 0; i < items; i++ {
			queue.Enqueue(2, dumbSleeper(unit))
		}

		queue.Wait()
	})

	assertTakesTime(t, 4*unit, time.Second/10, func() {
		for i := 0; i < items; i++ {
			queue.Enqueue(2, smartSleeper(unit))
		}

		time.Sleep(4 * unit)
		cancel()
		queue.Wait()
	})

	assertTakesTime(t, 0, time.Second/10, func() {
		for i := 0; i < items; i++ {
			queue.Enqueue(2, dumbSleeper(unit))
		}

		queue.Wait()
	})
}

func TestQueueWaitsForDone(t *testing.T) {
	const tasks = 4
	const unit = time.Second / 4
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewLimitedQueue(ctx, 1)

	// each TaskFunc returns immediately, the queue must still serialize on done
	assertTakesTime(t, tasks*unit, time.Second/10, func() {
		for i := 0; i < tasks; i++ {
			queue.Enqueue(1, func(_ context.Context, done Callback) {
				time.AfterFunc(unit, func() { done(nil) })
			})
		}

		queue.Wait()
	})
}

func TestQueueErr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewElasticQueue(ctx)

	queue.Enqueue(1, func(_ context.Context, done Callback) {
		done(nil)
	})
	queue.Wait()

	if err := queue.Err(); err != nil {
		t.Errorf("Err(): got %#v, expected nil", err)
	}

	queue.Enqueue(1, func(_ context.Context, done Callback) {
		done(Err(io.EOF))
	})
	queue.Wait()

	if err := queue.Err(); err == nil || err.Error() != io.EOF.Error() {
		t.Errorf("Err(): got %#v, expected io.EOF", err)
	}
}

func TestQueueDoneIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewElasticQueue(ctx)

	queue.Enqueue(1, func(_ context.Context, done Callback) {
		done(nil)
		done(io.EOF)
		done(nil)
	})
	queue.Wait()

	if err := queue.Err(); err != nil {
		t.Errorf("Err() after repeated done: got %#v, expected nil", err)
	}
}

func assertTakesTime(t *testing.T, dur, latency time.Duration, f func()) {
	t.Helper()

	start := time.Now()
	f()

	if actual := time.Since(start); actual < dur || actual > dur+latency {
		t.Errorf("function took %s, expected [%s, %s]", actual, dur, dur+latency)
	}
}

func dumbSleeper(dur time.Duration) TaskFunc {
	return func(_ context.Context, done Callback) {
		time.Sleep(dur)
		done(nil)
	}
}

func smartSleeper(dur time.Duration) TaskFunc {
	return func(ctx context.Context, done Callback) {
		timer := time.NewTimer(dur)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}

		done(nil)
	}
}
