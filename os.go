package tracerr

import (
	"context"
	"os"
	"os/signal"
)

// NotifySignals derives $child from $ctx and cancels it on one of $signals.
// $callback is invoked exactly once: with an error naming the received signal,
// decorated with NotifySignals' call site (captured at registration, not at delivery),
// or with nil on $ctx cancellation.
// $signals will be handled until $ctx cancellation to prevent firing of default handlers.
// Cancel $ctx not to leak goroutines!
//
//go:noinline
func NotifySignals(ctx context.Context, callback Callback, signals ...os.Signal) (child context.Context) {
	myctx, cancel := context.WithCancel(ctx)
	in := make(chan os.Signal, 1)
	stack := GetStack(1)

	signal.Notify(in, signals...)

	go func() {
		select {
		case <-ctx.Done():
			signal.Stop(in)
			callback(nil)
		case s := <-in:
			callback((&TracedError{message: "received " + s.String()}).trace(stack))
			cancel()

			<-ctx.Done()
			signal.Stop(in)
		}
	}()

	return myctx
}
