package runner

import (
	"context"
	"sync"

	"github.com/Protocol-Lattice/report-card-validator/src/session"
)

// Future resolves once with the terminal event of a run.
type Future struct {
	once  sync.Once
	done  chan struct{}
	final *session.Event
	err   error
}

// Final consumes events in the background. The future resolves on the first
// terminal event (or error event) and the rest of the stream is drained so the
// producer can finish. If the stream closes without one, the future resolves
// with a nil event.
func Final(events <-chan session.Event) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer f.resolve(nil, nil)
		for ev := range events {
			switch {
			case ev.Err != nil:
				f.resolve(nil, ev.Err)
			case ev.IsFinalResponse():
				f.resolve(&ev, nil)
			}
		}
	}()
	return f
}

func (f *Future) resolve(ev *session.Event, err error) {
	f.once.Do(func() {
		f.final = ev
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has resolved.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the future resolves or ctx ends.
func (f *Future) Await(ctx context.Context) (*session.Event, error) {
	select {
	case <-f.done:
		return f.final, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit runs msg and returns a future for its terminal event.
func (r *Runner) Submit(ctx context.Context, userID, sessionID string, msg session.Content) (*Future, error) {
	events, err := r.Run(ctx, userID, sessionID, msg)
	if err != nil {
		return nil, err
	}
	return Final(events), nil
}
