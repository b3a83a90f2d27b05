package wire

import (
	"context"
)

// Emit returns an already-completed stream carrying the given events in order.
// Used by short-circuiting interceptors and test transports.
func Emit(events ...Event) <-chan Event {
	ch := make(chan Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

// Fail returns a completed stream whose only event is a failure for err
func Fail(err error) <-chan Event {
	return Emit(&Failure{Err: err})
}

// Pipe forwards events from in onto a new stream, applying fn to each one.
// A nil fn forwards events unchanged; fn returning nil drops the event.
// The pump stops when in closes or ctx is cancelled, then closes its output,
// so cancellation propagates to consumers of the returned stream.
func Pipe(ctx context.Context, in <-chan Event, fn func(Event) Event) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				if fn != nil {
					ev = fn(ev)
					if ev == nil {
						continue
					}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Collect drains a stream and returns the observed events together with the
// terminal response. A terminal failure is returned as its error; a stream
// that ends without a terminal event yields ErrTruncatedStream; ctx
// cancellation yields ctx.Err().
func Collect(ctx context.Context, stream <-chan Event) ([]Event, *Response, error) {
	var events []Event
	for {
		select {
		case <-ctx.Done():
			return events, nil, ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				return events, nil, ErrTruncatedStream
			}
			events = append(events, ev)
			switch t := ev.(type) {
			case *Response:
				return events, t, nil
			case *Failure:
				return events, nil, t.Err
			}
		}
	}
}
