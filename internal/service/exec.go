package service

import (
	"context"
)

// chanWaker wakes a parked driver. Extra wakeups collapse into one.
type chanWaker chan struct{}

func newChanWaker() chanWaker {
	return make(chanWaker, 1)
}

func (c chanWaker) Wake() {
	select {
	case c <- struct{}{}:
	default:
	}
}

// Block drives f to completion on the calling goroutine, parking between
// polls until f wakes it. If ctx ends first, f is cancelled and ctx.Err() is
// returned.
func Block(ctx context.Context, f Future) (*Response, error) {
	wake := newChanWaker()
	for {
		if res, ok := f.Poll(wake); ok {
			return res.Response, res.Err
		}

		select {
		case <-wake:
		case <-ctx.Done():
			f.Cancel()
			return nil, ctx.Err()
		}
	}
}

// AwaitReady polls h until it can accept a call
func AwaitReady(ctx context.Context, h Handler) error {
	wake := newChanWaker()
	for {
		ready, err := h.PollReady(wake)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Serve waits for h to become ready, calls it with req and drives the
// resulting future to completion.
func Serve(ctx context.Context, h Handler, req *Request) (*Response, error) {
	if err := AwaitReady(ctx, h); err != nil {
		return nil, err
	}
	return Block(ctx, h.Call(req))
}
