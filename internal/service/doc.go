// Package service defines the handler contract every pipeline layer implements.
//
// A Handler accepts a Request and immediately returns a Future describing the
// in-flight call. Nothing in a Handler or Future blocks: the caller drives the
// Future by polling it, and a pending Future arranges to be polled again by
// calling the Waker it was handed. Middleware wrap an inner Handler and return
// their own Future that embeds the inner one, so layers nest without knowing
// each other's concrete types:
//
//	h := logging.New(request.WithTimeout(hello.Hello{}, time.Second), logger)
//	resp, err := service.Serve(ctx, h, req)
//
// Each middleware Future is a small explicit state machine.
//
// Futures resolve exactly once. Polling a resolved Future returns the cached
// Result again without repeating side effects. Cancel releases a Future that
// will never be driven again, including any timers it owns.
package service
