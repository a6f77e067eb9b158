// Package request provides pipeline middleware for request handling.
//
// It includes middleware for:
//   - Request ID generation and propagation
//   - Per-call timeout enforcement
//
// Each middleware wraps a service.Handler and returns a service.Handler, so
// they chain with any other layer:
//
//	handler := request.WithRequestID(
//		request.WithTimeout(hello.Hello{}, 5*time.Second),
//	)
package request
