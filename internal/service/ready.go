package service

// readyFuture resolves on its first poll
type readyFuture struct {
	result Result
}

// Ready returns a future already holding its result
func Ready(result Result) Future {
	return &readyFuture{result: result}
}

// ReadyResponse returns a future that succeeds with resp
func ReadyResponse(resp *Response) Future {
	return Ready(Result{Response: resp})
}

// ReadyError returns a future that fails with err
func ReadyError(err error) Future {
	return Ready(Result{Err: err})
}

func (f *readyFuture) Poll(Waker) (Result, bool) {
	return f.result, true
}

func (f *readyFuture) Cancel() {}
