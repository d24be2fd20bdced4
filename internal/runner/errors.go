package runner

// modelNotFoundError signals a model id missing from the registry for 404 mapping.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound constructs a modelNotFoundError for the given id.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// requestCancelledError signals a request discarded before execution.
type requestCancelledError struct{ id string }

func (e requestCancelledError) Error() string { return "request cancelled: " + e.id }

// ErrRequestCancelled constructs a requestCancelledError for the given id.
func ErrRequestCancelled(id string) error { return requestCancelledError{id: id} }

// IsRequestCancelled reports whether the error indicates a pre-execution cancellation.
func IsRequestCancelled(err error) bool {
	_, ok := err.(requestCancelledError)
	return ok
}

// dependencyUnavailableError signals a missing native runtime (e.g. llama.cpp)
// so the HTTP layer can return 503 Service Unavailable instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	_, ok := err.(dependencyUnavailableError)
	return ok
}

// shuttingDownError signals that the scheduler has been closed.
type shuttingDownError struct{}

func (shuttingDownError) Error() string { return "server is shutting down" }

// ErrShuttingDown constructs a shuttingDownError.
func ErrShuttingDown() error { return shuttingDownError{} }

// IsShuttingDown reports whether err indicates the scheduler is closed.
func IsShuttingDown(err error) bool {
	_, ok := err.(shuttingDownError)
	return ok
}
