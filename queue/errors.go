package queue

import "errors"

var (
	// ErrNilStore indicates a nil storage adapter was supplied.
	ErrNilStore = errors.New("queue: nil store")

	// ErrEmptyType indicates an operation was enqueued without a type.
	ErrEmptyType = errors.New("queue: empty operation type")

	// ErrNotFound indicates the operation does not exist in the queue.
	ErrNotFound = errors.New("queue: operation not found")

	// ErrNotFailed indicates a retry was requested for an operation that is
	// not in the failed state.
	ErrNotFailed = errors.New("queue: operation is not failed")

	// ErrNilHandler indicates a nil handler was registered.
	ErrNilHandler = errors.New("queue: nil handler")
)
