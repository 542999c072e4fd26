package connectivity

import "errors"

var (
	// ErrNilProbe indicates a nil probe was supplied.
	ErrNilProbe = errors.New("connectivity: nil probe")

	// ErrUnreachable indicates a probe determined the remote is down.
	ErrUnreachable = errors.New("connectivity: remote unreachable")
)
