package fetch

import (
	"context"
)

// Status is the three state outcome of a fetch. The streaming core depends
// only on this contract, not on the transport behind it.
type Status int

const (
	StatusReady Status = iota
	StatusError
	StatusAbort
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	case StatusAbort:
		return "abort"
	}
	return "unknown"
}

// ResponseType tells the fetcher how the payload will be interpreted
type ResponseType string

const (
	ResponseTypeArrayBuffer ResponseType = "arraybuffer"
	ResponseTypeJSON        ResponseType = "json"
)

// Result of a resolved fetch. Data is only meaningful with StatusReady.
type Result struct {
	Status Status
	Data   []byte
}

// Fetcher retrieves a resource. Fetch blocks until the resource is
// resolved, failed or the context is cancelled; callers run it out of band
// and deliver the Result back onto the update timeline themselves.
type Fetcher interface {
	Fetch(ctx context.Context, url string, responseType ResponseType) Result
}
