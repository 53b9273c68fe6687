// Package backend starts scheduled workloads and reports how they finished.
package backend

import (
	"context"
)

// Outcome classifies the result of waiting on a started workload.
type Outcome int

const (
	// Succeeded means the workload exited cleanly.
	Succeeded Outcome = iota
	// FailedMessage means the backend reported a failure with a message.
	FailedMessage
	// FailedStatus means the backend reported only a non-zero status code.
	FailedStatus
	// Errored means the wait itself failed (connectivity, bad response).
	Errored
	// NoResponse means the backend ended the wait without any result.
	NoResponse
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case FailedMessage:
		return "failed_message"
	case FailedStatus:
		return "failed_status"
	case Errored:
		return "errored"
	case NoResponse:
		return "no_response"
	default:
		return "unknown"
	}
}

// Completion is what Wait reports. Message is set for FailedMessage,
// StatusCode for FailedStatus and Err for Errored.
type Completion struct {
	Outcome    Outcome
	Message    string
	StatusCode int64
	Err        error
}

// Backend is shared by every job loop and must be safe for concurrent use.
type Backend interface {
	Ping(ctx context.Context) error
	Start(ctx context.Context, name string) error
	Wait(ctx context.Context, name string) Completion
}
