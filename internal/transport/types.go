// Package transport defines the publishing-channel contract and the
// failure taxonomy the pipeline branches on.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Receipt identifies a successfully published announcement.
type Receipt struct {
	ID string
	At time.Time
}

// Publisher posts one announcement to the external channel.
type Publisher interface {
	// Publish returns a receipt, or one of the taxonomy errors below.
	Publish(ctx context.Context, text string) (Receipt, error)

	// Connected reports the channel session state for status display.
	Connected() bool
}

var (
	// ErrRateLimited: the local publish budget is exhausted; no
	// external call was attempted. The item stays eligible.
	ErrRateLimited = errors.New("publish rate limited")

	// ErrContentRejected: the channel refused the text itself.
	// Retrying the same text is pointless; the item gets poisoned.
	ErrContentRejected = errors.New("content rejected by channel")
)

// ConnectivityError wraps transient reachability/auth failures of an
// external collaborator. Retry next tick, no state change.
type ConnectivityError struct {
	Collaborator string
	Err          error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Collaborator, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
