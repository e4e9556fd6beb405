package unifi

import "fmt"

// RemoteError represents a failed call to the controller: an unreachable
// host, or a non-success HTTP status. Body carries the controller's response
// text when one was read, for operator diagnosis.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unifi %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("unifi %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func newRemoteStatusError(op string, status int, body string) *RemoteError {
	return &RemoteError{Op: op, StatusCode: status, Body: body}
}

func newRemoteTransportError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Err: err}
}

// ReservationError means no network_id could be resolved for a reservation.
// It is a configuration problem, raised before any write is attempted.
type ReservationError struct {
	MAC string
}

func (e *ReservationError) Error() string {
	return fmt.Sprintf("network_id is required to create/update %s: set UNIFI_NETWORK_ID or ensure the client already has network_id", e.MAC)
}

func NewReservationError(mac string) *ReservationError {
	return &ReservationError{MAC: mac}
}
