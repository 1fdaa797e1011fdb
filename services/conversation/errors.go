// File: services/conversation/errors.go
package conversation

import "fmt"

// SessionNotFoundError reports an unknown or expired session id.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("conversation session %q not found", e.SessionID)
}

// BusyError reports a user action while a previous one is still in flight.
type BusyError struct {
	SessionID string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("session %s is processing a previous request", e.SessionID)
}
