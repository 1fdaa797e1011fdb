// File: services/handoff/errors.go
package handoff

import "fmt"

// ClaimConflictError means another agent holds the request. The loser must
// drop any local reference to the record.
type ClaimConflictError struct {
	RequestID string
	HeldBy    string
}

func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("handoff %s is already being handled by another agent", e.RequestID)
}

// TerminalRequestError means the request already reached resolved or
// escalated; no further mutation is allowed.
type TerminalRequestError struct {
	RequestID string
	Status    string
}

func (e *TerminalRequestError) Error() string {
	return fmt.Sprintf("handoff %s is already %s", e.RequestID, e.Status)
}

// NotOwnerError means an agent attempted an owner-only operation on a
// request held by someone else.
type NotOwnerError struct {
	RequestID string
	AgentID   string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("agent %s does not own handoff %s", e.AgentID, e.RequestID)
}
