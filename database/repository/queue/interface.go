// Package queue is the shared hand-off queue store. Both the member widget
// and the agent console read and write the same single collection; no
// server process arbitrates it. Save is whole-collection last-writer-wins;
// CompareAndSwap is the serialized path used for ownership transitions.
package queue

import (
	"context"
	"errors"

	"careai/models"
)

var (
	// ErrNotFound means no request with the given id is in the collection.
	ErrNotFound = errors.New("handoff request not found")
	// ErrConflict means a CompareAndSwap lost to a concurrent writer or
	// found the record in an unexpected status.
	ErrConflict = errors.New("handoff request changed concurrently")
)

// Mutation edits a request in place during a CompareAndSwap. Returning an
// error aborts the swap without writing.
type Mutation func(*models.HandoffRequest) error

// Repository is the hand-off queue store contract.
type Repository interface {
	// Load returns the full collection, oldest first.
	Load(ctx context.Context) ([]models.HandoffRequest, error)

	// Save overwrites the full collection. Last writer wins at collection
	// granularity; callers must tolerate lost updates from contention.
	Save(ctx context.Context, reqs []models.HandoffRequest) error

	// Append adds one request to the end of the collection.
	Append(ctx context.Context, req models.HandoffRequest) error

	// Get returns one request by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.HandoffRequest, error)

	// CompareAndSwap applies mutate to the request with the given id only
	// if its status equals expected at write time. Returns the mutated
	// record, ErrNotFound, ErrConflict, or the mutation's own error.
	CompareAndSwap(ctx context.Context, id string, expected models.HandoffStatus, mutate Mutation) (*models.HandoffRequest, error)
}
