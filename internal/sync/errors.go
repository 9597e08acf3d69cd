package sync

import (
	"fmt"

	"github.com/example/mishnahbot/pkg/models"
)

// TransportError marks a transient transport failure. Uploads that fail
// this way are retried with backoff before being surfaced.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedMutationError marks a mutation the backing store will never
// accept. It is surfaced to the caller once, without retrying.
type RejectedMutationError struct {
	Key    models.StudyLogKey
	Reason string
}

func (e *RejectedMutationError) Error() string {
	return fmt.Sprintf("mutation for %s/%s/%s rejected: %s",
		e.Key.UserID, e.Key.TrackID, e.Key.StudyDate, e.Reason)
}

// ConflictUnresolvedError reports two mutations to the same row that carry
// the same timestamp and the same device id yet disagree in content. The
// tiebreak has nothing left to order them by.
type ConflictUnresolvedError struct {
	Key      models.StudyLogKey
	DeviceID string
}

func (e *ConflictUnresolvedError) Error() string {
	return fmt.Sprintf("conflict for %s/%s/%s unresolved: equal timestamps from device %s",
		e.Key.UserID, e.Key.TrackID, e.Key.StudyDate, e.DeviceID)
}
