package lifecycle

import (
	"time"

	apperrors "classbook/pkg/errors"
	"classbook/pkg/model"
)

// The booking state machine. Confirmed is the initial state; attended is
// terminal. The generic update path enforces only the terminal rule; the
// stricter guards belong to the dedicated cancel/attend operations.

// GuardUpdate guards the generic update path. An attended booking is
// immutable, whatever fields the patch touches.
func GuardUpdate(current string) error {
	if current == model.StatusAttended {
		return apperrors.Validation("Cannot change status of attended booking", nil)
	}
	return nil
}

// GuardDelete guards deletion. An attended booking stays on record.
func GuardDelete(current string) error {
	if current == model.StatusAttended {
		return apperrors.Validation("Cannot delete an attended booking", nil)
	}
	return nil
}

// GuardCancel guards the dedicated cancel operation.
func GuardCancel(current string) error {
	switch current {
	case model.StatusCancelled:
		return apperrors.Validation("Booking is already cancelled", nil)
	case model.StatusAttended:
		return apperrors.Validation("Cannot change status of attended booking", nil)
	}
	return nil
}

// GuardAttend guards the dedicated attend operation.
func GuardAttend(current string) error {
	switch current {
	case model.StatusAttended:
		return apperrors.Validation("Booking is already attended", nil)
	case model.StatusCancelled:
		return apperrors.Validation("Cannot mark a cancelled booking as attended", nil)
	case model.StatusNoShow:
		return apperrors.Validation("Cannot mark a no-show booking as attended", nil)
	}
	return nil
}

// ApplyCancel stamps the audit fields for entering cancelled.
func ApplyCancel(b *model.Booking, reason, cancelledBy string, now time.Time) {
	b.Status = model.StatusCancelled
	b.CancelledAt = &now
	b.CancelledBy = cancelledBy
	b.CancellationReason = reason
}

// ApplyAttend stamps the attendance timestamp for entering attended.
func ApplyAttend(b *model.Booking, now time.Time) {
	b.Status = model.StatusAttended
	b.AttendedAt = &now
}
