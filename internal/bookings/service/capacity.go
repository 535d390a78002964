package service

import (
	"context"
	"time"

	apperrors "classbook/pkg/errors"
	"classbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// lockRetryInterval paces the polling loop while another request holds a
// class lock.
const lockRetryInterval = 25 * time.Millisecond

// reserveSeat takes a seat in the class for a new booking. The advisory
// lock serializes writers per class, and the count-and-insert runs in one
// transaction, so two concurrent requests can never both take the last
// seat.
func (s *bookingService) reserveSeat(ctx context.Context, class *model.Class, booking *model.Booking) error {
	if err := s.acquireClassLock(ctx, class.ID); err != nil {
		return err
	}
	defer s.releaseClassLock(ctx, class.ID)

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkCapacity(sessCtx, class, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
}

// moveSeat is reserveSeat for updates: the booking being moved is excluded
// from the count, and the row is updated instead of inserted.
func (s *bookingService) moveSeat(ctx context.Context, class *model.Class, id string, booking *model.Booking) error {
	if err := s.acquireClassLock(ctx, class.ID); err != nil {
		return err
	}
	defer s.releaseClassLock(ctx, class.ID)

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkCapacity(sessCtx, class, id); err != nil {
			return err
		}
		if err := s.repo.Update(sessCtx, id, booking); err != nil {
			return s.mapRepoError(err, id, "Failed to update booking")
		}
		return nil
	})
}

func (s *bookingService) checkCapacity(ctx context.Context, class *model.Class, excludeID string) error {
	count, err := s.repo.CountConfirmed(ctx, class.ID, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to count confirmed bookings", err)
	}
	if count >= int64(class.MaxCapacity) {
		return apperrors.ClassFull(class.ID)
	}
	return nil
}

// acquireClassLock blocks until the per-class lock is taken, the wait
// budget runs out, or the context is done. Losing a round of the race is
// not a conflict: the loser waits its turn and then gets a real answer
// from the capacity check.
func (s *bookingService) acquireClassLock(ctx context.Context, classID string) error {
	deadline := time.Now().Add(s.cfg.CapacityLockWait)

	for {
		err := s.lockRepo.Create(ctx, &model.ClassLock{ID: classID})
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return apperrors.Internal("Failed to acquire class lock", err)
		}
		if time.Now().After(deadline) {
			return apperrors.Conflict("Class is busy with another booking request. Please try again.")
		}

		select {
		case <-ctx.Done():
			return apperrors.Internal("Cancelled while waiting for class lock", ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

func (s *bookingService) releaseClassLock(ctx context.Context, classID string) {
	if err := s.lockRepo.Delete(ctx, classID); err != nil {
		s.cfg.Log.Warn("Failed to release class lock", "class_id", classID, "error", err)
	}
}
