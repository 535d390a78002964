package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "classbook/internal/bookings/errors"
	"classbook/internal/bookings/events"
	"classbook/internal/bookings/lifecycle"
	"classbook/internal/bookings/repository"
	"classbook/internal/bookings/validator"
	classeserrors "classbook/internal/classes/errors"
	classrepo "classbook/internal/classes/repository"
	"classbook/internal/members/resolver"
	"classbook/pkg/config"
	apperrors "classbook/pkg/errors"
	"classbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CancelledBySystem is recorded on cancellations coming through the API.
const CancelledBySystem = "system"

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.BookingDetails, error)
	GetByID(ctx context.Context, id string) (*model.BookingDetails, error)
	GetAll(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetails, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.BookingDetails, error)
	Delete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string, reason string) (*model.BookingDetails, error)
	MarkAttended(ctx context.Context, id string) (*model.BookingDetails, error)
	Search(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetails, int64, error)
	Statistics(ctx context.Context, opts model.StatisticsOptions) (*model.BookingStatistics, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.ClassLockRepository
	classRepo classrepo.ClassRepository
	members   resolver.MemberResolver
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.ClassLockRepository,
	classRepo classrepo.ClassRepository,
	members resolver.MemberResolver,
	bookingValidator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		classRepo: classRepo,
		members:   members,
		validator: bookingValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.BookingDetails, error) {
	date, err := s.validator.ValidateCreate(req)
	if err != nil {
		s.cfg.Log.Warn("Booking creation validation failed", "error", err)
		return nil, asValidationError(err)
	}

	class, err := s.getClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateClass(class); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateCreateDate(class, date, time.Now()); err != nil {
		return nil, err
	}

	member, err := s.members.Resolve(ctx, req.MemberName, req.MemberEmail, req.MemberPhone)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve member", "member_name", req.MemberName, "error", err)
		return nil, err
	}

	booking := &model.Booking{
		ClassID:           class.ID,
		MemberID:          member.ID,
		MemberName:        member.Name,
		ParticipationDate: date,
		Status:            model.StatusConfirmed,
	}

	if err := s.reserveSeat(ctx, class, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"class_id", class.ID, "member_id", member.ID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"class_id", booking.ClassID,
		"member_id", booking.MemberID,
		"participation_date", booking.ParticipationDate,
	)
	s.publisher.BookingCreated(ctx, booking)

	return &model.BookingDetails{
		Booking: *booking,
		Member:  member.Summary(),
		Class:   class.Summary(),
	}, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingDetails, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, booking), nil
}

func (s *bookingService) GetAll(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetails, int64, error) {
	return s.list(ctx, filter)
}

// Search requires a member name or a date bound. Class and status alone are
// plain listing filters, not search criteria, and may only narrow a search.
func (s *bookingService) Search(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetails, int64, error) {
	if filter.MemberName == "" && filter.StartDate == nil && filter.EndDate == nil {
		return nil, 0, apperrors.InvalidInput("At least one search criterion is required")
	}
	return s.list(ctx, filter)
}

func (s *bookingService) list(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetails, int64, error) {
	if filter.ClassID != "" {
		if _, err := primitive.ObjectIDFromHex(filter.ClassID); err != nil {
			return nil, 0, apperrors.InvalidInput("Invalid class ID format")
		}
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	details := make([]*model.BookingDetails, 0, len(bookings))
	for _, booking := range bookings {
		details = append(details, s.enrich(ctx, booking))
	}
	return details, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.BookingDetails, error) {
	existing, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.GuardUpdate(existing.Status); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, asValidationError(err)
	}
	if updates.CancellationReason != nil {
		target := existing.Status
		if updates.Status != nil {
			target = *updates.Status
		}
		if target != model.StatusCancelled {
			return nil, apperrors.Validation(
				"Cancellation reason can only be set when cancelling a booking", nil)
		}
	}
	merged := *existing
	if err := s.applyMemberUpdates(ctx, &merged, updates); err != nil {
		return nil, err
	}

	classChanged := updates.ClassID != nil && *updates.ClassID != existing.ClassID
	if classChanged {
		merged.ClassID = *updates.ClassID
	}

	class, err := s.getClass(ctx, merged.ClassID)
	if err != nil {
		return nil, err
	}

	if updates.ParticipationDate != nil {
		date, err := s.validator.ParseDate(*updates.ParticipationDate)
		if err != nil {
			return nil, err
		}
		merged.ParticipationDate = date
	}
	if updates.ParticipationDate != nil || classChanged {
		if err := s.validator.ValidateUpdateDate(class, merged.ParticipationDate, time.Now()); err != nil {
			return nil, err
		}
	}

	if updates.Status != nil && *updates.Status != existing.Status {
		now := time.Now().UTC().Truncate(time.Millisecond)
		switch *updates.Status {
		case model.StatusCancelled:
			reason := ""
			if updates.CancellationReason != nil {
				reason = *updates.CancellationReason
			}
			lifecycle.ApplyCancel(&merged, reason, CancelledBySystem, now)
		case model.StatusAttended:
			lifecycle.ApplyAttend(&merged, now)
		default:
			merged.Status = *updates.Status
		}
	}

	// Amending the reason on a booking that is already cancelled keeps
	// the original cancelledAt and cancelledBy stamps.
	if updates.CancellationReason != nil && existing.Status == model.StatusCancelled {
		merged.CancellationReason = *updates.CancellationReason
	}

	// Moving a confirmed booking into a different class takes a seat
	// there, so it goes through the same capacity gate as creation.
	needsSeat := classChanged && merged.Status == model.StatusConfirmed
	if needsSeat {
		err = s.moveSeat(ctx, class, id, &merged)
	} else {
		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.repo.Update(sessCtx, id, &merged); err != nil {
				return s.mapRepoError(err, id, "Failed to update booking")
			}
			return nil
		})
	}
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id)

	if updates.Status != nil && *updates.Status != existing.Status {
		switch merged.Status {
		case model.StatusCancelled:
			s.publisher.BookingCancelled(ctx, &merged)
		case model.StatusAttended:
			s.publisher.BookingAttended(ctx, &merged)
		}
	}

	return s.enrich(ctx, &merged), nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	existing, err := s.findBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.GuardDelete(existing.Status); err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return s.mapRepoError(err, id, "Failed to delete booking")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

func (s *bookingService) Cancel(ctx context.Context, id string, reason string) (*model.BookingDetails, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.GuardCancel(booking.Status); err != nil {
		return nil, err
	}

	lifecycle.ApplyCancel(booking, reason, CancelledBySystem, time.Now().UTC().Truncate(time.Millisecond))

	if err := s.repo.Update(ctx, id, booking); err != nil {
		mapped := s.mapRepoError(err, id, "Failed to cancel booking")
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", mapped)
		return nil, mapped
	}

	s.cfg.Log.Info("Booking cancelled", "id", id, "reason", reason)
	s.publisher.BookingCancelled(ctx, booking)
	return s.enrich(ctx, booking), nil
}

func (s *bookingService) MarkAttended(ctx context.Context, id string) (*model.BookingDetails, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.GuardAttend(booking.Status); err != nil {
		return nil, err
	}

	lifecycle.ApplyAttend(booking, time.Now().UTC().Truncate(time.Millisecond))

	if err := s.repo.Update(ctx, id, booking); err != nil {
		mapped := s.mapRepoError(err, id, "Failed to mark booking attended")
		s.cfg.Log.Error("Failed to mark booking attended", "id", id, "error", mapped)
		return nil, mapped
	}

	s.cfg.Log.Info("Booking marked attended", "id", id)
	s.publisher.BookingAttended(ctx, booking)
	return s.enrich(ctx, booking), nil
}

func (s *bookingService) Statistics(ctx context.Context, opts model.StatisticsOptions) (*model.BookingStatistics, error) {
	stats, err := s.repo.Statistics(ctx, opts)
	if err != nil {
		s.cfg.Log.Error("Failed to compute booking statistics", "error", err)
		return nil, apperrors.Internal("Failed to compute booking statistics", err)
	}
	return stats, nil
}

// --- Helpers ---

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) mapRepoError(err error, id string, internalMsg string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal(internalMsg, err)
}

func (s *bookingService) getClass(ctx context.Context, id string) (*model.Class, error) {
	class, err := s.classRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, classeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class", id)
		}
		if errors.Is(err, classeserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid class ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve class", err)
	}
	return class, nil
}

// applyMemberUpdates re-resolves the member identity when any of the
// member fields change. Identity is keyed by email, so a name-only change
// against a placeholder identity can land on a different member record.
func (s *bookingService) applyMemberUpdates(ctx context.Context, merged *model.Booking, updates *model.BookingUpdate) error {
	if updates.MemberName == nil && updates.MemberEmail == nil && updates.MemberPhone == nil {
		return nil
	}

	name := merged.MemberName
	if updates.MemberName != nil {
		name = *updates.MemberName
	}
	email := ""
	if updates.MemberEmail != nil {
		email = *updates.MemberEmail
	}
	phone := ""
	if updates.MemberPhone != nil {
		phone = *updates.MemberPhone
	}

	member, err := s.members.Resolve(ctx, name, email, phone)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve member for update", "member_name", name, "error", err)
		return err
	}

	merged.MemberID = member.ID
	merged.MemberName = member.Name
	return nil
}

// enrich attaches member and class summaries to a booking. Lookups are
// best effort: a failure leaves the summary nil rather than failing the
// read.
func (s *bookingService) enrich(ctx context.Context, booking *model.Booking) *model.BookingDetails {
	details := &model.BookingDetails{Booking: *booking}

	if member, err := s.members.GetByID(ctx, booking.MemberID); err == nil {
		details.Member = member.Summary()
	} else {
		s.cfg.Log.Debug("Member enrichment skipped",
			"booking_id", booking.ID, "member_id", booking.MemberID, "error", err)
	}

	if class, err := s.classRepo.FindByID(ctx, booking.ClassID); err == nil {
		details.Class = class.Summary()
	} else {
		s.cfg.Log.Debug("Class enrichment skipped",
			"booking_id", booking.ID, "class_id", booking.ClassID, "error", err)
	}

	return details
}

func asValidationError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
}
