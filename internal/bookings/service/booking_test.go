package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	bookingserrors "classbook/internal/bookings/errors"
	"classbook/internal/bookings/events"
	"classbook/internal/bookings/repository"
	"classbook/internal/bookings/validator"
	classeserrors "classbook/internal/classes/errors"
	"classbook/pkg/config"
	mongotx "classbook/pkg/db/mongo"
	apperrors "classbook/pkg/errors"
	"classbook/pkg/logger"
	"classbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const testClassID = "507f1f77bcf86cd799439011"

// --- Fakes ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	bookings map[string]*model.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]*model.Booking{}}
}

var _ repository.BookingRepository = (*fakeBookingRepo)(nil)

func (f *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking.ID = primitive.NewObjectID().Hex()
	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingRepo) matches(b *model.Booking, filter model.BookingFilter) bool {
	if filter.ClassID != "" && b.ClassID != filter.ClassID {
		return false
	}
	if filter.Status != "" && b.Status != filter.Status {
		return false
	}
	if filter.MemberName != "" &&
		!strings.Contains(strings.ToLower(b.MemberName), strings.ToLower(filter.MemberName)) {
		return false
	}
	if filter.StartDate != nil && b.ParticipationDate.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && b.ParticipationDate.After(*filter.EndDate) {
		return false
	}
	return true
}

func (f *fakeBookingRepo) FindAll(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if f.matches(b, filter) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	all, _ := f.FindAll(ctx, filter)
	return int64(len(all)), nil
}

func (f *fakeBookingRepo) CountConfirmed(ctx context.Context, classID string, excludeID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, b := range f.bookings {
		if b.ClassID == classID && b.Status == model.StatusConfirmed && b.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingRepo) Update(ctx context.Context, id string, booking *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	copied := *booking
	copied.ID = id
	copied.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	f.bookings[id] = &copied
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingRepo) Statistics(ctx context.Context, opts model.StatisticsOptions) (*model.BookingStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &model.BookingStatistics{}
	for _, b := range f.bookings {
		if opts.ClassID != "" && b.ClassID != opts.ClassID {
			continue
		}
		stats.Total++
		switch b.Status {
		case model.StatusConfirmed:
			stats.Confirmed++
		case model.StatusCancelled:
			stats.Cancelled++
		case model.StatusAttended:
			stats.Attended++
		case model.StatusNoShow:
			stats.NoShow++
		}
	}
	return stats, nil
}

func (f *fakeBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(nil)
}

type fakeLockRepo struct {
	mu    sync.Mutex
	locks map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locks: map[string]bool{}}
}

var _ repository.ClassLockRepository = (*fakeLockRepo)(nil)

func (f *fakeLockRepo) Create(ctx context.Context, lock *model.ClassLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[lock.ID] {
		return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}
	f.locks[lock.ID] = true
	return nil
}

func (f *fakeLockRepo) Delete(ctx context.Context, classID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, classID)
	return nil
}

type fakeClassRepo struct {
	mu      sync.Mutex
	classes map[string]*model.Class
}

func newFakeClassRepo(classes ...*model.Class) *fakeClassRepo {
	repo := &fakeClassRepo{classes: map[string]*model.Class{}}
	for _, c := range classes {
		repo.classes[c.ID] = c
	}
	return repo
}

func (f *fakeClassRepo) FindByID(ctx context.Context, id string) (*model.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	class, ok := f.classes[id]
	if !ok {
		return nil, classeserrors.ErrNotFound
	}
	copied := *class
	return &copied, nil
}

type fakeResolver struct {
	mu       sync.Mutex
	members  map[string]*model.Member
	resolved []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{members: map[string]*model.Member{}}
}

func (f *fakeResolver) Resolve(ctx context.Context, name, email, phone string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := email
	if key == "" {
		key = strings.ToLower(name)
	}
	f.resolved = append(f.resolved, key)
	if existing, ok := f.members[key]; ok {
		return existing, nil
	}
	member := &model.Member{
		ID:    primitive.NewObjectID().Hex(),
		Name:  name,
		Email: email,
		Phone: phone,
	}
	f.members[key] = member
	f.members[member.ID] = member
	return member, nil
}

func (f *fakeResolver) GetByID(ctx context.Context, id string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.members[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Member", id)
	}
	return member, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) record(eventType, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType+":"+id)
}

func (f *fakePublisher) BookingCreated(ctx context.Context, b *model.Booking) {
	f.record(events.EventBookingCreated, b.ID)
}

func (f *fakePublisher) BookingCancelled(ctx context.Context, b *model.Booking) {
	f.record(events.EventBookingCancelled, b.ID)
}

func (f *fakePublisher) BookingAttended(ctx context.Context, b *model.Booking) {
	f.record(events.EventBookingAttended, b.ID)
}

func (f *fakePublisher) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if strings.HasPrefix(e, eventType+":") {
			n++
		}
	}
	return n
}

// --- Fixture ---

type fixture struct {
	svc       BookingService
	repo      *fakeBookingRepo
	locks     *fakeLockRepo
	classes   *fakeClassRepo
	resolver  *fakeResolver
	publisher *fakePublisher
}

func newFixture(t *testing.T, classes ...*model.Class) *fixture {
	t.Helper()

	cfg := &config.Config{
		Log:              logger.NewNop(),
		CapacityLockTTL:  10 * time.Second,
		CapacityLockWait: 5 * time.Second,
	}

	f := &fixture{
		repo:      newFakeBookingRepo(),
		locks:     newFakeLockRepo(),
		classes:   newFakeClassRepo(classes...),
		resolver:  newFakeResolver(),
		publisher: &fakePublisher{},
	}
	f.svc = NewBookingService(
		f.repo, f.locks, f.classes, f.resolver,
		validator.NewBookingValidator(cfg.Log), f.publisher, cfg,
	)
	return f
}

func openClass(capacity int) *model.Class {
	now := time.Now().UTC()
	return &model.Class{
		ID:             testClassID,
		Name:           "Morning Yoga",
		InstructorName: "Noa Adler",
		Status:         model.ClassActive,
		StartDate:      now.AddDate(0, 0, -30),
		EndDate:        now.AddDate(0, 0, 30),
		MaxCapacity:    capacity,
	}
}

func dateStr(daysFromNow int) string {
	return time.Now().UTC().AddDate(0, 0, daysFromNow).Format(model.DateLayout)
}

func createRequest() *model.BookingRequest {
	return &model.BookingRequest{
		ClassID:           testClassID,
		MemberName:        "Dana Levi",
		MemberEmail:       "dana@example.com",
		ParticipationDate: dateStr(7),
	}
}

// --- Tests ---

func TestCreateBooking(t *testing.T) {
	f := newFixture(t, openClass(10))

	details, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if details.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want %s", details.Status, model.StatusConfirmed)
	}
	if details.ID == "" {
		t.Error("expected booking ID to be assigned")
	}
	if details.MemberID == "" {
		t.Error("expected member to be resolved")
	}
	if details.Member == nil || details.Member.Name != "Dana Levi" {
		t.Errorf("member summary = %+v, want Dana Levi", details.Member)
	}
	if details.Class == nil || details.Class.Name != "Morning Yoga" {
		t.Errorf("class summary = %+v, want Morning Yoga", details.Class)
	}
	if got := f.publisher.count(events.EventBookingCreated); got != 1 {
		t.Errorf("created events = %d, want 1", got)
	}
}

func TestCreateBookingClassNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), createRequest())
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != 404 {
		t.Errorf("status = %d, want 404 (error: %v)", appErr.HTTPStatus, err)
	}
}

func TestCreateBookingInactiveClass(t *testing.T) {
	class := openClass(10)
	class.Status = model.ClassInactive
	f := newFixture(t, class)

	_, err := f.svc.Create(context.Background(), createRequest())
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != 400 {
		t.Errorf("status = %d, want 400 (error: %v)", appErr.HTTPStatus, err)
	}
}

func TestCreateBookingDateRules(t *testing.T) {
	f := newFixture(t, openClass(10))

	t.Run("today is rejected", func(t *testing.T) {
		req := createRequest()
		req.ParticipationDate = dateStr(0)
		_, err := f.svc.Create(context.Background(), req)
		if !apperrors.HasCode(err, apperrors.CodePastDate) {
			t.Errorf("error = %v, want %s", err, apperrors.CodePastDate)
		}
	})

	t.Run("past the class window", func(t *testing.T) {
		req := createRequest()
		req.ParticipationDate = dateStr(45)
		_, err := f.svc.Create(context.Background(), req)
		if !apperrors.HasCode(err, apperrors.CodeDateOutOfRange) {
			t.Errorf("error = %v, want %s", err, apperrors.CodeDateOutOfRange)
		}
	})
}

func TestCreateBookingClassFull(t *testing.T) {
	f := newFixture(t, openClass(1))

	if _, err := f.svc.Create(context.Background(), createRequest()); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	req := createRequest()
	req.MemberEmail = "other@example.com"
	req.MemberName = "Omer Katz"
	_, err := f.svc.Create(context.Background(), req)
	if !apperrors.HasCode(err, apperrors.CodeClassFull) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeClassFull)
	}
}

func TestCancelledBookingFreesSeat(t *testing.T) {
	f := newFixture(t, openClass(1))

	first, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), first.ID, "schedule conflict"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	req := createRequest()
	req.MemberEmail = "other@example.com"
	req.MemberName = "Omer Katz"
	if _, err := f.svc.Create(context.Background(), req); err != nil {
		t.Errorf("seat should be free after cancellation, got %v", err)
	}
}

func TestDuplicateBookingsAllowed(t *testing.T) {
	f := newFixture(t, openClass(10))

	first, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	second, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("second identical booking failed: %v", err)
	}
	if first.ID == second.ID {
		t.Error("expected two distinct bookings")
	}
	if first.MemberID != second.MemberID {
		t.Error("expected both bookings to resolve to the same member")
	}
}

func TestConcurrentCreatesSingleSeat(t *testing.T) {
	f := newFixture(t, openClass(1))

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), createRequest())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, full int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperrors.HasCode(err, apperrors.CodeClassFull):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}
	if full != attempts-1 {
		t.Errorf("class full rejections = %d, want %d", full, attempts-1)
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t, openClass(10))
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), created.ID, "feeling unwell")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, model.StatusCancelled)
	}
	if cancelled.CancelledAt == nil {
		t.Error("expected CancelledAt to be stamped")
	}
	if cancelled.CancelledBy != CancelledBySystem {
		t.Errorf("cancelledBy = %s, want %s", cancelled.CancelledBy, CancelledBySystem)
	}
	if cancelled.CancellationReason != "feeling unwell" {
		t.Errorf("reason = %s", cancelled.CancellationReason)
	}
	if got := f.publisher.count(events.EventBookingCancelled); got != 1 {
		t.Errorf("cancelled events = %d, want 1", got)
	}

	if _, err := f.svc.Cancel(context.Background(), created.ID, "again"); err == nil {
		t.Error("expected error cancelling an already cancelled booking")
	}
}

func TestCancelAttendedBooking(t *testing.T) {
	f := newFixture(t, openClass(10))
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.svc.MarkAttended(context.Background(), created.ID); err != nil {
		t.Fatalf("attend failed: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), created.ID, "too late")
	if err == nil || !strings.Contains(err.Error(), "attended") {
		t.Errorf("error = %v, want attended-terminal rejection", err)
	}
}

func TestMarkAttended(t *testing.T) {
	f := newFixture(t, openClass(10))
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	attended, err := f.svc.MarkAttended(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("attend failed: %v", err)
	}
	if attended.Status != model.StatusAttended {
		t.Errorf("status = %s, want %s", attended.Status, model.StatusAttended)
	}
	if attended.AttendedAt == nil {
		t.Error("expected AttendedAt to be stamped")
	}
	if got := f.publisher.count(events.EventBookingAttended); got != 1 {
		t.Errorf("attended events = %d, want 1", got)
	}

	if _, err := f.svc.MarkAttended(context.Background(), created.ID); err == nil {
		t.Error("expected error attending an already attended booking")
	}
}

func TestMarkAttendedCancelledBooking(t *testing.T) {
	f := newFixture(t, openClass(10))
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), created.ID, ""); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := f.svc.MarkAttended(context.Background(), created.ID); err == nil {
		t.Error("expected error attending a cancelled booking")
	}
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t, openClass(10))
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := f.svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	_, err = f.svc.GetByID(context.Background(), created.ID)
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != 404 {
		t.Errorf("status = %d, want 404", appErr.HTTPStatus)
	}
}

func TestGetByIDEnrichmentDegrades(t *testing.T) {
	f := newFixture(t, openClass(10))
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Drop the member record so enrichment has nothing to find.
	f.resolver.mu.Lock()
	f.resolver.members = map[string]*model.Member{}
	f.resolver.mu.Unlock()

	details, err := f.svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("read should survive enrichment failure, got %v", err)
	}
	if details.Member != nil {
		t.Error("expected nil member summary")
	}
	if details.Class == nil {
		t.Error("expected class summary to still be attached")
	}
}

func TestSearchRequiresCriterion(t *testing.T) {
	f := newFixture(t, openClass(10))

	_, _, err := f.svc.Search(context.Background(), model.BookingFilter{Limit: 20})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeInvalidInput)
	}

	// Class and status only narrow a search, they do not qualify as criteria.
	_, _, err = f.svc.Search(context.Background(), model.BookingFilter{
		ClassID: testClassID, Status: model.StatusConfirmed, Limit: 20,
	})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeInvalidInput)
	}
}

func TestSearchByMemberName(t *testing.T) {
	f := newFixture(t, openClass(10))

	if _, err := f.svc.Create(context.Background(), createRequest()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	other := createRequest()
	other.MemberName = "Omer Katz"
	other.MemberEmail = "omer@example.com"
	if _, err := f.svc.Create(context.Background(), other); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	results, count, err := f.svc.Search(context.Background(), model.BookingFilter{
		MemberName: "dana", Limit: 20,
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if count != 1 || len(results) != 1 {
		t.Fatalf("count = %d, results = %d, want 1", count, len(results))
	}
	if results[0].MemberName != "Dana Levi" {
		t.Errorf("member = %s, want Dana Levi", results[0].MemberName)
	}
}

func TestStatistics(t *testing.T) {
	f := newFixture(t, openClass(10))

	first, _ := f.svc.Create(context.Background(), createRequest())
	second, _ := f.svc.Create(context.Background(), createRequest())
	if _, err := f.svc.Cancel(context.Background(), first.ID, ""); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.svc.MarkAttended(context.Background(), second.ID); err != nil {
		t.Fatalf("attend failed: %v", err)
	}

	stats, err := f.svc.Statistics(context.Background(), model.StatisticsOptions{ClassID: testClassID})
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.Total != 2 || stats.Cancelled != 1 || stats.Attended != 1 || stats.Confirmed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDeleteAttendedBookingRejected(t *testing.T) {
	f := newFixture(t, openClass(10))
	created, err := f.svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.svc.MarkAttended(context.Background(), created.ID); err != nil {
		t.Fatalf("attend failed: %v", err)
	}

	err = f.svc.Delete(context.Background(), created.ID)
	if err == nil || !strings.Contains(err.Error(), "attended") {
		t.Errorf("error = %v, want attended-deletion rejection", err)
	}

	if _, err := f.svc.GetByID(context.Background(), created.ID); err != nil {
		t.Errorf("booking should still exist, got %v", err)
	}
}
