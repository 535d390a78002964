package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"classbook/pkg/logger"
	"classbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type capturingService struct {
	lastFilter model.BookingFilter
}

func (s *capturingService) Create(ctx context.Context, req *model.BookingRequest) (*model.BookingDetails, error) {
	return nil, nil
}

func (s *capturingService) GetByID(ctx context.Context, id string) (*model.BookingDetails, error) {
	return nil, nil
}

func (s *capturingService) GetAll(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetails, int64, error) {
	s.lastFilter = filter
	return nil, 0, nil
}

func (s *capturingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.BookingDetails, error) {
	return nil, nil
}

func (s *capturingService) Delete(ctx context.Context, id string) error {
	return nil
}

func (s *capturingService) Cancel(ctx context.Context, id string, reason string) (*model.BookingDetails, error) {
	return nil, nil
}

func (s *capturingService) MarkAttended(ctx context.Context, id string) (*model.BookingDetails, error) {
	return nil, nil
}

func (s *capturingService) Search(ctx context.Context, filter model.BookingFilter) ([]*model.BookingDetails, int64, error) {
	s.lastFilter = filter
	return nil, 0, nil
}

func (s *capturingService) Statistics(ctx context.Context, opts model.StatisticsOptions) (*model.BookingStatistics, error) {
	return nil, nil
}

func newTestRouter(svc *capturingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.NewNop()).RegisterRoutes(router)
	return router
}

func TestGetAllParsesMemberNameFilter(t *testing.T) {
	svc := &capturingService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/bookings?member_name=dana&status=confirmed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastFilter.MemberName != "dana" {
		t.Errorf("member name filter = %q, want %q", svc.lastFilter.MemberName, "dana")
	}
	if svc.lastFilter.Status != "confirmed" {
		t.Errorf("status filter = %q, want %q", svc.lastFilter.Status, "confirmed")
	}
}

func TestSearchParsesMemberNameFilter(t *testing.T) {
	svc := &capturingService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/bookings/search?member_name=omer", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastFilter.MemberName != "omer" {
		t.Errorf("member name filter = %q, want %q", svc.lastFilter.MemberName, "omer")
	}
}
