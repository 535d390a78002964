package model

import (
	"time"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusAttended  = "attended"
	StatusNoShow    = "no_show"
)

// DateLayout is the wire format for calendar dates. Participation dates
// carry no time component; they are stored at midnight UTC.
const DateLayout = "2006-01-02"

type Booking struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClassID            string     `json:"class_id" bson:"class_id" validate:"required,mongodb"`
	MemberID           string     `json:"member_id" bson:"member_id" validate:"required,mongodb"`
	MemberName         string     `json:"member_name" bson:"member_name" validate:"required,min=2,max=100"`
	ParticipationDate  time.Time  `json:"participation_date" bson:"participation_date" validate:"required"`
	Status             string     `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled attended no_show"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	AttendedAt         *time.Time `json:"attended_at,omitempty" bson:"attended_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the create payload. Member identity is resolved from
// the name/email/phone tuple before the booking is persisted.
type BookingRequest struct {
	ClassID           string `json:"class_id" validate:"required,mongodb"`
	MemberName        string `json:"member_name" validate:"required,min=2,max=100"`
	MemberEmail       string `json:"member_email,omitempty" validate:"omitempty,email"`
	MemberPhone       string `json:"member_phone,omitempty" validate:"omitempty,e164"`
	ParticipationDate string `json:"participation_date" validate:"required,calendardate"`
}

type BookingUpdate struct {
	ClassID            *string `json:"class_id,omitempty" validate:"omitempty,mongodb"`
	MemberName         *string `json:"member_name,omitempty" validate:"omitempty,min=2,max=100"`
	MemberEmail        *string `json:"member_email,omitempty" validate:"omitempty,email"`
	MemberPhone        *string `json:"member_phone,omitempty" validate:"omitempty,e164"`
	ParticipationDate  *string `json:"participation_date,omitempty" validate:"omitempty,calendardate"`
	Status             *string `json:"status,omitempty" validate:"omitempty,oneof=confirmed cancelled attended no_show"`
	CancellationReason *string `json:"cancellation_reason,omitempty" validate:"omitempty,max=500"`
}

// BookingFilter drives listing and search. A zero StartDate/EndDate pointer
// means no bound on that side.
type BookingFilter struct {
	ClassID        string
	MemberName     string
	Status         string
	StartDate      *time.Time
	EndDate        *time.Time
	Limit          int
	Offset         int64
	OrderBy        string
	OrderDirection string
}

type BookingStatistics struct {
	Total     int64 `json:"total" bson:"total"`
	Confirmed int64 `json:"confirmed" bson:"confirmed"`
	Cancelled int64 `json:"cancelled" bson:"cancelled"`
	Attended  int64 `json:"attended" bson:"attended"`
	NoShow    int64 `json:"no_show" bson:"no_show"`
}

type StatisticsOptions struct {
	ClassID   string
	StartDate *time.Time
	EndDate   *time.Time
}

// BookingDetails is the enriched view returned by reads. Member and Class
// are best-effort: absent when the lookup fails, never an error.
type BookingDetails struct {
	Booking
	Member *MemberSummary `json:"member,omitempty" bson:"-"`
	Class  *ClassSummary  `json:"class,omitempty" bson:"-"`
}
