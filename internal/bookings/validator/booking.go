package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "classbook/pkg/errors"
	"classbook/pkg/logger"
	"classbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("calendardate", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'calendardate' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}

// ValidateCreate checks the request shape and returns the parsed
// participation date at midnight UTC.
func (v *BookingValidator) ValidateCreate(req *model.BookingRequest) (time.Time, error) {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return time.Time{}, v.translateValidationErrors(validationErrs)
		}
		return time.Time{}, err
	}

	return v.ParseDate(req.ParticipationDate)
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateClass rejects bookings against inactive classes.
func (v *BookingValidator) ValidateClass(class *model.Class) error {
	if class.Status != model.ClassActive {
		return apperrors.Validation(
			fmt.Sprintf("Class is not active (status: %s)", class.Status), nil)
	}
	return nil
}

// ValidateCreateDate enforces the creation-time date rules: the
// participation date must be tomorrow or later, and inside the class window.
func (v *BookingValidator) ValidateCreateDate(class *model.Class, date, now time.Time) error {
	tomorrow := StartOfDay(now).AddDate(0, 0, 1)
	if date.Before(tomorrow) {
		return apperrors.PastDate("Bookings must be made at least one day in advance")
	}
	return v.validateClassWindow(class, date)
}

// ValidateUpdateDate enforces the update-time date rules. Unlike creation,
// today is allowed here: a same-day move is legal, only genuinely past
// dates are rejected.
func (v *BookingValidator) ValidateUpdateDate(class *model.Class, date, now time.Time) error {
	today := StartOfDay(now)
	if date.Before(today) {
		return apperrors.PastDate("Participation date cannot be in the past")
	}
	return v.validateClassWindow(class, date)
}

func (v *BookingValidator) validateClassWindow(class *model.Class, date time.Time) error {
	start := StartOfDay(class.StartDate)
	end := StartOfDay(class.EndDate)
	if date.Before(start) || date.After(end) {
		return apperrors.DateOutOfRange(fmt.Sprintf(
			"Participation date must be between %s and %s",
			start.Format(model.DateLayout),
			end.Format(model.DateLayout),
		))
	}
	return nil
}

// ParseDate parses a wire-format calendar date to midnight UTC.
func (v *BookingValidator) ParseDate(s string) (time.Time, error) {
	date, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.Validation(
			fmt.Sprintf("Invalid participation date %q, must be YYYY-MM-DD", s), nil)
	}
	return date.UTC(), nil
}

// StartOfDay normalizes a timestamp to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid ID", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +12125551234)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "calendardate":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
