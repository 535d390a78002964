package errors

import (
	stderrors "errors"
	"net/http"
	"strings"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := NotFoundWithID("Booking", "abc123")
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if !strings.Contains(err.Error(), "Booking not found") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Details["id"] != "abc123" {
		t.Errorf("expected id detail, got %v", err.Details)
	}
}

func TestValidationStatusMapping(t *testing.T) {
	if got := Validation("bad input", nil).HTTPStatus; got != http.StatusBadRequest {
		t.Errorf("validation errors must map to 400, got %d", got)
	}
}

func TestBusinessCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
	}{
		{"past date", PastDate("too early"), CodePastDate},
		{"out of range", DateOutOfRange("outside window"), CodeDateOutOfRange},
		{"class full", ClassFull("c1"), CodeClassFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.HTTPStatus != http.StatusBadRequest {
				t.Errorf("business errors surface as 400, got %d", tt.err.HTTPStatus)
			}
			if !HasCode(tt.err, tt.code) {
				t.Error("HasCode should match")
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Internal("Failed to reach database", cause)
	if !stderrors.Is(err, cause) {
		t.Error("Internal should wrap its cause")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("cause missing from message: %s", err.Error())
	}
}

func TestAsAppError(t *testing.T) {
	plain := stderrors.New("boom")
	wrapped := AsAppError(plain)
	if wrapped.Code != CodeInternal {
		t.Errorf("expected internal wrap, got %s", wrapped.Code)
	}

	original := Conflict("busy")
	if AsAppError(original) != original {
		t.Error("AppError should pass through unchanged")
	}
}
