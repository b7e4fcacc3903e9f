package middleware

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clinicops/clinic/internal/platform/apperr"
)

type sampleRequest struct {
	Method string          `json:"payment_method" validate:"required,oneof=cash credit_card"`
	Amount decimal.Decimal `json:"amount_paid" validate:"gt=0"`
	Email  string          `json:"email,omitempty" validate:"omitempty,email"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	ok := sampleRequest{Method: "cash", Amount: decimal.RequireFromString("10.00")}
	if err := v.Validate(&ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		req  sampleRequest
		want string
	}{
		{"missing method", sampleRequest{Amount: decimal.NewFromInt(1)}, "payment_method is required"},
		{"bad method", sampleRequest{Method: "cheque", Amount: decimal.NewFromInt(1)}, "payment_method must be one of: cash credit_card"},
		{"zero amount", sampleRequest{Method: "cash", Amount: decimal.Zero}, "amount_paid must be greater than 0"},
		{"negative amount", sampleRequest{Method: "cash", Amount: decimal.NewFromInt(-5)}, "amount_paid must be greater than 0"},
		{"bad email", sampleRequest{Method: "cash", Amount: decimal.NewFromInt(1), Email: "nope"}, "email must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}
