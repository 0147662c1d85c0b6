package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestGenerateOrderCode(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^GH-2026-\d{4}$`)
	for i := 0; i < 50; i++ {
		code := GenerateOrderCode(now)
		if !pattern.MatchString(code) {
			t.Fatalf("order code %q does not match GH-2026-NNNN", code)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"amina@example.com", "a.b+c@shop.ae"}
	invalid := []string{"", "amina", "amina@", "@example.com", "amina@example"}

	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = false", e)
		}
	}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = true", e)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	if err := ValidatePhoneNumber("+971501234567", "AE"); err != nil {
		t.Errorf("valid UAE number rejected: %v", err)
	}
	if err := ValidatePhoneNumber("12", "AE"); err == nil {
		t.Error("expected error for short number")
	}
}

func TestProcessValidationErrors(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Email string `validate:"omitempty,email"`
	}

	err := validator.New().Struct(payload{Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected validation failure")
	}

	fields := ProcessValidationErrors(err)
	if fields["Name"] != "required" {
		t.Errorf("Name tag = %q, want required", fields["Name"])
	}
	if fields["Email"] != "email" {
		t.Errorf("Email tag = %q, want email", fields["Email"])
	}
}

func TestJwtRoundTrip(t *testing.T) {
	token, err := JwtGenerate(42, "admin")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	parsed, err := JwtValidate(token)
	if err != nil || !parsed.Valid {
		t.Fatalf("JwtValidate: %v", err)
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatal("unexpected claims type")
	}
	if claims.ID != 42 || claims.Username != "admin" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := JwtValidate("not-a-token"); err == nil {
		t.Error("expected error for garbage token")
	}
}
