package utils

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "AE"

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

// GenerateOrderCode returns "GH-<year>-<4-digit zero-padded random>".
// Random suffixes can collide; the orders table carries a unique index
// and creation retries on conflict.
func GenerateOrderCode(now time.Time) string {
	return fmt.Sprintf("GH-%d-%04d", now.Year(), rand.Intn(10000))
}

// GenerateCustomerCode returns "CUST-<zero-padded random>".
func GenerateCustomerCode() string {
	return fmt.Sprintf("CUST-%03d", rand.Intn(10000))
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}
