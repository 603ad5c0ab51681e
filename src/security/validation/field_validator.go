// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxISINLength        = 12
	MaxCurrencyCodeLen   = 3
	MaxProductNameLength = 255
	MaxDescriptionLength = 1024
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateCurrencyCode accepts empty (unknown) or a three-letter uppercase code.
func ValidateCurrencyCode(code string) error {
	if code == "" {
		return nil
	}
	if !currencyCodeRe.MatchString(strings.ToUpper(code)) {
		return fmt.Errorf("%w: invalid currency code '%s'", ErrValidationFailed, code)
	}
	return nil
}
