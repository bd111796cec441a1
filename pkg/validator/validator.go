package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()
	digitsRe = regexp.MustCompile(`\D`)
)

func init() {
	// `cpf` tag: a normalizable Brazilian tax id (11 digits after cleanup).
	validate.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return NormalizeCPF(fl.Field().String()) != ""
	})
	// `brphone` tag: a Brazilian mobile number in any common formatting.
	validate.RegisterValidation("brphone", func(fl validator.FieldLevel) bool {
		return NormalizePhone(fl.Field().String()) != ""
	})
}

// Validate runs struct validation against the shared validator instance.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// NormalizeCPF reduces a tax id to its canonical 11-digit form. POS exports
// drop leading zeros, so short values are zero-padded; values with a country
// or formatting prefix keep their last 11 digits. Returns "" when no digits
// remain.
func NormalizeCPF(doc string) string {
	digits := digitsRe.ReplaceAllString(doc, "")
	if digits == "" {
		return ""
	}
	if len(digits) < 11 {
		digits = strings.Repeat("0", 11-len(digits)) + digits
	} else if len(digits) > 11 {
		digits = digits[len(digits)-11:]
	}
	return digits
}

// NormalizePhone reduces a phone number to digits with the 55 country code.
// Returns "" when the number has too few digits to be routable.
func NormalizePhone(phone string) string {
	digits := digitsRe.ReplaceAllString(phone, "")
	if len(digits) < 10 {
		return ""
	}
	if len(digits) <= 11 && !strings.HasPrefix(digits, "55") {
		digits = "55" + digits
	}
	return digits
}
