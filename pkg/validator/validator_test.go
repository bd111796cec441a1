package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCPF(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"formatted", "123.456.789-01", "12345678901"},
		{"leading zeros dropped by export", "345678901", "00345678901"},
		{"too long keeps last 11", "5512345678901", "12345678901"},
		{"empty", "", ""},
		{"no digits", "N/D", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCPF(tt.in))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare mobile", "11987654321", "5511987654321"},
		{"formatted", "(11) 98765-4321", "5511987654321"},
		{"already with country code", "5511987654321", "5511987654321"},
		{"landline", "1132654321", "551132654321"},
		{"too short", "4321", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestValidateStructTags(t *testing.T) {
	type req struct {
		Doc   string `validate:"required,cpf"`
		Phone string `validate:"required,brphone"`
	}

	assert.NoError(t, Validate(req{Doc: "123.456.789-01", Phone: "11987654321"}))
	assert.Error(t, Validate(req{Doc: "N/D", Phone: "11987654321"}))
	assert.Error(t, Validate(req{Doc: "12345678901", Phone: "123"}))
}
