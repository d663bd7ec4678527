package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"simple", "maria", false},
		{"with separators", "maria.gomez_99", false},
		{"hyphenated", "juan-perez", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 31), true},
		{"spaces", "maria gomez", true},
		{"special chars", "maria@home", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"plain", "maria@example.com", false},
		{"subdomain", "maria@mail.example.com", false},
		{"no at", "maria.example.com", true},
		{"no domain", "maria@", true},
		{"display name form", "Maria <maria@example.com>", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"letters and digits", "supersecret1", false},
		{"exactly min length", "abcdefg1", false},
		{"too short", "abc1", true},
		{"too long", strings.Repeat("a", 72) + "1", true},
		{"no digit", "supersecret", true},
		{"no letter", "12345678", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeDescription(t *testing.T) {
	assert.Equal(t, "alquiler junio", SanitizeDescription("  alquiler junio  "))
	assert.Equal(t, "cafeteria", SanitizeDescription("cafe\x00teria"))
	assert.Equal(t, "linea 1\nlinea 2", SanitizeDescription("linea 1\nlinea 2"))
	assert.Equal(t, "", SanitizeDescription("\x01\x02\x03"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "a\tb", StripUnprintable("a\tb"))
	assert.Equal(t, "ab", StripUnprintable("a\x7fb"))
}
