package languages

import (
	"errors"
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{code: "en", expected: "English"},
		{code: "ru", expected: "Русский"},
		{code: "pt", expected: "Português"},
		{code: "xx", expected: "English"},
		{code: "", expected: "English"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := DisplayName(tt.code); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("de"); err != nil {
		t.Errorf("Expected de to be valid, got %v", err)
	}

	err := Validate("klingon")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("Expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	if len(all) != 7 {
		t.Fatalf("Expected 7 languages, got %d", len(all))
	}

	all[0].Name = "changed"
	if DisplayName("en") != "English" {
		t.Error("Expected All to return a copy of the supported set")
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault("fr"); got != "fr" {
		t.Errorf("Expected fr, got %s", got)
	}
	if got := OrDefault("zz"); got != Default {
		t.Errorf("Expected %s, got %s", Default, got)
	}
}
