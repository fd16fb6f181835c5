package languages

import (
	"errors"
	"fmt"
)

// Default is used whenever a language code is missing or unknown.
const Default = "en"

// ErrUnsupportedLanguage is returned when a code is not in the supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language pairs a supported code with its native display name
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supported = []Language{
	{Code: "en", Name: "English"},
	{Code: "ru", Name: "Русский"},
	{Code: "de", Name: "Deutsch"},
	{Code: "fr", Name: "Français"},
	{Code: "es", Name: "Español"},
	{Code: "it", Name: "Italiano"},
	{Code: "pt", Name: "Português"},
}

// All returns the supported languages in display order
func All() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code is one of the supported language codes
func IsSupported(code string) bool {
	for _, l := range supported {
		if l.Code == code {
			return true
		}
	}
	return false
}

// DisplayName returns the native name for code, falling back to English.
func DisplayName(code string) string {
	for _, l := range supported {
		if l.Code == code {
			return l.Name
		}
	}
	return supported[0].Name
}

// Validate returns ErrUnsupportedLanguage when code is unknown
func Validate(code string) error {
	if !IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return nil
}

// OrDefault returns code when supported and Default otherwise
func OrDefault(code string) string {
	if IsSupported(code) {
		return code
	}
	return Default
}
