package config

import (
	"os"
	"strings"

	apierrors "github.com/diogo/samarth/internal/errors"
)

// APIKeyEnvVars lists the environment variables checked for the provider
// credential, in order of precedence.
var APIKeyEnvVars = []string{"API_KEY", "GEMINI_API_KEY"}

// LoadAPIKey returns the Gemini API key from the environment.
// A missing key is a fatal ConfigurationError.
func LoadAPIKey() (string, error) {
	for _, name := range APIKeyEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	return "", apierrors.NewMissingAPIKeyError(APIKeyEnvVars...)
}

// MaskAPIKey shortens a key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
