// Package config reads process configuration from the environment once at boot.
package config

import (
	"os"
	"strings"
)

// Envs holds every environment-derived setting the process needs. It is
// populated once in Load and passed down explicitly rather than read from
// os.Getenv scattered across the codebase.
type Envs struct {
	Port       string
	ClientURLs []string
	GinMode    string
}

// Load reads the environment and fills in defaults for anything unset.
func Load() Envs {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = "release"
	}

	return Envs{
		Port:       port,
		ClientURLs: splitCSV(os.Getenv("CLIENT_URL")),
		GinMode:    ginMode,
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
