package config

import "os"

// FlagAutoHideThreshold is the community flag count at which an issue
// is automatically moved to the Flagged status.
const FlagAutoHideThreshold = 5

// DefaultRadiusKm is the listing radius used when the client does not
// supply one.
const DefaultRadiusKm = 5.0

// Getenv returns the value of key, or fallback if the variable is
// unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
