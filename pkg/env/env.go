// Package env reads process variables that live outside the prefixed
// config block, such as the PORT and DYNO values the hosting platform
// injects at boot.
package env

import "os"

// Get returns the named variable, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
