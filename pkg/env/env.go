// Package env reads process environment values needed before the
// configuration layer is up, such as the log format chosen at boot.
package env

import "os"

// Get returns the named variable, or fallback when it is unset or blank.
func Get(name, fallback string) string {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	return value
}
