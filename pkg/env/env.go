// Package env holds the one raw environment lookup the logger needs before
// the envconfig-backed configuration has loaded.
package env

import "os"

// Get reads the environment variable, falling back when it is unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
