package env

import "os"

// Get reads an environment variable, falling back to def when the variable
// is unset or empty.
func Get(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
