package instance

import "os"

// GetID identifies this worker process in logs and lock ownership. It prefers
// the SUGARHOUSE_WORKER_ID override, then the hostname, then a fixed default.
func GetID() string {
	if id := os.Getenv("SUGARHOUSE_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
