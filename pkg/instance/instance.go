package instance

import "os"

// GetID identifies the running process in logs. WORKER_ID wins over the
// platform's DYNO name.
func GetID(fallback string) string {
	for _, key := range []string{"WORKER_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return fallback
}
