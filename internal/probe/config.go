// Package probe drives a running matchxai server with generated instances
// and checks every response against the attribution invariants.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Requests int           // Number of instances to send
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Seed     int64         // Seed for instance generation
	Verbose  bool          // Log every violation as it happens
}

// Stats holds probe statistics.
type Stats struct {
	Requests   int
	Successful int
	Failed     int
	Violations int
	ByCall     map[string]int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Violation is one response that broke an invariant.
type Violation struct {
	Call     string
	Instance map[string]float64
	Err      error
}
