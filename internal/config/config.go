// Package config loads application configuration from environment
// variables.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message; domain
// knobs fall back to defaults.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign participant tokens
	SessionTTLMin int    // participant token time-to-live in minutes

	// Scale is the allowed ordered set of point values.  Threshold is
	// the strong-consensus cutoff in percent; a product decision, so
	// it is configuration rather than a constant.
	Scale              []float64
	ConsensusThreshold float64

	Debounce      time.Duration // sync-layer notification coalescing window
	RoomTTL       time.Duration // inactivity after which rooms are swept
	SweepInterval time.Duration // how often the sweeper runs

	JiraPointFields     []string      // numeric field ids to set on publish
	JiraCommentTemplate string        // comment format, one %g verb for the points
	JiraTimeout         time.Duration // per-call bound on bridge round trips
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		SessionTTLMin: envInt("SESSION_TTL_MIN", 720),

		Scale:              parseScale(envStr("SCALE", "0,1,2,3,5,8,13,20,40,100")),
		ConsensusThreshold: envFloat("CONSENSUS_THRESHOLD", 70),

		Debounce:      envDur("DEBOUNCE", 150*time.Millisecond),
		RoomTTL:       envDur("ROOM_TTL", 24*time.Hour),
		SweepInterval: envDur("SWEEP_INTERVAL", time.Hour),

		JiraPointFields:     splitList(envStr("JIRA_POINT_FIELDS", "customfield_10016")),
		JiraCommentTemplate: envStr("JIRA_COMMENT_TEMPLATE", ""),
		JiraTimeout:         envDur("JIRA_TIMEOUT", 15*time.Second),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// parseScale parses a comma-separated ascending list of point values.
// A malformed list is a deployment error, so it is fatal.
func parseScale(s string) []float64 {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			log.Fatalf("invalid scale value %q in SCALE", part)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		log.Fatalf("SCALE must contain at least one value")
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			log.Fatalf("SCALE must be strictly ascending")
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envFloat(k string, d float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}
