package config

import "time"

// RateLimitConfig controls the Redis token-bucket limiter applied to
// vote submissions and other write endpoints.
type RateLimitConfig struct {
	Enabled        bool          // master switch
	Capacity       int           // bucket size (burst)
	RefillTokens   int           // tokens added per interval
	RefillInterval time.Duration // refill cadence
	TTL            time.Duration // idle bucket expiry in Redis
	KeyStrategy    string        // "participant" or "ip"
	Prefix         string        // Redis key namespace
	Debug          bool          // emit allow/deny decisions to the log
}

// LoadRateLimitConfig reads the limiter settings from the environment.
// Defaults are generous enough for a full team re-voting in a burst.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATELIMIT_ENABLED", true),
		Capacity:       envInt("RATELIMIT_CAPACITY", 30),
		RefillTokens:   envInt("RATELIMIT_REFILL_TOKENS", 10),
		RefillInterval: envDur("RATELIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATELIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATELIMIT_KEY_STRATEGY", "participant"),
		Prefix:         envStr("RATELIMIT_PREFIX", "rl:poker"),
		Debug:          envBool("RATELIMIT_DEBUG", false),
	}
}
