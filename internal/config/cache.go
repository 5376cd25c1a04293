package config

import (
	"strings"
	"time"
)

// CacheConfig controls the Redis response cache in front of the vote
// history endpoint.  History only changes on reveal, so short TTLs
// already absorb most of the read load.
type CacheConfig struct {
	Enabled      bool            // master switch
	TTL          time.Duration   // entry lifetime
	Prefix       string          // Redis key namespace
	KeyStrategy  string          // how request identity maps to a key
	MaxBodyBytes int             // cap on cached body size, 0 = unlimited
	Methods      map[string]bool // HTTP methods eligible for caching
	Debug        bool            // emit hit/miss decisions to the log
}

// LoadCacheConfig reads the response cache settings from the environment.
func LoadCacheConfig() CacheConfig {
	methods := make(map[string]bool)
	for _, m := range strings.Split(envStr("CACHE_METHODS", "GET"), ",") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			methods[m] = true
		}
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache:poker"),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
		Methods:      methods,
		Debug:        envBool("CACHE_DEBUG", false),
	}
}
