package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8774"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline applied by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Zones
	DefaultZone     string        // zone of compute hosts outside any zoned aggregate (default: nova)
	InternalZone    string        // zone of control-plane services (default: internal)
	ServiceDownTime time.Duration // max heartbeat age of a live service (default: 60s)
	ZoneCacheTTL    time.Duration // lifetime of cached host zones, 0 = until next reset

	// Topology and background jobs
	TopologyFile   string        // path to the topology.yaml file (aggregates and seeded services)
	ReloadInterval time.Duration // interval to reload the topology file (default: 1h)
	ReapInterval   time.Duration // interval of the silent service reaper (default: 24h)
	ReapThreshold  time.Duration // heartbeat age after which a service is removed (default: 7d)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AllowedHosts []string // optional, restrict the zone API and /reload to specific Host headers
	AllowedCIDRS []string // optional, restrict ops and service registry endpoints to these IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateBurst    int      // per-IP burst on the zone API
	RatePerMin   int      // per-IP refill per minute on the zone API
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ZONEWATCH_LISTEN_PORT", ":8774"),
		ShutdownTimeout: mustDuration("ZONEWATCH_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("ZONEWATCH_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("ZONEWATCH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ZONEWATCH_PRETTY_LOG", false),

		// Zones
		DefaultZone:     getenv("ZONEWATCH_DEFAULT_ZONE", "nova"),
		InternalZone:    getenv("ZONEWATCH_INTERNAL_ZONE", "internal"),
		ServiceDownTime: mustDuration("ZONEWATCH_SERVICE_DOWN_TIME", 60*time.Second),
		ZoneCacheTTL:    mustDuration("ZONEWATCH_ZONE_CACHE_TTL", 5*time.Minute),

		// Topology
		TopologyFile:   getenv("ZONEWATCH_TOPOLOGY_FILE", "/app/topology.yaml"),
		ReloadInterval: mustDuration("ZONEWATCH_RELOAD_INTERVAL", time.Hour),
		ReapInterval:   mustDuration("ZONEWATCH_REAP_INTERVAL", 24*time.Hour),
		ReapThreshold:  mustDuration("ZONEWATCH_REAP_THRESHOLD", 7*24*time.Hour),

		// Redis settings
		RedisAddr:             requireEnv("ZONEWATCH_REDIS_ADDR"),
		RedisUser:             getenv("ZONEWATCH_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("ZONEWATCH_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("ZONEWATCH_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("ZONEWATCH_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("ZONEWATCH_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("ZONEWATCH_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("ZONEWATCH_TRUST_PROXY", false),
		RateBurst:    getenvInt("ZONEWATCH_RATE_BURST", 30),
		RatePerMin:   getenvInt("ZONEWATCH_RATE_PER_MIN", 120),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Validate checks the settings that cannot be defaulted sensibly
func (c *Config) Validate() error {
	switch {
	case c.RedisPasswordRequired && c.RedisPassword == "":
		return fmt.Errorf("ZONEWATCH_REDIS_PASSWORD is required when ZONEWATCH_REDIS_PASSWORD_REQUIRED=true")
	case c.DefaultZone == "" || c.InternalZone == "":
		return fmt.Errorf("default and internal zone names must not be empty")
	case c.DefaultZone == c.InternalZone:
		return fmt.Errorf("default zone %q must differ from the internal zone", c.DefaultZone)
	case c.ServiceDownTime <= 0:
		return fmt.Errorf("ZONEWATCH_SERVICE_DOWN_TIME must be positive, got %s", c.ServiceDownTime)
	case c.RateBurst < 1 || c.RatePerMin < 1:
		return fmt.Errorf("rate limit burst and refill must be at least 1")
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
