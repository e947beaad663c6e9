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
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout, not applied to the websocket

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Persistence
	StoreKind      string // "postgres" | "memory"
	DatabaseURL    string // pgx DSN, required when StoreKind=postgres
	DBMaxOpenConns int    // pool size

	// Redis (suggestion cache, optional)
	RedisAddr           string        // ex: "localhost:6379", empty = cache disabled
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Search
	MeiliURL    string // empty = Meilisearch disabled, store full-text search only
	MeiliAPIKey string

	// Enrichment
	LLMBaseURL    string        // OpenAI compatible endpoint, empty = provider default
	LLMAPIKey     string        // empty = classifier disabled
	LLMModel      string        // ex: gpt-4o-mini
	EnrichTimeout time.Duration // bound on each title/classify call
	FetchRate     int           // outbound page fetches per second
	SuggestionTTL time.Duration // redis cache TTL for suggestions

	// Realtime
	WSQueueSize    int           // per-connection outbound queue cap
	WSHeartbeat    time.Duration // ping interval for live connections
	DispatchBuffer int           // dispatcher inbox capacity

	// Import
	ImportFile     string        // Homepage bookmarks.yaml, empty = import disabled
	ImportInterval time.Duration // re-import interval (default: 24h)

	AllowedHosts []string // optional, restrict ops endpoints to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // allowed CORS origins, "*" = any
	RateBurst    int      // per-IP burst on mutating routes
	RatePerMin   int      // per-IP refill on mutating routes
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOOKMARKD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOOKMARKD_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("BOOKMARKD_REQUEST_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  getenv("BOOKMARKD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOOKMARKD_PRETTY_LOG", true),

		// Persistence
		StoreKind:      strings.ToLower(getenv("BOOKMARKD_STORE", StorePostgres)),
		DBMaxOpenConns: getenvInt("BOOKMARKD_DB_MAX_OPEN_CONNS", 20),

		// Redis settings
		RedisAddr:           getenv("BOOKMARKD_REDIS_ADDR", ""),
		RedisUser:           getenv("BOOKMARKD_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("BOOKMARKD_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("BOOKMARKD_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Search
		MeiliURL:    getenv("BOOKMARKD_MEILI_URL", ""),
		MeiliAPIKey: getenv("BOOKMARKD_MEILI_API_KEY", ""),

		// Enrichment
		LLMBaseURL:    getenv("BOOKMARKD_LLM_BASE_URL", ""),
		LLMAPIKey:     getenv("BOOKMARKD_LLM_API_KEY", ""),
		LLMModel:      getenv("BOOKMARKD_LLM_MODEL", "gpt-4o-mini"),
		EnrichTimeout: mustDuration("BOOKMARKD_ENRICH_TIMEOUT", 10*time.Second),
		FetchRate:     getenvInt("BOOKMARKD_FETCH_RATE", 2),
		SuggestionTTL: mustDuration("BOOKMARKD_SUGGESTION_TTL", 24*time.Hour),

		// Realtime
		WSQueueSize:    getenvInt("BOOKMARKD_WS_QUEUE_SIZE", 64),
		WSHeartbeat:    mustDuration("BOOKMARKD_WS_HEARTBEAT", 30*time.Second),
		DispatchBuffer: getenvInt("BOOKMARKD_DISPATCH_BUFFER", 256),

		// Import
		ImportFile:     getenv("BOOKMARKD_IMPORT_FILE", ""), // Optional, empty = import disabled
		ImportInterval: mustDuration("BOOKMARKD_IMPORT_INTERVAL", 24*time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BOOKMARKD_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BOOKMARKD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BOOKMARKD_TRUST_PROXY", true),
		CORSOrigins:  splitAndTrim(getenv("BOOKMARKD_CORS_ORIGINS", "*")),
		RateBurst:    getenvInt("BOOKMARKD_RATE_BURST", 30),
		RatePerMin:   getenvInt("BOOKMARKD_RATE_PER_MIN", 120),
	}

	switch cfg.StoreKind {
	case StorePostgres:
		cfg.DatabaseURL = requireEnv("BOOKMARKD_DATABASE_URL")
	case StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: BOOKMARKD_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.StoreKind))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const redacted = "***REDACTED***"

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = redacted
	}
	if c.RedisUser != "" {
		c.RedisUser = redacted
	}
	if c.DatabaseURL != "" {
		c.DatabaseURL = redacted
	}
	if c.MeiliAPIKey != "" {
		c.MeiliAPIKey = redacted
	}
	if c.LLMAPIKey != "" {
		c.LLMAPIKey = redacted
	}
	return c
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
