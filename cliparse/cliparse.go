package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	RedisURL     string

	// Admission
	MaxLimit                  int
	RequestsPerContrivedError int
	LockoutAllKeys            bool
	DisallowedMethods         []string
	IgnoreRateLimits          bool
	DisallowWrites            bool
	MaxContentLengthBytes     int64

	// Validation
	MaxOptionsPerElection  int
	MaxRankingsPerElection int

	// Abuse aggregation policy
	AbuseLookback     time.Duration
	AbuseBucket       time.Duration
	AbuseThreshold    int
	AbuseShortBan     time.Duration
	AbuseLongBan      time.Duration
	AbuseGrace        time.Duration
	AbuseInterval     time.Duration
	RequestLogMaxRows int
}

// Defaults returns a config with every optional setting filled in.
func Defaults() Config {
	return Config{
		Port:                      3318,
		DatabaseType:              "sqlite",
		MaxLimit:                  100,
		RequestsPerContrivedError: 10,
		MaxContentLengthBytes:     100 * 1000,
		MaxOptionsPerElection:     200,
		MaxRankingsPerElection:    1000,
		AbuseLookback:             time.Minute,
		AbuseBucket:               10 * time.Second,
		AbuseThreshold:            10,
		AbuseShortBan:             15 * time.Minute,
		AbuseLongBan:              60 * time.Minute,
		AbuseGrace:                30 * time.Minute,
		AbuseInterval:             time.Minute,
		RequestLogMaxRows:         10000,
	}
}

// LoadEnvFiles loads .env style files into the process environment.
// Variables that are already set win. Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ParseFlags validates flags and environment and returns the final config
func ParseFlags(args []string) (Config, error) {
	cfg := Defaults()
	var port int
	var dbURL, dbType, redisURL string

	flags := flag.NewFlagSet("ranked-elections", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	flags.IntVar(&port, "p", 0, "Server port")
	flags.StringVar(&dbURL, "d", "", "Database URL")
	flags.StringVar(&dbType, "t", "", "Database type (sqlite or postgres)")
	flags.StringVar(&redisURL, "redis", "", "Redis URL for the rate-limit view (optional)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			p, err := strconv.Atoi(portStr)
			if err != nil || p <= 0 {
				return Config{}, errors.New("invalid PORT env variable")
			}
			port = p
		}
	}
	if port != 0 {
		cfg.Port = port
	}

	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	cfg.DatabaseURL = dbURL

	if dbType == "" {
		dbType = os.Getenv("DATABASE_TYPE")
	}
	if dbType != "" {
		cfg.DatabaseType = dbType
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("DATABASE_TYPE must be sqlite or postgres, got %q", cfg.DatabaseType)
	}

	if redisURL == "" {
		redisURL = os.Getenv("REDIS_URL")
	}
	cfg.RedisURL = redisURL

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error

	ints := []struct {
		name string
		dst  *int
	}{
		{"MAX_LIMIT", &cfg.MaxLimit},
		{"REQUESTS_PER_CONTRIVED_ERROR", &cfg.RequestsPerContrivedError},
		{"MAX_OPTIONS_PER_ELECTION", &cfg.MaxOptionsPerElection},
		{"MAX_RANKINGS_PER_ELECTION", &cfg.MaxRankingsPerElection},
		{"ABUSE_THRESHOLD", &cfg.AbuseThreshold},
		{"REQUEST_LOG_MAX_ROWS", &cfg.RequestLogMaxRows},
	}
	for _, v := range ints {
		if raw, ok := os.LookupEnv(v.name); ok {
			if *v.dst, err = parseIntEnv(v.name, raw); err != nil {
				return err
			}
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"LOCKOUT_ALL_KEYS", &cfg.LockoutAllKeys},
		{"IGNORE_RATE_LIMITS", &cfg.IgnoreRateLimits},
		{"DISABLE_RATE_LIMITS", &cfg.IgnoreRateLimits},
		{"DISALLOW_WRITES", &cfg.DisallowWrites},
	}
	for _, v := range bools {
		if raw, ok := os.LookupEnv(v.name); ok {
			parsed, err := parseBoolEnv(v.name, raw)
			if err != nil {
				return err
			}
			// Either alias can switch rate limiting off.
			*v.dst = *v.dst || parsed
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"ABUSE_LOOKBACK", &cfg.AbuseLookback},
		{"ABUSE_BUCKET", &cfg.AbuseBucket},
		{"ABUSE_SHORT_BAN", &cfg.AbuseShortBan},
		{"ABUSE_LONG_BAN", &cfg.AbuseLongBan},
		{"ABUSE_GRACE", &cfg.AbuseGrace},
		{"ABUSE_INTERVAL", &cfg.AbuseInterval},
	}
	for _, v := range durations {
		if raw, ok := os.LookupEnv(v.name); ok {
			if *v.dst, err = parseDurationEnv(v.name, raw); err != nil {
				return err
			}
		}
	}

	if raw, ok := os.LookupEnv("MAX_CONTENT_LENGTH_BYTES"); ok {
		size, err := humanize.ParseBytes(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid MAX_CONTENT_LENGTH_BYTES: %w", err)
		}
		cfg.MaxContentLengthBytes = int64(size)
	}

	if raw, ok := os.LookupEnv("DISALLOWED_METHODS"); ok {
		cfg.DisallowedMethods = ParseMethodList(raw)
	}

	return nil
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	nonNegative := map[string]int64{
		"REQUESTS_PER_CONTRIVED_ERROR": int64(c.RequestsPerContrivedError),
		"MAX_OPTIONS_PER_ELECTION":     int64(c.MaxOptionsPerElection),
		"MAX_RANKINGS_PER_ELECTION":    int64(c.MaxRankingsPerElection),
		"REQUEST_LOG_MAX_ROWS":         int64(c.RequestLogMaxRows),
	}
	for name, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, v)
		}
	}

	positive := map[string]int64{
		"MAX_LIMIT":                int64(c.MaxLimit),
		"MAX_CONTENT_LENGTH_BYTES": c.MaxContentLengthBytes,
		"ABUSE_THRESHOLD":          int64(c.AbuseThreshold),
		"ABUSE_LOOKBACK":           int64(c.AbuseLookback),
		"ABUSE_BUCKET":             int64(c.AbuseBucket),
		"ABUSE_SHORT_BAN":          int64(c.AbuseShortBan),
		"ABUSE_LONG_BAN":           int64(c.AbuseLongBan),
		"ABUSE_GRACE":              int64(c.AbuseGrace),
		"ABUSE_INTERVAL":           int64(c.AbuseInterval),
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}

	if c.AbuseBucket > c.AbuseLookback {
		return errors.New("ABUSE_BUCKET must not exceed ABUSE_LOOKBACK")
	}
	if c.AbuseLongBan < c.AbuseShortBan {
		return errors.New("ABUSE_LONG_BAN must be at least ABUSE_SHORT_BAN")
	}
	return nil
}

// ParseMethodList splits a comma separated method list, normalising case
// and dropping blanks.
func ParseMethodList(raw string) []string {
	methods := []string{}
	for _, m := range strings.Split(raw, ",") {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			methods = append(methods, m)
		}
	}
	return methods
}

func parseIntEnv(name, value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}

func parseBoolEnv(name, value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}

func parseDurationEnv(name, value string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}
