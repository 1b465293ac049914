package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/silverbridge/backend/internal/auth/kakao"
	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/jwtx"
)

// Revocation registry backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Issuer         string        // iss claim (default: silverbridge-auth)
	Audience       []string      // aud claim(s) (default: silverbridge-api)
	Algorithm      string        // HS256 or EdDSA (default: EdDSA)
	KeyID          string        // kid header (default: silverbridge-key-1)
	JWTSecret      string        // base64 HMAC secret, HS256 only
	PrivateKeyFile string        // PKCS8 Ed25519 PEM, EdDSA only; empty means ephemeral
	RetiredSecrets string        // kid:base64,... verify-only HS256 keys
	AccessTTL      time.Duration // default: 15m
	RefreshTTL     time.Duration // default: 168h
	TempTTL        time.Duration // social sign-up token lifetime (default: 5m)
	ClockLeeway    time.Duration // default: 0

	RevocationBackend    string        // sqlite, redis or memory (default: sqlite)
	FailOpen             bool          // accept refresh tokens while the registry is down (default: false)
	RegistryTimeout      time.Duration // default: 500ms
	AccountLookupTimeout time.Duration // default: 2s

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	DatabaseFile string // SQLite file (default: ./auth.db)
	PepperFile   string // password pepper (default: ./pepper)

	RequireSMSVerification bool          // join needs a verified phone (default: true)
	SMSCodeTTL             time.Duration // default: 3m
	SMSMaxAttempts         int           // default: 5

	KakaoAPIURL  string        // Kakao user API base URL (default: https://kapi.kakao.com)
	KakaoTimeout time.Duration // default: 5s

	TrustedProxies string // CIDRs whose X-Forwarded-For is believed (default: none)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 24h)

	// parseErrs are environment values LoadConfig could not parse.
	parseErrs []error
}

func LoadConfig() Config {
	var env envReader

	cfg := Config{
		Issuer:         env.str("AUTH_ISSUER", "silverbridge-auth"),
		Audience:       splitList(env.str("AUTH_AUDIENCE", "silverbridge-api")),
		Algorithm:      env.str("AUTH_ALGORITHM", jwtx.AlgorithmEdDSA),
		KeyID:          env.str("AUTH_KEY_ID", "silverbridge-key-1"),
		JWTSecret:      os.Getenv("AUTH_JWT_SECRET"),
		PrivateKeyFile: os.Getenv("AUTH_PRIVATE_KEY_FILE"),
		RetiredSecrets: os.Getenv("AUTH_RETIRED_SECRETS"),
		AccessTTL:      env.duration("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:     env.duration("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		TempTTL:        env.duration("AUTH_TEMP_TOKEN_TTL", jwtx.DefaultTempTokenTTL),
		ClockLeeway:    env.duration("AUTH_CLOCK_LEEWAY", 0),

		RevocationBackend:    env.str("AUTH_REVOCATION_BACKEND", BackendSQLite),
		FailOpen:             env.boolean("AUTH_REVOCATION_FAIL_OPEN", false),
		RegistryTimeout:      env.duration("AUTH_REGISTRY_TIMEOUT", service.DefaultRegistryTimeout),
		AccountLookupTimeout: env.duration("AUTH_ACCOUNT_LOOKUP_TIMEOUT", service.DefaultAccountLookupTimeout),

		RedisAddr:      env.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        env.integer("REDIS_DB", 0),
		RedisKeyPrefix: env.str("REDIS_KEY_PREFIX", revocation.DefaultRedisKeyPrefix),

		DatabaseFile: env.str("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   env.str("AUTH_PEPPER_FILE", "pepper"),

		RequireSMSVerification: env.boolean("SMS_REQUIRE_VERIFICATION", true),
		SMSCodeTTL:             env.duration("SMS_CODE_TTL", service.DefaultCodeTTL),
		SMSMaxAttempts:         env.integer("SMS_MAX_ATTEMPTS", service.DefaultMaxAttempts),

		KakaoAPIURL:  env.str("KAKAO_API_URL", kakao.DefaultBaseURL),
		KakaoTimeout: env.duration("KAKAO_TIMEOUT", kakao.DefaultTimeout),

		TrustedProxies: os.Getenv("AUTH_TRUSTED_PROXIES"),

		Env:                  env.str("ENV", "dev"),
		LogLevel:             env.str("LOG_LEVEL", "info"),
		LogFormat:            env.str("LOG_FORMAT", "json"),
		Port:                 env.integer("PORT", 8080),
		ShutdownGracePeriod:  env.duration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: env.duration("HOUSEKEEPING_INTERVAL", 24*time.Hour),
	}
	cfg.parseErrs = env.errs
	return cfg
}

// Validate reports every problem with cfg at once.
func (cfg Config) Validate() error {
	errs := append([]error(nil), cfg.parseErrs...)

	if cfg.Issuer == "" {
		errs = append(errs, errors.New("AUTH_ISSUER must not be empty"))
	}
	if len(cfg.Audience) == 0 {
		errs = append(errs, errors.New("AUTH_AUDIENCE must name at least one audience"))
	}
	if cfg.KeyID == "" {
		errs = append(errs, errors.New("AUTH_KEY_ID must not be empty"))
	}

	switch cfg.Algorithm {
	case jwtx.AlgorithmHS256:
		secret, err := cryptox.DecodeSecret(cfg.JWTSecret)
		switch {
		case cfg.JWTSecret == "":
			errs = append(errs, errors.New("AUTH_JWT_SECRET is required for HS256"))
		case err != nil:
			errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET: %w", err))
		case len(secret) < jwtx.MinHMACSecretSize:
			errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must decode to at least %d bytes", jwtx.MinHMACSecretSize))
		}
	case jwtx.AlgorithmEdDSA:
	default:
		errs = append(errs, fmt.Errorf("AUTH_ALGORITHM %q is not supported (HS256, EdDSA)", cfg.Algorithm))
	}

	if _, err := parseRetiredSecrets(cfg.RetiredSecrets); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_RETIRED_SECRETS: %w", err))
	}

	if err := service.ValidateTTLs(cfg.AccessTTL, cfg.RefreshTTL); err != nil {
		errs = append(errs, err)
	}
	if cfg.TempTTL <= 0 || cfg.TempTTL >= cfg.AccessTTL {
		errs = append(errs, fmt.Errorf("AUTH_TEMP_TOKEN_TTL %s must be positive and shorter than the access token lifetime", cfg.TempTTL))
	}
	if cfg.ClockLeeway < 0 {
		errs = append(errs, errors.New("AUTH_CLOCK_LEEWAY must not be negative"))
	}

	switch cfg.RevocationBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_REVOCATION_BACKEND %q is not supported (sqlite, redis, memory)", cfg.RevocationBackend))
	}
	if cfg.RegistryTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_REGISTRY_TIMEOUT must be positive"))
	}
	if cfg.AccountLookupTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_ACCOUNT_LOOKUP_TIMEOUT must be positive"))
	}

	if cfg.SMSCodeTTL <= 0 {
		errs = append(errs, errors.New("SMS_CODE_TTL must be positive"))
	}
	if cfg.SMSMaxAttempts <= 0 {
		errs = append(errs, errors.New("SMS_MAX_ATTEMPTS must be positive"))
	}
	if _, err := url.ParseRequestURI(cfg.KakaoAPIURL); err != nil {
		errs = append(errs, fmt.Errorf("KAKAO_API_URL: %w", err))
	}
	if cfg.KakaoTimeout <= 0 {
		errs = append(errs, errors.New("KAKAO_TIMEOUT must be positive"))
	}
	if _, err := httpx.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_TRUSTED_PROXIES: %w", err))
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", cfg.Port))
	}

	return errors.Join(errs...)
}

// envReader reads typed variables, keeping the default for unset ones.
// Values that do not parse also keep the default and are recorded so
// Validate can report them.
type envReader struct {
	errs []error
}

func (e *envReader) str(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) integer(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, value))
		return defaultValue
	}
	return n
}

func (e *envReader) boolean(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", key, value))
		return defaultValue
	}
	return b
}

// duration accepts Go durations ("90s", "1h") or a bare number of minutes.
func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	e.errs = append(e.errs, fmt.Errorf("%s: %q is not a duration", key, value))
	return defaultValue
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
