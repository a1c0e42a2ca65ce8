package util

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second
	defaultBodyLimit       = "12M"

	defaultAccessTTL  = 40 * time.Second
	defaultRefreshTTL = 7 * 24 * time.Hour

	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"

	defaultRateLimit     = 100
	defaultRateInterval  = 1 * time.Minute
	defaultRateBlockTime = 5 * time.Minute

	defaultDBDriver        = "postgres"
	defaultSessionJanitor  = 1 * time.Hour
	defaultS3Region        = "us-east-1"
	defaultThumbnailFolder = "newsapp/thumbnails"
)

var (
	ErrMissingSecret = errors.New("token secret is not set")
	ErrSharedSecret  = errors.New("access and refresh secrets must differ")
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	BodyLimit       string
	// TrustedProxies are the ranges allowed to set X-Forwarded-For. Empty
	// means the socket address is the client IP.
	TrustedProxies []*net.IPNet
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
		BodyLimit:       stringOrDefault("BODY_LIMIT", defaultBodyLimit),
		TrustedProxies:  parseCIDRList("TRUSTED_PROXIES"),
	}
}

// TokenConfig holds the signing material for both credential types.
// The two secrets are never interchangeable.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewTokenConfig() (*TokenConfig, error) {
	access := os.Getenv("ACCESS_TOKEN_SECRET")
	if access == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET: %w", ErrMissingSecret)
	}
	refresh := os.Getenv("REFRESH_TOKEN_SECRET")
	if refresh == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET: %w", ErrMissingSecret)
	}

	cfg := &TokenConfig{
		AccessSecret:  []byte(access),
		RefreshSecret: []byte(refresh),
		AccessTTL:     parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL:    parseDurationOrDefault("REFRESH_TOKEN_TTL", defaultRefreshTTL),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *TokenConfig) Validate() error {
	if len(c.AccessSecret) == 0 || len(c.RefreshSecret) == 0 {
		return ErrMissingSecret
	}
	if bytes.Equal(c.AccessSecret, c.RefreshSecret) {
		return ErrSharedSecret
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.RefreshTTL <= c.AccessTTL {
		return errors.New("REFRESH_TOKEN_TTL must be greater than ACCESS_TOKEN_TTL")
	}
	return nil
}

// AuthTransport selects where credentials travel on the wire.
type AuthTransport string

const (
	TransportCookie AuthTransport = "cookie"
	TransportHeader AuthTransport = "header"
	TransportBoth   AuthTransport = "both"
)

func (t AuthTransport) UsesCookies() bool { return t == TransportCookie || t == TransportBoth }

func (t AuthTransport) UsesHeaders() bool { return t == TransportHeader || t == TransportBoth }

type CookieConfig struct {
	AccessName    string
	RefreshName   string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	Path          string
	Secure        bool
	SameSite      http.SameSite
}

type AuthHTTPConfig struct {
	Transport    AuthTransport
	TokensInBody bool
	Cookies      CookieConfig
}

// NewAuthHTTPConfig reads the credential transport settings. The access cookie
// outlives the access token by default so an expired token still reaches the
// renewal path.
func NewAuthHTTPConfig(tc *TokenConfig) *AuthHTTPConfig {
	transport := AuthTransport(strings.ToLower(stringOrDefault("AUTH_TRANSPORT", string(TransportBoth))))
	switch transport {
	case TransportCookie, TransportHeader, TransportBoth:
	default:
		log.Printf("Invalid AUTH_TRANSPORT: %s, using %s", transport, TransportBoth)
		transport = TransportBoth
	}

	return &AuthHTTPConfig{
		Transport:    transport,
		TokensInBody: parseBoolOrDefault("TOKENS_IN_BODY", true),
		Cookies: CookieConfig{
			AccessName:    stringOrDefault("ACCESS_TOKEN_COOKIE_NAME", defaultAccessCookieName),
			RefreshName:   stringOrDefault("REFRESH_TOKEN_COOKIE_NAME", defaultRefreshCookieName),
			AccessMaxAge:  parseDurationOrDefault("ACCESS_TOKEN_COOKIE_MAX_AGE", tc.RefreshTTL),
			RefreshMaxAge: parseDurationOrDefault("REFRESH_TOKEN_COOKIE_MAX_AGE", tc.RefreshTTL),
			Path:          "/",
			Secure:        parseBoolOrDefault("COOKIE_SECURE", false),
			SameSite:      http.SameSiteLaxMode,
		},
	}
}

type RateLimiterConfig struct {
	Limit     int
	Interval  time.Duration
	BlockTime time.Duration
}

func NewRateLimiterConfig() *RateLimiterConfig {
	limitStr := os.Getenv("RATE_LIMIT_LIMIT")
	limit := defaultRateLimit
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		} else {
			log.Printf("Invalid RATE_LIMIT_LIMIT: %s, using default %d", limitStr, defaultRateLimit)
		}
	}

	interval := parsePositiveDurationOrDefault("RATE_LIMIT_INTERVAL", defaultRateInterval)
	blockTime := parsePositiveDurationOrDefault("RATE_LIMIT_BLOCK_TIME", defaultRateBlockTime)

	return &RateLimiterConfig{
		Limit:     limit,
		Interval:  interval,
		BlockTime: blockTime,
	}
}

type SessionConfig struct {
	JanitorInterval time.Duration
}

func NewSessionConfig() *SessionConfig {
	return &SessionConfig{
		JanitorInterval: parsePositiveDurationOrDefault("SESSION_JANITOR_INTERVAL", defaultSessionJanitor),
	}
}

// S3Config points at any S3-compatible bucket (AWS, MinIO).
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicURL    string
	Folder       string
	UsePathStyle bool
}

func NewS3Config() (*S3Config, error) {
	cfg := &S3Config{
		Endpoint:     os.Getenv("S3_ENDPOINT"),
		Region:       stringOrDefault("S3_REGION", defaultS3Region),
		Bucket:       os.Getenv("S3_BUCKET"),
		AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("S3_SECRET_KEY"),
		PublicURL:    strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		Folder:       stringOrDefault("S3_FOLDER", defaultThumbnailFolder),
		UsePathStyle: parseBoolOrDefault("S3_USE_PATH_STYLE", true),
	}
	if cfg.Bucket == "" {
		return nil, errors.New("S3_BUCKET is not set")
	}
	return cfg, nil
}

func GetWebhookURL() string {
	return os.Getenv("WEBHOOK_URL")
}

func GetLogLevel() string {
	return stringOrDefault("LOG_LEVEL", "info")
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}

func parsePositiveDurationOrDefault(varName string, def time.Duration) time.Duration {
	d := parseDurationOrDefault(varName, def)
	if d <= 0 {
		log.Printf("Non-positive duration in %s: %s, using default %s", varName, d, def)
		return def
	}
	return d
}

// parseCIDRList reads a comma separated list of CIDRs or bare IPs.
func parseCIDRList(varName string) []*net.IPNet {
	var nets []*net.IPNet
	for _, item := range strings.Split(os.Getenv(varName), ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			if ip := net.ParseIP(item); ip != nil && ip.To4() != nil {
				item += "/32"
			} else {
				item += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(item)
		if err != nil {
			log.Printf("Invalid entry in %s: %s, skipping", varName, item)
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func parseBoolOrDefault(varName string, def bool) bool {
	if v := os.Getenv(varName); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("Invalid bool in %s: %s, using default %t", varName, v, def)
	}
	return def
}

func stringOrDefault(varName, def string) string {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		return v
	}
	return def
}
