// Package config reads meetdesk settings from the environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Asset backends
const (
	AssetLocal    = "local"
	AssetSupabase = "supabase"
	AssetOSS      = "oss"
)

// Config holds every MEETDESK_* setting.
type Config struct {
	Env           string
	Addr          string
	DBPath        string
	PublicURL     string
	AdminEmail    string
	AdminPassword string
	CSRFKey       []byte
	CertSecret    []byte
	LogLevel      slog.Level

	ResendKey string
	EmailFrom string
	ReplyTo   string

	TelegramToken  string
	TelegramChatID int64

	SheetsCredentials   string
	SheetsSpreadsheetID string

	AssetBackend       string
	AssetDir           string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string
	OSSEndpoint        string
	OSSAccessKeyID     string
	OSSAccessKeySecret string
	OSSBucket          string
	OSSPublicBase      string

	OutboxSchedule string
	SlowQuery      time.Duration
	SlowRequest    time.Duration
	RateLimit      int // requests per minute per IP; 0 disables
}

// IsProduction reports whether MEETDESK_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SheetsEnabled reports whether roster export to Google Sheets is configured.
func (c Config) SheetsEnabled() bool {
	return c.SheetsCredentials != "" && c.SheetsSpreadsheetID != ""
}

// Load reads a .env file if one exists, then calls FromEnv.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
// POST: defaults applied; production requires CSRF_KEY and CERT_SECRET
func FromEnv() (Config, error) {
	c := Config{
		Env:                 get("ENV", "development"),
		Addr:                get("ADDR", ":8080"),
		DBPath:              get("DB_PATH", "meetdesk.db"),
		PublicURL:           strings.TrimRight(get("PUBLIC_URL", "http://localhost:8080"), "/"),
		AdminEmail:          get("ADMIN_EMAIL", "admin@meetdesk.local"),
		AdminPassword:       get("ADMIN_PASSWORD", ""),
		ResendKey:           get("RESEND_KEY", ""),
		EmailFrom:           get("EMAIL_FROM", "Meet Desk <noreply@meetdesk.local>"),
		ReplyTo:             get("REPLY_TO", ""),
		TelegramToken:       get("TELEGRAM_TOKEN", ""),
		SheetsCredentials:   get("SHEETS_CREDENTIALS", ""),
		SheetsSpreadsheetID: get("SHEETS_SPREADSHEET_ID", ""),
		AssetBackend:        strings.ToLower(get("ASSET_BACKEND", AssetLocal)),
		AssetDir:            get("ASSET_DIR", "assets"),
		SupabaseURL:         strings.TrimRight(get("SUPABASE_URL", ""), "/"),
		SupabaseServiceKey:  get("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:      get("SUPABASE_BUCKET", "meetdesk"),
		OSSEndpoint:         get("OSS_ENDPOINT", ""),
		OSSAccessKeyID:      get("OSS_ACCESS_KEY_ID", ""),
		OSSAccessKeySecret:  get("OSS_ACCESS_KEY_SECRET", ""),
		OSSBucket:           get("OSS_BUCKET", ""),
		OSSPublicBase:       strings.TrimRight(get("OSS_PUBLIC_BASE", ""), "/"),
		OutboxSchedule:      get("OUTBOX_SCHEDULE", "@every 1m"),
	}

	var err error
	if c.LogLevel, err = parseLevel(get("LOG_LEVEL", "info")); err != nil {
		return c, err
	}
	if c.SlowQuery, err = millis("SLOW_QUERY_MS", 50); err != nil {
		return c, err
	}
	if c.SlowRequest, err = millis("SLOW_REQUEST_MS", 200); err != nil {
		return c, err
	}
	if c.RateLimit, err = integer("RATE_LIMIT", 120); err != nil {
		return c, err
	}
	if raw := get("TELEGRAM_CHAT_ID", ""); raw != "" {
		if c.TelegramChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return c, fmt.Errorf("MEETDESK_TELEGRAM_CHAT_ID: %w", err)
		}
	}
	if raw := get("CSRF_KEY", ""); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil || len(key) != 32 {
			return c, errors.New("MEETDESK_CSRF_KEY must be 64 hex characters")
		}
		c.CSRFKey = key
	}
	if raw := get("CERT_SECRET", ""); raw != "" {
		if len(raw) < 32 {
			return c, errors.New("MEETDESK_CERT_SECRET must be at least 32 characters")
		}
		c.CertSecret = []byte(raw)
	}

	return c, c.validate()
}

func (c Config) validate() error {
	if c.IsProduction() {
		if c.CSRFKey == nil {
			return errors.New("MEETDESK_CSRF_KEY is required in production")
		}
		if c.CertSecret == nil {
			return errors.New("MEETDESK_CERT_SECRET is required in production")
		}
	}
	switch c.AssetBackend {
	case AssetLocal:
		if c.AssetDir == "" {
			return errors.New("MEETDESK_ASSET_DIR is empty")
		}
	case AssetSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return errors.New("supabase assets need MEETDESK_SUPABASE_URL and MEETDESK_SUPABASE_SERVICE_KEY")
		}
	case AssetOSS:
		if c.OSSEndpoint == "" || c.OSSAccessKeyID == "" || c.OSSAccessKeySecret == "" || c.OSSBucket == "" {
			return errors.New("oss assets need MEETDESK_OSS_ENDPOINT, MEETDESK_OSS_ACCESS_KEY_ID, MEETDESK_OSS_ACCESS_KEY_SECRET and MEETDESK_OSS_BUCKET")
		}
	default:
		return fmt.Errorf("MEETDESK_ASSET_BACKEND %q must be local, supabase or oss", c.AssetBackend)
	}
	if (c.SheetsCredentials == "") != (c.SheetsSpreadsheetID == "") {
		return errors.New("MEETDESK_SHEETS_CREDENTIALS and MEETDESK_SHEETS_SPREADSHEET_ID must be set together")
	}
	return nil
}

func get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv("MEETDESK_" + key)); v != "" {
		return v
	}
	return fallback
}

func integer(key string, fallback int) (int, error) {
	raw := get(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("MEETDESK_%s must be a non-negative integer", key)
	}
	return n, nil
}

func millis(key string, fallback int) (time.Duration, error) {
	n, err := integer(key, fallback)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		n = fallback
	}
	return time.Duration(n) * time.Millisecond, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("MEETDESK_LOG_LEVEL: %w", err)
	}
	return l, nil
}
