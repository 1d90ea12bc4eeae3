package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Addr != ":8080" || c.DBPath != "meetdesk.db" || c.AssetBackend != AssetLocal {
		t.Errorf("defaults = %+v", c)
	}
	if c.SlowQuery != 50*time.Millisecond || c.SlowRequest != 200*time.Millisecond {
		t.Errorf("thresholds = %v, %v", c.SlowQuery, c.SlowRequest)
	}
	if c.LogLevel != slog.LevelInfo || c.OutboxSchedule != "@every 1m" {
		t.Errorf("level = %v, schedule = %q", c.LogLevel, c.OutboxSchedule)
	}
	if c.IsProduction() || c.SheetsEnabled() {
		t.Error("development defaults should not enable production or sheets")
	}
}

func TestFromEnv_Values(t *testing.T) {
	t.Setenv("MEETDESK_ENV", "production")
	t.Setenv("MEETDESK_CSRF_KEY", strings.Repeat("ab", 32))
	t.Setenv("MEETDESK_CERT_SECRET", strings.Repeat("s", 32))
	t.Setenv("MEETDESK_PUBLIC_URL", "https://meet.example.edu/")
	t.Setenv("MEETDESK_TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("MEETDESK_LOG_LEVEL", "debug")
	t.Setenv("MEETDESK_ASSET_BACKEND", "OSS")
	t.Setenv("MEETDESK_OSS_ENDPOINT", "oss-ap-southeast-1.aliyuncs.com")
	t.Setenv("MEETDESK_OSS_ACCESS_KEY_ID", "id")
	t.Setenv("MEETDESK_OSS_ACCESS_KEY_SECRET", "secret")
	t.Setenv("MEETDESK_OSS_BUCKET", "meet")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !c.IsProduction() || len(c.CSRFKey) != 32 || c.PublicURL != "https://meet.example.edu" {
		t.Errorf("config = %+v", c)
	}
	if c.TelegramChatID != -100123 || c.LogLevel != slog.LevelDebug || c.AssetBackend != AssetOSS {
		t.Errorf("chat = %d, level = %v, backend = %q", c.TelegramChatID, c.LogLevel, c.AssetBackend)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"production without csrf", map[string]string{"MEETDESK_ENV": "production"}, "CSRF_KEY"},
		{"production without cert secret", map[string]string{"MEETDESK_ENV": "production", "MEETDESK_CSRF_KEY": strings.Repeat("00", 32)}, "CERT_SECRET"},
		{"short csrf key", map[string]string{"MEETDESK_CSRF_KEY": "abcd"}, "64 hex"},
		{"short cert secret", map[string]string{"MEETDESK_CERT_SECRET": "short"}, "32 characters"},
		{"unknown backend", map[string]string{"MEETDESK_ASSET_BACKEND": "s3"}, "local, supabase or oss"},
		{"supabase without key", map[string]string{"MEETDESK_ASSET_BACKEND": "supabase", "MEETDESK_SUPABASE_URL": "https://x.supabase.co"}, "SUPABASE_SERVICE_KEY"},
		{"sheets half configured", map[string]string{"MEETDESK_SHEETS_CREDENTIALS": "sa.json"}, "set together"},
		{"bad log level", map[string]string{"MEETDESK_LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad rate limit", map[string]string{"MEETDESK_RATE_LIMIT": "-3"}, "RATE_LIMIT"},
		{"bad chat id", map[string]string{"MEETDESK_TELEGRAM_CHAT_ID": "team"}, "TELEGRAM_CHAT_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("FromEnv() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
