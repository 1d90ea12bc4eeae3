package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"meetdesk/internal/adapters/assets"
	"meetdesk/internal/adapters/certpdf"
	"meetdesk/internal/adapters/email"
	web "meetdesk/internal/adapters/http"
	"meetdesk/internal/adapters/http/perf"
	"meetdesk/internal/adapters/notify"
	"meetdesk/internal/adapters/sheets"
	"meetdesk/internal/adapters/storage"
	accountStore "meetdesk/internal/adapters/storage/account"
	auditStore "meetdesk/internal/adapters/storage/audit"
	certStore "meetdesk/internal/adapters/storage/certificate"
	eventStore "meetdesk/internal/adapters/storage/event"
	outboxStore "meetdesk/internal/adapters/storage/outbox"
	participantStore "meetdesk/internal/adapters/storage/participant"
	programStore "meetdesk/internal/adapters/storage/program"
	requestStore "meetdesk/internal/adapters/storage/request"
	resourceStore "meetdesk/internal/adapters/storage/resource"
	settingsStore "meetdesk/internal/adapters/storage/settings"
	teamStore "meetdesk/internal/adapters/storage/team"
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/config"
	"meetdesk/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("startup_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}

	// every store goes through the timing wrapper so /api/perf sees queries
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector).WithThreshold(cfg.SlowQuery)

	stores := &web.Stores{
		Accounts:     accountStore.NewSQLiteStore(timedDB),
		Resources:    resourceStore.NewSQLiteStore(timedDB),
		Participants: participantStore.NewSQLiteStore(timedDB),
		Programs:     programStore.NewSQLiteStore(timedDB),
		Events:       eventStore.NewSQLiteStore(timedDB),
		Teams:        teamStore.NewSQLiteStore(timedDB),
		Requests:     requestStore.NewSQLiteStore(timedDB),
		Settings:     settingsStore.NewSQLiteStore(timedDB),
		Certificates: certStore.NewSQLiteStore(timedDB),
		Outbox:       outboxStore.NewSQLiteStore(timedDB),
		Audit:        auditStore.NewSQLiteStore(timedDB),
	}

	ctx := context.Background()
	seedDeps := orchestrators.StaffDeps{
		AccountStore: stores.Accounts,
		Audit:        stores.Audit,
		GenerateID:   uuid.NewString,
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	assetStore, err := newAssetStore(cfg)
	if err != nil {
		return err
	}

	certSecret := cfg.CertSecret
	if certSecret == nil {
		certSecret = make([]byte, 32)
		rand.Read(certSecret)
		slog.Warn("certificate_event", "event", "random_secret", "detail", "set MEETDESK_CERT_SECRET so certificate links survive restarts")
	}

	var sheetsWriter sheets.Writer
	if cfg.SheetsEnabled() {
		client, err := sheets.New(ctx, cfg.SheetsCredentials, cfg.SheetsSpreadsheetID)
		if err != nil {
			return err
		}
		sheetsWriter = client
		slog.Info("export_event", "event", "sheets_configured", "spreadsheet_id", client.SpreadsheetID())
	}

	processor := orchestrators.NewOutboxProcessor(stores.Outbox, map[string]orchestrators.ActionExecutor{
		outbox.ChannelEmail:    &orchestrators.EmailExecutor{Sender: newEmailSender(cfg), From: cfg.EmailFrom, ReplyTo: cfg.ReplyTo},
		outbox.ChannelTelegram: &orchestrators.TelegramExecutor{Notifier: newNotifier(cfg)},
	}, stores.Audit, time.Now)
	scheduler, err := orchestrators.StartOutboxScheduler(processor, cfg.OutboxSchedule)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	assetDir := ""
	if local, ok := assetStore.(*assets.LocalStore); ok {
		assetDir = local.Dir()
	}
	handler := web.NewMux(stores, web.Services{
		Assets:    assetStore,
		Signer:    certpdf.NewSigner(certSecret, cfg.PublicURL),
		Sheets:    sheetsWriter,
		Processor: processor,
		PublicURL: cfg.PublicURL,
		Ping:      timedDB.PingContext,
	}, web.Options{
		Production:  cfg.IsProduction(),
		CSRFKey:     cfg.CSRFKey,
		RateLimit:   cfg.RateLimit,
		SlowRequest: cfg.SlowRequest,
		AssetDir:    assetDir,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_started", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"schema", storage.LatestSchemaVersion(), "assets", cfg.AssetBackend, "sheets", cfg.SheetsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	<-scheduler.Stop().Done()
	return srv.Shutdown(shutdownCtx)
}

func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func newEmailSender(cfg config.Config) email.Sender {
	if cfg.ResendKey != "" {
		slog.Info("email_event", "event", "sender_configured", "provider", "resend")
		return email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
	}
	if cfg.IsProduction() {
		slog.Warn("email_event", "event", "sender_disabled", "detail", "MEETDESK_RESEND_KEY is not set; emails are logged, not sent")
	}
	return email.NewNoopSender()
}

func newNotifier(cfg config.Config) notify.Notifier {
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		n, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err == nil {
			slog.Info("notify_event", "event", "notifier_configured", "provider", "telegram")
			return n
		}
		slog.Error("notify_event", "event", "telegram_unavailable", "error", err)
	}
	return notify.NewNoopNotifier()
}

func newAssetStore(cfg config.Config) (assets.Store, error) {
	switch cfg.AssetBackend {
	case config.AssetSupabase:
		return assets.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket), nil
	case config.AssetOSS:
		return assets.NewOSSStore(cfg.OSSEndpoint, cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret, cfg.OSSBucket, cfg.OSSPublicBase)
	default:
		return assets.NewLocalStore(cfg.AssetDir, cfg.PublicURL+"/assets")
	}
}
