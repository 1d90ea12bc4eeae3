package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"meetdesk/internal/adapters/assets"
	"meetdesk/internal/adapters/certpdf"
	"meetdesk/internal/adapters/http/middleware"
	"meetdesk/internal/adapters/http/perf"
	"meetdesk/internal/adapters/sheets"
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
)

// Stores holds all storage dependencies.
type Stores struct {
	Accounts     accountStore.Store
	Resources    resourceStore.Store
	Participants participantStore.Store
	Programs     programStore.Store
	Events       eventStore.Store
	Teams        teamStore.Store
	Requests     requestStore.Store
	Settings     settingsStore.Store
	Certificates certStore.Store
	Outbox       outboxStore.Store
	Audit        auditStore.Store
}

// Services holds the adapters and workers handlers call into.
type Services struct {
	Assets    assets.Store
	Signer    *certpdf.Signer
	Sheets    sheets.Writer // nil when Sheets is not configured
	Processor *orchestrators.OutboxProcessor
	PublicURL string
	Ping      func(ctx context.Context) error // nil skips the database check in /healthz
}

// Options configures the middleware chain.
type Options struct {
	Production  bool
	CSRFKey     []byte // nil generates a key per process
	RateLimit   int    // requests per minute per IP; 0 disables
	SlowRequest time.Duration
	AssetDir    string // served under /assets/ when non-empty
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global services (set by NewMux)
var services Services

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// mailer queues participant emails and staff alerts (set by NewMux)
var mailer *orchestrators.Mailer

var (
	generateID = uuid.NewString
	timeNow    = time.Now
)

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, svc Services, opts Options, collector *perf.Collector) http.Handler {
	stores = s
	services = svc
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.Production
	mailer = &orchestrators.Mailer{
		Outbox:     s.Outbox,
		Settings:   s.Settings,
		PublicURL:  svc.PublicURL,
		GenerateID: generateID,
		Now:        timeNow,
	}

	mux := http.NewServeMux()
	registerRoutes(mux)
	if opts.AssetDir != "" {
		mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(opts.AssetDir))))
	}

	csrfKey := opts.CSRFKey
	if csrfKey == nil {
		csrfKey = make([]byte, 32)
		rand.Read(csrfKey)
		slog.Warn("csrf_event", "event", "random_key", "detail", "set MEETDESK_CSRF_KEY so tokens survive restarts")
	}

	var limiter *middleware.RateLimiter
	if opts.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(opts.RateLimit, time.Minute)
	}

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, opts.Production, trustedOrigins(svc.PublicURL)),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequest),
	)
}

// trustedOrigins lets the configured public host submit forms through a proxy.
func trustedOrigins(publicURL string) []string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
