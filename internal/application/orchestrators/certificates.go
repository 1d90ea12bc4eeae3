package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"meetdesk/internal/adapters/assets"
	"meetdesk/internal/adapters/certpdf"
	certStore "meetdesk/internal/adapters/storage/certificate"
	eventStore "meetdesk/internal/adapters/storage/event"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/certificate"
	"meetdesk/internal/domain/event"
	"meetdesk/internal/domain/settings"
)

// RosterReader resolves events and their rosters.
type RosterReader interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Roster(ctx context.Context, eventID string) ([]eventStore.RosterRow, error)
}

// CertificateDeps holds dependencies for certificate issue and rendering.
type CertificateDeps struct {
	Store      certStore.Store
	Events     RosterReader
	Programs   ProgramLookup
	Settings   SettingsReader
	Assets     assets.Store
	Signer     *certpdf.Signer
	Audit      AuditSink
	Mailer     *Mailer
	GenerateID func() string
	Now        func() time.Time
}

// PreviewInput holds free-form certificate fields; nothing is stored.
type PreviewInput struct {
	ParticipantName string
	RegisterNo      string
	Department      string
	EventName       string
	ProgramName     string
	Kind            string
	Position        int
	Date            time.Time // zero prints today
}

// ExecutePreviewCertificate renders a sample PDF with the current branding and layout.
func ExecutePreviewCertificate(ctx context.Context, input PreviewInput, deps CertificateDeps) ([]byte, error) {
	f := certificate.Fields{
		ParticipantName: input.ParticipantName,
		RegisterNo:      input.RegisterNo,
		Department:      input.Department,
		EventName:       input.EventName,
		ProgramName:     input.ProgramName,
		Kind:            input.Kind,
		Position:        input.Position,
		Date:            input.Date,
		Serial:          "PREVIEW",
	}
	if f.Date.IsZero() {
		f.Date = certpdf.PreviewDate(deps.Now())
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	st, b, err := branding(ctx, deps)
	if err != nil {
		return nil, err
	}
	return certpdf.RenderBytes(f, st.CertificateLayout, b)
}

// IssueInput asks for one certificate.
type IssueInput struct {
	Actor         audit.Actor
	EventID       string
	ParticipantID string
	Kind          string
}

// ExecuteIssueCertificate issues a certificate for a rostered participant.
// PRE: participant is on the event roster; winners hold position 1-3
// POST: created=false when the same participant, event and kind already had one
func ExecuteIssueCertificate(ctx context.Context, input IssueInput, deps CertificateDeps) (certificate.Certificate, bool, error) {
	if input.Kind == "" {
		input.Kind = certificate.KindParticipation
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return certificate.Certificate{}, false, err
	}
	return issue(ctx, input.Actor, e, input.ParticipantID, input.Kind, deps)
}

// BulkIssueResult summarises a bulk issue.
type BulkIssueResult struct {
	Issued   int `json:"issued"`
	Existing int `json:"existing"`
}

// ExecuteBulkIssue gives every roster entry a participation certificate and
// every podium finisher a winner certificate.
// POST: re-running only counts Existing
func ExecuteBulkIssue(ctx context.Context, actor audit.Actor, eventID string, deps CertificateDeps) (BulkIssueResult, error) {
	e, err := deps.Events.GetByID(ctx, eventID)
	if err != nil {
		return BulkIssueResult{}, err
	}
	roster, err := deps.Events.Roster(ctx, eventID)
	if err != nil {
		return BulkIssueResult{}, err
	}
	if len(roster) == 0 {
		return BulkIssueResult{}, certificate.ErrNothingToIssue
	}
	var res BulkIssueResult
	for _, row := range roster {
		kinds := []string{certificate.KindParticipation}
		if row.Position >= 1 && row.Position <= event.MaxPosition {
			kinds = append(kinds, certificate.KindWinner)
		}
		for _, kind := range kinds {
			_, created, err := issue(ctx, actor, e, row.ParticipantID, kind, deps)
			if err != nil {
				return res, fmt.Errorf("issue %s for %s: %w", kind, row.RegisterNo, err)
			}
			if created {
				res.Issued++
			} else {
				res.Existing++
			}
		}
	}
	slog.Info("certificate_event", "event", "bulk_issued", "event_id", eventID, "issued", res.Issued, "existing", res.Existing)
	return res, nil
}

func issue(ctx context.Context, actor audit.Actor, e event.Event, participantID, kind string, deps CertificateDeps) (certificate.Certificate, bool, error) {
	if kind != certificate.KindParticipation && kind != certificate.KindWinner {
		return certificate.Certificate{}, false, certificate.ErrInvalidKind
	}
	prog, err := deps.Programs.GetByID(ctx, e.ProgramID)
	if err != nil {
		return certificate.Certificate{}, false, err
	}
	c := certificate.Certificate{
		ID:            deps.GenerateID(),
		ProgramID:     e.ProgramID,
		EventID:       e.ID,
		ParticipantID: participantID,
		Kind:          kind,
		IssuedAt:      deps.Now(),
		IssuedBy:      actor.ID,
	}
	c, created, err := deps.Store.Issue(ctx, c, prog.SerialPrefix(), prog.Year)
	if err != nil {
		return certificate.Certificate{}, false, err
	}
	if created {
		slog.Info("certificate_event", "event", "certificate_issued", "serial", c.Serial, "kind", kind,
			"participant_id", participantID, "event_id", e.ID)
		recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryCertificate, audit.ActionIssue, deps.Now()).
			WithResource("certificate", c.ID).
			WithDescription("issued "+c.Serial))
	}
	return c, created, nil
}

// RenderedCertificate is a PDF ready to send.
type RenderedCertificate struct {
	Filename string
	PDF      []byte
}

// ExecuteRenderCertificate renders an issued certificate with its verification link.
func ExecuteRenderCertificate(ctx context.Context, id string, deps CertificateDeps) (RenderedCertificate, error) {
	row, err := certificateRow(ctx, id, deps.Store)
	if err != nil {
		return RenderedCertificate{}, err
	}
	token, err := deps.Signer.Token(row.Certificate, deps.Now())
	if err != nil {
		return RenderedCertificate{}, err
	}
	st, b, err := branding(ctx, deps)
	if err != nil {
		return RenderedCertificate{}, err
	}
	f := certificate.Fields{
		ParticipantName: row.ParticipantName,
		RegisterNo:      row.RegisterNo,
		Department:      row.DepartmentName,
		EventName:       row.EventName,
		ProgramName:     row.ProgramName,
		Kind:            row.Kind,
		Position:        row.Position,
		Date:            row.IssuedAt,
		Serial:          row.Serial,
		VerifyURL:       deps.Signer.VerifyURL(token),
	}
	pdf, err := certpdf.RenderBytes(f, st.CertificateLayout, b)
	if err != nil {
		return RenderedCertificate{}, err
	}
	return RenderedCertificate{Filename: row.Serial + ".pdf", PDF: pdf}, nil
}

// ExecuteDownloadByToken renders the certificate a verification token points at.
func ExecuteDownloadByToken(ctx context.Context, token string, deps CertificateDeps) (RenderedCertificate, error) {
	v, err := ExecuteVerifyCertificate(ctx, token, deps)
	if err != nil {
		return RenderedCertificate{}, err
	}
	return ExecuteRenderCertificate(ctx, v.ID, deps)
}

// VerifiedCertificate is what the public verify endpoint discloses.
type VerifiedCertificate struct {
	ID              string    `json:"-"`
	Serial          string    `json:"serial"`
	ParticipantName string    `json:"participant_name"`
	Department      string    `json:"department"`
	EventName       string    `json:"event_name"`
	ProgramName     string    `json:"program_name"`
	Kind            string    `json:"kind"`
	Position        int       `json:"position,omitempty"`
	IssuedAt        time.Time `json:"issued_at"`
}

// ExecuteVerifyCertificate checks a token and returns the certificate facts.
// POST: a revoked certificate or a serial mismatch reads as an invalid token
func ExecuteVerifyCertificate(ctx context.Context, token string, deps CertificateDeps) (VerifiedCertificate, error) {
	claims, err := deps.Signer.Parse(token)
	if err != nil {
		return VerifiedCertificate{}, err
	}
	row, err := certificateRow(ctx, claims.Subject, deps.Store)
	if errors.Is(err, certificate.ErrNotFound) {
		return VerifiedCertificate{}, certificate.ErrInvalidToken
	}
	if err != nil {
		return VerifiedCertificate{}, err
	}
	if row.Serial != claims.Serial {
		return VerifiedCertificate{}, certificate.ErrInvalidToken
	}
	return VerifiedCertificate{
		ID:              row.ID,
		Serial:          row.Serial,
		ParticipantName: row.ParticipantName,
		Department:      row.DepartmentName,
		EventName:       row.EventName,
		ProgramName:     row.ProgramName,
		Kind:            row.Kind,
		Position:        row.Position,
		IssuedAt:        row.IssuedAt,
	}, nil
}

// ExecuteRevokeCertificate deletes a certificate; its tokens stop verifying.
func ExecuteRevokeCertificate(ctx context.Context, actor audit.Actor, id string, deps CertificateDeps) error {
	c, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.Store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("certificate_event", "event", "certificate_revoked", "serial", c.Serial)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryCertificate, audit.ActionDelete, deps.Now()).
		WithSeverity(audit.SeverityWarning).
		WithResource("certificate", id).
		WithDescription("revoked "+c.Serial))
	return nil
}

// ExecuteEmailCertificate queues an email with a tokenised download link.
func ExecuteEmailCertificate(ctx context.Context, actor audit.Actor, id string, deps CertificateDeps) error {
	row, err := certificateRow(ctx, id, deps.Store)
	if err != nil {
		return err
	}
	token, err := deps.Signer.Token(row.Certificate, deps.Now())
	if err != nil {
		return err
	}
	link := deps.Mailer.Link("/api/certificates/download?token=" + url.QueryEscape(token))
	subject, body := certificateMessage(deps.Mailer.MeetName(ctx), row.ParticipantName, row.EventName, link)
	deps.Mailer.Email(ctx, row.Email, subject, body)
	slog.Info("certificate_event", "event", "certificate_emailed", "serial", row.Serial, "by", actor.ID)
	return nil
}

// certificateRow loads a certificate with the names printed on it.
func certificateRow(ctx context.Context, id string, store certStore.Store) (certStore.Row, error) {
	c, err := store.GetByID(ctx, id)
	if err != nil {
		return certStore.Row{}, err
	}
	rows, err := store.List(ctx, certStore.ListFilter{EventID: c.EventID, ParticipantID: c.ParticipantID})
	if err != nil {
		return certStore.Row{}, err
	}
	for _, r := range rows {
		if r.ID == id {
			return r, nil
		}
	}
	return certStore.Row{}, certificate.ErrNotFound
}

// branding loads settings plus the template and signature images.
// A missing image object is logged and rendering continues without it.
func branding(ctx context.Context, deps CertificateDeps) (settings.Settings, certpdf.Branding, error) {
	st, err := deps.Settings.Get(ctx)
	if err != nil {
		return settings.Settings{}, certpdf.Branding{}, err
	}
	b := certpdf.Branding{
		MeetName:        st.MeetName,
		InstitutionName: st.InstitutionName,
		SignatoryName:   st.SignatoryName,
		SignatoryTitle:  st.SignatoryTitle,
	}
	b.Template = loadAsset(ctx, deps.Assets, st.CertificateTemplateKey)
	b.Signature = loadAsset(ctx, deps.Assets, st.SignatureKey)
	return st, b, nil
}

func loadAsset(ctx context.Context, store assets.Store, key string) []byte {
	if key == "" || store == nil {
		return nil
	}
	data, err := store.Open(ctx, key)
	if err != nil {
		slog.Warn("certificate_event", "event", "asset_load_failed", "key", key, "error", err)
		return nil
	}
	return data
}
