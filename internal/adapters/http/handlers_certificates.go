package web

import (
	"fmt"
	"net/http"
	"time"

	"meetdesk/internal/application/listutil"
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/application/projections"
	"meetdesk/internal/domain/certificate"
	"meetdesk/internal/domain/domainerr"
)

type issuedView struct {
	ID            string    `json:"id"`
	Serial        string    `json:"serial"`
	EventID       string    `json:"event_id"`
	ParticipantID string    `json:"participant_id"`
	Kind          string    `json:"kind"`
	Position      int       `json:"position,omitempty"`
	IssuedAt      time.Time `json:"issued_at"`
	Created       bool      `json:"created"`
}

// handleListCertificates handles GET /api/certificates?program=&event=&participant=
func handleListCertificates(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), nil, projections.CertificateFilterKeys)
	result, err := projections.QueryGetCertificateList(r.Context(), params, stores.Certificates)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type issueRequest struct {
	EventID       string `json:"event_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
	Kind          string `json:"kind" validate:"required,oneof=participation winner"`
}

// handleIssueCertificate handles POST /api/certificates. Issuing twice returns
// the existing certificate with 200 instead of 201.
func handleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, created, err := orchestrators.ExecuteIssueCertificate(r.Context(), orchestrators.IssueInput{
		Actor:         actorFrom(r),
		EventID:       req.EventID,
		ParticipantID: req.ParticipantID,
		Kind:          req.Kind,
	}, certificateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toIssuedView(c, created))
}

func toIssuedView(c certificate.Certificate, created bool) issuedView {
	return issuedView{
		ID:            c.ID,
		Serial:        c.Serial,
		EventID:       c.EventID,
		ParticipantID: c.ParticipantID,
		Kind:          c.Kind,
		Position:      c.Position,
		IssuedAt:      c.IssuedAt,
		Created:       created,
	}
}

// handleBulkIssueCertificates handles POST /api/events/{id}/certificates
func handleBulkIssueCertificates(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteBulkIssue(r.Context(), actorFrom(r), r.PathValue("id"), certificateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type previewRequest struct {
	ParticipantName string `json:"participant_name" validate:"required"`
	RegisterNo      string `json:"register_no"`
	Department      string `json:"department"`
	EventName       string `json:"event_name"`
	ProgramName     string `json:"program_name"`
	Kind            string `json:"kind" validate:"omitempty,oneof=participation winner"`
	Position        int    `json:"position" validate:"min=0,max=3"`
	Date            string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// handlePreviewCertificate handles POST /api/certificates/preview. Nothing is stored.
func handlePreviewCertificate(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	input := orchestrators.PreviewInput{
		ParticipantName: req.ParticipantName,
		RegisterNo:      req.RegisterNo,
		Department:      req.Department,
		EventName:       req.EventName,
		ProgramName:     req.ProgramName,
		Kind:            req.Kind,
		Position:        req.Position,
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, domainerr.Invalid("date must be YYYY-MM-DD"))
			return
		}
		input.Date = d
	}
	pdf, err := orchestrators.ExecutePreviewCertificate(r.Context(), input, certificateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writePDF(w, "preview.pdf", pdf, true)
}

// handleCertificatePDF handles GET /api/certificates/{id}/pdf
func handleCertificatePDF(w http.ResponseWriter, r *http.Request) {
	rc, err := orchestrators.ExecuteRenderCertificate(r.Context(), r.PathValue("id"), certificateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writePDF(w, rc.Filename, rc.PDF, false)
}

// handleEmailCertificate handles POST /api/certificates/{id}/email
func handleEmailCertificate(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteEmailCertificate(r.Context(), actorFrom(r), r.PathValue("id"), certificateDeps()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleRevokeCertificate handles DELETE /api/certificates/{id}
func handleRevokeCertificate(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteRevokeCertificate(r.Context(), actorFrom(r), r.PathValue("id"), certificateDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVerifyCertificate handles GET /api/certificates/verify?token=
func handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	v, err := orchestrators.ExecuteVerifyCertificate(r.Context(), r.URL.Query().Get("token"), certificateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleDownloadCertificate handles GET /api/certificates/download?token=, the emailed link.
func handleDownloadCertificate(w http.ResponseWriter, r *http.Request) {
	rc, err := orchestrators.ExecuteDownloadByToken(r.Context(), r.URL.Query().Get("token"), certificateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writePDF(w, rc.Filename, rc.PDF, false)
}

func writePDF(w http.ResponseWriter, filename string, pdf []byte, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(pdf)
}
