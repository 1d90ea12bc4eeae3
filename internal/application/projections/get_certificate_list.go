package projections

import (
	"context"
	"time"

	certStore "meetdesk/internal/adapters/storage/certificate"
	"meetdesk/internal/application/listutil"
)

// CertificateFilterKeys are the query parameters the certificate list filters on.
var CertificateFilterKeys = []string{"program", "event", "participant"}

// CertificateView is an issued certificate with the names printed on it.
type CertificateView struct {
	ID              string    `json:"id"`
	Serial          string    `json:"serial"`
	Kind            string    `json:"kind"`
	Position        int       `json:"position,omitempty"`
	ProgramID       string    `json:"program_id"`
	ProgramName     string    `json:"program"`
	EventID         string    `json:"event_id"`
	EventName       string    `json:"event"`
	ParticipantID   string    `json:"participant_id"`
	ParticipantName string    `json:"participant"`
	RegisterNo      string    `json:"register_no"`
	DepartmentName  string    `json:"department"`
	IssuedAt        time.Time `json:"issued_at"`
	IssuedBy        string    `json:"issued_by"`
}

// GetCertificateListResult is one page of certificates in serial order.
type GetCertificateListResult struct {
	Certificates []CertificateView `json:"certificates"`
	Page         listutil.Page     `json:"page"`
}

// QueryGetCertificateList returns a page of issued certificates.
func QueryGetCertificateList(ctx context.Context, params listutil.Params, store CertificateLister) (GetCertificateListResult, error) {
	f := certStore.ListFilter{
		ProgramID:     params.Filters["program"],
		EventID:       params.Filters["event"],
		ParticipantID: params.Filters["participant"],
	}
	total, err := store.Count(ctx, f)
	if err != nil {
		return GetCertificateListResult{}, err
	}
	page := listutil.NewPage(params, total)
	f.Limit = page.PerPage
	f.Offset = (page.Page - 1) * page.PerPage

	rows, err := store.List(ctx, f)
	if err != nil {
		return GetCertificateListResult{}, err
	}
	res := GetCertificateListResult{Certificates: make([]CertificateView, 0, len(rows)), Page: page}
	for _, r := range rows {
		res.Certificates = append(res.Certificates, CertificateView{
			ID: r.ID, Serial: r.Serial, Kind: r.Kind, Position: r.Position,
			ProgramID: r.ProgramID, ProgramName: r.ProgramName, EventID: r.EventID, EventName: r.EventName,
			ParticipantID: r.ParticipantID, ParticipantName: r.ParticipantName, RegisterNo: r.RegisterNo,
			DepartmentName: r.DepartmentName, IssuedAt: r.IssuedAt, IssuedBy: r.IssuedBy,
		})
	}
	return res, nil
}
