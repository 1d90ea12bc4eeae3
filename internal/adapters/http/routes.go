package web

import (
	"net/http"

	"meetdesk/internal/adapters/http/middleware"
)

// staff requires any signed-in account; admin additionally requires the admin role.
func staff(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

func admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(middleware.RequireAdmin(h))
}

func registerRoutes(mux *http.ServeMux) {
	// Public
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /api/csrf", handleCSRFToken)
	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)
	mux.HandleFunc("POST /api/activate", handleActivate)
	mux.HandleFunc("GET /api/branding", handleBranding)
	mux.HandleFunc("GET /api/public/program", handlePublicProgram)
	mux.HandleFunc("POST /api/public/requests", handleSubmitRequest)
	mux.HandleFunc("POST /api/public/requests/withdraw", handleWithdrawRequest)
	mux.HandleFunc("GET /api/certificates/verify", handleVerifyCertificate)
	mux.HandleFunc("GET /api/certificates/download", handleDownloadCertificate)

	// Own account
	mux.Handle("GET /api/me", staff(handleMe))
	mux.Handle("POST /api/me/password", staff(handleChangePassword))

	mux.Handle("GET /api/dashboard", staff(handleDashboard))

	// Departments and batches
	mux.Handle("GET /api/departments", staff(handleListDepartments))
	mux.Handle("POST /api/departments", staff(handleSaveDepartment))
	mux.Handle("PUT /api/departments/{id}", staff(handleSaveDepartment))
	mux.Handle("DELETE /api/departments/{id}", admin(handleDeleteDepartment))
	mux.Handle("GET /api/batches", staff(handleListBatches))
	mux.Handle("POST /api/batches", staff(handleSaveBatch))
	mux.Handle("PUT /api/batches/{id}", staff(handleSaveBatch))
	mux.Handle("DELETE /api/batches/{id}", admin(handleDeleteBatch))

	// Participants
	mux.Handle("GET /api/participants", staff(handleListParticipants))
	mux.Handle("POST /api/participants", staff(handleSaveParticipant))
	mux.Handle("POST /api/participants/import", staff(handleImportParticipants))
	mux.Handle("GET /api/participants/{id}", staff(handleGetParticipant))
	mux.Handle("PUT /api/participants/{id}", staff(handleSaveParticipant))
	mux.Handle("DELETE /api/participants/{id}", admin(handleDeleteParticipant))

	// Programs
	mux.Handle("GET /api/programs", staff(handleListPrograms))
	mux.Handle("POST /api/programs", staff(handleSaveProgram))
	mux.Handle("GET /api/programs/{id}", staff(handleGetProgram))
	mux.Handle("PUT /api/programs/{id}", staff(handleSaveProgram))
	mux.Handle("DELETE /api/programs/{id}", admin(handleDeleteProgram))
	mux.Handle("POST /api/programs/{id}/activate", staff(handleActivateProgram))
	mux.Handle("POST /api/programs/{id}/deactivate", staff(handleDeactivateProgram))
	mux.Handle("GET /api/programs/{id}/roster.csv", staff(handleExportProgramRoster))
	mux.Handle("POST /api/programs/{id}/sheets", staff(handleExportToSheets))

	// Events, rosters and results
	mux.Handle("POST /api/events", staff(handleSaveEvent))
	mux.Handle("GET /api/events/{id}", staff(handleGetEvent))
	mux.Handle("PUT /api/events/{id}", staff(handleSaveEvent))
	mux.Handle("DELETE /api/events/{id}", admin(handleDeleteEvent))
	mux.Handle("POST /api/events/{id}/roster", staff(handleAddToRoster))
	mux.Handle("DELETE /api/events/{id}/roster/{participant}", staff(handleRemoveFromRoster))
	mux.Handle("PUT /api/events/{id}/results/{participant}", staff(handleRecordResult))
	mux.Handle("GET /api/events/{id}/roster.csv", staff(handleExportEventRoster))
	mux.Handle("POST /api/events/{id}/certificates", staff(handleBulkIssueCertificates))

	// Teams
	mux.Handle("POST /api/teams", staff(handleSaveTeam))
	mux.Handle("PUT /api/teams/{id}", staff(handleSaveTeam))
	mux.Handle("DELETE /api/teams/{id}", staff(handleDeleteTeam))
	mux.Handle("PUT /api/teams/{id}/members/{participant}", staff(handleSetTeamMember))
	mux.Handle("DELETE /api/teams/{id}/members/{participant}", staff(handleSetTeamMember))

	// Requests
	mux.Handle("GET /api/requests", staff(handleListRequests))
	mux.Handle("POST /api/requests/bulk", staff(handleBulkDecide))
	mux.Handle("POST /api/requests/{id}/approve", staff(handleApproveRequest))
	mux.Handle("POST /api/requests/{id}/reject", staff(handleRejectRequest))

	// Certificates
	mux.Handle("GET /api/certificates", staff(handleListCertificates))
	mux.Handle("POST /api/certificates", staff(handleIssueCertificate))
	mux.Handle("POST /api/certificates/preview", staff(handlePreviewCertificate))
	mux.Handle("GET /api/certificates/{id}/pdf", staff(handleCertificatePDF))
	mux.Handle("POST /api/certificates/{id}/email", staff(handleEmailCertificate))
	mux.Handle("DELETE /api/certificates/{id}", admin(handleRevokeCertificate))

	// Admin
	mux.Handle("GET /api/staff", admin(handleListStaff))
	mux.Handle("POST /api/staff", admin(handleCreateStaff))
	mux.Handle("POST /api/staff/{id}/invitation", admin(handleResendInvitation))
	mux.Handle("PUT /api/staff/{id}/role", admin(handleChangeRole))
	mux.Handle("POST /api/staff/{id}/enable", admin(handleSetStaffEnabled))
	mux.Handle("POST /api/staff/{id}/disable", admin(handleSetStaffEnabled))
	mux.Handle("DELETE /api/staff/{id}", admin(handleDeleteStaff))
	mux.Handle("GET /api/settings", admin(handleGetSettings))
	mux.Handle("PUT /api/settings", admin(handleUpdateSettings))
	mux.Handle("POST /api/settings/assets/{kind}", admin(handleUploadAsset))
	mux.Handle("DELETE /api/settings/assets/{kind}", admin(handleDeleteAsset))
	mux.Handle("GET /api/outbox", admin(handleListOutbox))
	mux.Handle("POST /api/outbox/{id}/retry", admin(handleRetryOutbox))
	mux.Handle("POST /api/outbox/{id}/abandon", admin(handleAbandonOutbox))
	mux.Handle("GET /api/audit", admin(handleAuditLog))
	mux.Handle("GET /api/perf", admin(handlePerfSnapshot))
}
