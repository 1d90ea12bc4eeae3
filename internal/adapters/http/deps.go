package web

import (
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/application/projections"
)

// Orchestrator dependencies are assembled per request from the globals so
// tests can swap stores between cases.

func staffDeps() orchestrators.StaffDeps {
	return orchestrators.StaffDeps{
		AccountStore: stores.Accounts,
		Audit:        stores.Audit,
		Mailer:       mailer,
		GenerateID:   generateID,
		Now:          timeNow,
	}
}

func resourceDeps() orchestrators.ResourceDeps {
	return orchestrators.ResourceDeps{
		Store:      stores.Resources,
		Audit:      stores.Audit,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

func participantDeps() orchestrators.ParticipantDeps {
	return orchestrators.ParticipantDeps{
		Store:      stores.Participants,
		Resources:  stores.Resources,
		Audit:      stores.Audit,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

func programDeps() orchestrators.ProgramDeps {
	return orchestrators.ProgramDeps{
		Store:      stores.Programs,
		Audit:      stores.Audit,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

func eventDeps() orchestrators.EventDeps {
	return orchestrators.EventDeps{
		Store:      stores.Events,
		Programs:   stores.Programs,
		Audit:      stores.Audit,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

func teamDeps() orchestrators.TeamDeps {
	return orchestrators.TeamDeps{
		Store:      stores.Teams,
		Events:     stores.Events,
		Audit:      stores.Audit,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

func requestDeps() orchestrators.RequestDeps {
	return orchestrators.RequestDeps{
		Store:        stores.Requests,
		Participants: stores.Participants,
		Events:       stores.Events,
		Programs:     stores.Programs,
		Settings:     stores.Settings,
		Audit:        stores.Audit,
		Mailer:       mailer,
		GenerateID:   generateID,
		Now:          timeNow,
	}
}

func settingsDeps() orchestrators.SettingsDeps {
	return orchestrators.SettingsDeps{
		Store:  stores.Settings,
		Assets: services.Assets,
		Audit:  stores.Audit,
		Now:    timeNow,
	}
}

func certificateDeps() orchestrators.CertificateDeps {
	return orchestrators.CertificateDeps{
		Store:      stores.Certificates,
		Events:     stores.Events,
		Programs:   stores.Programs,
		Settings:   stores.Settings,
		Assets:     services.Assets,
		Signer:     services.Signer,
		Audit:      stores.Audit,
		Mailer:     mailer,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

func exportDeps() orchestrators.ExportDeps {
	return orchestrators.ExportDeps{
		Events:   stores.Events,
		Programs: stores.Programs,
		Sheets:   services.Sheets,
		Audit:    stores.Audit,
		Now:      timeNow,
	}
}

func programDetailDeps() projections.GetProgramDetailDeps {
	return projections.GetProgramDetailDeps{Programs: stores.Programs, Events: stores.Events}
}
