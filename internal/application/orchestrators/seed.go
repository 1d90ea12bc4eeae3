package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/participant"
	"meetdesk/internal/domain/program"
	"meetdesk/internal/domain/resource"
)

// SeedFile is the YAML document accepted by ExecuteSeed.
type SeedFile struct {
	Departments []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"departments"`
	Batches []struct {
		Name      string `yaml:"name"`
		StartYear int    `yaml:"start_year"`
		EndYear   int    `yaml:"end_year"`
	} `yaml:"batches"`
	Programs     []SeedProgram     `yaml:"programs"`
	Participants []SeedParticipant `yaml:"participants"`
}

// SeedProgram is a program with its events.
type SeedProgram struct {
	Name        string      `yaml:"name"`
	Slug        string      `yaml:"slug"`
	Year        int         `yaml:"year"`
	Venue       string      `yaml:"venue"`
	StartDate   string      `yaml:"start_date"`
	EndDate     string      `yaml:"end_date"`
	Description string      `yaml:"description"`
	Active      bool        `yaml:"active"`
	Events      []SeedEvent `yaml:"events"`
}

// SeedEvent is one event of a seeded program.
type SeedEvent struct {
	Name             string `yaml:"name"`
	Category         string `yaml:"category"`
	Gender           string `yaml:"gender"`
	Kind             string `yaml:"kind"`
	Capacity         int    `yaml:"capacity"`
	MaxPerDepartment int    `yaml:"max_per_department"`
	Venue            string `yaml:"venue"`
	ScheduledAt      string `yaml:"scheduled_at"` // "2006-01-02 15:04" UTC or RFC 3339
	RegistrationOpen bool   `yaml:"registration_open"`
}

// SeedParticipant references its department by code and batch by name.
type SeedParticipant struct {
	RegisterNo string `yaml:"register_no"`
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Phone      string `yaml:"phone"`
	Gender     string `yaml:"gender"`
	Department string `yaml:"department"`
	Batch      string `yaml:"batch"`
}

// SeedDeps bundles the dependencies of the orchestrators the seed drives.
type SeedDeps struct {
	Resources    ResourceDeps
	Programs     ProgramDeps
	Events       EventDeps
	Participants ParticipantDeps
}

// SeedResult counts rows created; existing rows are skipped.
type SeedResult struct {
	Departments  int `json:"departments"`
	Batches      int `json:"batches"`
	Programs     int `json:"programs"`
	Events       int `json:"events"`
	Participants int `json:"participants"`
	Skipped      int `json:"skipped"`
}

var systemActor = audit.Actor{ID: "system", Role: "system"}

// ExecuteSeed loads a YAML seed file. Running it twice creates nothing new.
// PRE: r holds a SeedFile; unknown keys are rejected
// POST: departments, batches, programs with events, then participants are created in that order
func ExecuteSeed(ctx context.Context, r io.Reader, deps SeedDeps) (SeedResult, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return SeedResult{}, fmt.Errorf("parse seed file: %w", err)
	}

	var res SeedResult
	for _, d := range f.Departments {
		_, err := ExecuteSaveDepartment(ctx, DepartmentInput{Actor: systemActor, Code: d.Code, Name: d.Name}, deps.Resources)
		if created, err := seeded(err, resource.ErrDuplicateCode); err != nil {
			return res, fmt.Errorf("department %s: %w", d.Code, err)
		} else if created {
			res.Departments++
		} else {
			res.Skipped++
		}
	}
	for _, b := range f.Batches {
		_, err := ExecuteSaveBatch(ctx, BatchInput{Actor: systemActor, Name: b.Name, StartYear: b.StartYear, EndYear: b.EndYear}, deps.Resources)
		if created, err := seeded(err, resource.ErrDuplicateBatch); err != nil {
			return res, fmt.Errorf("batch %s: %w", b.Name, err)
		} else if created {
			res.Batches++
		} else {
			res.Skipped++
		}
	}

	if err := seedPrograms(ctx, f.Programs, deps, &res); err != nil {
		return res, err
	}

	for _, sp := range f.Participants {
		dept, err := deps.Resources.Store.GetDepartmentByCode(ctx, sp.Department)
		if err != nil {
			return res, fmt.Errorf("participant %s: department %q: %w", sp.RegisterNo, sp.Department, err)
		}
		batch, err := deps.Resources.Store.GetBatchByName(ctx, sp.Batch)
		if err != nil {
			return res, fmt.Errorf("participant %s: batch %q: %w", sp.RegisterNo, sp.Batch, err)
		}
		_, err = ExecuteSaveParticipant(ctx, ParticipantInput{
			Actor: systemActor, RegisterNo: sp.RegisterNo, Name: sp.Name, Email: sp.Email, Phone: sp.Phone,
			Gender: sp.Gender, DepartmentID: dept.ID, BatchID: batch.ID,
		}, deps.Participants)
		if created, err := seeded(err, participant.ErrDuplicateRegister); err != nil {
			return res, fmt.Errorf("participant %s: %w", sp.RegisterNo, err)
		} else if created {
			res.Participants++
		} else {
			res.Skipped++
		}
	}

	slog.Info("seed_event", "event", "seed_applied", "departments", res.Departments, "batches", res.Batches,
		"programs", res.Programs, "events", res.Events, "participants", res.Participants, "skipped", res.Skipped)
	return res, nil
}

// seedPrograms creates programs that do not exist yet, with their events.
// Events of an existing program are left alone.
func seedPrograms(ctx context.Context, programs []SeedProgram, deps SeedDeps, res *SeedResult) error {
	existing, err := deps.Programs.Store.List(ctx)
	if err != nil {
		return err
	}
	slugs := make(map[string]bool, len(existing))
	for _, p := range existing {
		slugs[p.Slug] = true
	}

	for _, sp := range programs {
		key := program.Program{Name: sp.Name, Slug: sp.Slug}
		key.Normalize()
		if slugs[key.Slug] {
			res.Skipped++
			continue
		}
		p, err := ExecuteSaveProgram(ctx, ProgramInput{
			Actor: systemActor, Name: sp.Name, Slug: sp.Slug, Year: sp.Year, Venue: sp.Venue,
			StartDate: sp.StartDate, EndDate: sp.EndDate, Description: sp.Description,
		}, deps.Programs)
		if created, err := seeded(err, program.ErrDuplicateSlug); err != nil {
			return fmt.Errorf("program %s: %w", sp.Name, err)
		} else if !created {
			res.Skipped++
			continue
		}
		res.Programs++
		slugs[p.Slug] = true

		for _, se := range sp.Events {
			at, err := parseSeedTime(se.ScheduledAt)
			if err != nil {
				return fmt.Errorf("event %s: %w", se.Name, err)
			}
			if _, err := ExecuteSaveEvent(ctx, EventInput{
				Actor: systemActor, ProgramID: p.ID, Name: se.Name, Category: se.Category, Gender: se.Gender,
				Kind: se.Kind, Capacity: se.Capacity, MaxPerDepartment: se.MaxPerDepartment, Venue: se.Venue,
				ScheduledAt: at, RegistrationOpen: se.RegistrationOpen,
			}, deps.Events); err != nil {
				return fmt.Errorf("event %s: %w", se.Name, err)
			}
			res.Events++
		}
		if sp.Active {
			if _, err := ExecuteActivateProgram(ctx, systemActor, p.ID, deps.Programs); err != nil {
				return fmt.Errorf("activate %s: %w", sp.Name, err)
			}
		}
	}
	return nil
}

// seeded maps a save error onto created/skipped; duplicate is the "already exists" sentinel.
func seeded(err, duplicate error) (created bool, _ error) {
	switch {
	case err == nil:
		return true, nil
	case duplicate != nil && errors.Is(err, duplicate):
		return false, nil
	}
	return false, err
}

func parseSeedTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02 15:04", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduled_at %q: want YYYY-MM-DD HH:MM", s)
	}
	return t, nil
}
