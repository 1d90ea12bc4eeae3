package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the area of the meet an audit event touches.
type Category string

const (
	CategoryStaff       Category = "staff"
	CategoryParticipant Category = "participant"
	CategoryResource    Category = "resource"
	CategoryProgram     Category = "program"
	CategoryEvent       Category = "event"
	CategoryRequest     Category = "request"
	CategorySettings    Category = "settings"
	CategoryCertificate Category = "certificate"
	CategorySecurity    Category = "security"
	CategorySystem      Category = "system"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionLogin   Action = "login"
	ActionLogout  Action = "logout"
	ActionExport  Action = "export"
	ActionImport  Action = "import"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionIssue   Action = "issue"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event represents a single audit log entry.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorID      string    `json:"actor_id"`
	ActorEmail   string    `json:"actor_email"`
	ActorRole    string    `json:"actor_role"`
	ResourceID   string    `json:"resource_id"`
	ResourceType string    `json:"resource_type"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Metadata     string    `json:"metadata"`
}

// Actor identifies who performed an audited action.
type Actor struct {
	ID    string
	Email string
	Role  string
}

// NewEvent creates a new audit event stamped with now.
// PRE: actor.ID and action are non-empty
func NewEvent(actor Actor, category Category, action Action, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		ActorRole:  actor.Role,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets IP address and user agent from the HTTP request.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// WithMetadata sets optional JSON metadata.
func (e Event) WithMetadata(metadata string) Event {
	e.Metadata = metadata
	return e
}
