package checklist

import (
	"context"
	"time"

	"checkops/model"
)

// Actor is the authenticated identity behind a mutating call, resolved by
// the auth middleware. The core performs no authentication of its own.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Assignee identifies who an instance belongs to: a single user or a team.
type Assignee struct {
	Type string `json:"type"` // model.AssigneeUser | model.AssigneeTeam
	ID   string `json:"id"`
}

// UserAssignee is a convenience constructor for the common case.
func UserAssignee(userID string) Assignee {
	return Assignee{Type: model.AssigneeUser, ID: userID}
}

// TemplateStore reads checklist templates. Templates are administered by an
// external surface; this subsystem never mutates them.
type TemplateStore interface {
	// GetByID returns the template with its items, scoped to the org.
	GetByID(ctx context.Context, orgID, templateID string) (*model.ChecklistTemplate, error)
	// ListActive returns every active template with items and assignments,
	// across orgs. Used by the scheduler's materialization sweep.
	ListActive(ctx context.Context) ([]model.ChecklistTemplate, error)
	// ListActiveForAssignees returns active templates assigned to any of the
	// given assignees, with items, scoped to the org.
	ListActiveForAssignees(ctx context.Context, orgID string, assignees []Assignee) ([]model.ChecklistTemplate, error)
}

// InstanceStore persists checklist instances and their entries. Mutating
// methods must be transactional: the status precondition is re-checked and
// the row updated atomically, so a domain transition is either fully applied
// or not applied at all.
type InstanceStore interface {
	// GetByID returns the instance with template (incl. items) and entries.
	GetByID(ctx context.Context, instanceID string) (*model.ChecklistInstance, error)

	// FindByKey looks up the instance for (template, assignee, date).
	// Returns ErrInstanceNotFound when absent.
	FindByKey(ctx context.Context, templateID string, assignee Assignee, date time.Time) (*model.ChecklistInstance, error)

	// CreateIfAbsent inserts the instance and its entries, or fetches the
	// existing row when the (template, assignee, date) key already exists.
	// The bool reports whether a new row was created. Concurrent calls for
	// the same key converge on a single instance.
	CreateIfAbsent(ctx context.Context, inst *model.ChecklistInstance) (*model.ChecklistInstance, bool, error)

	// ListForDate lists an org's instances for a calendar date, optionally
	// filtered by team.
	ListForDate(ctx context.Context, orgID string, teamID *string, date time.Time) ([]model.ChecklistInstance, error)

	// ListForAssignees lists instances belonging to any of the assignees on
	// the given date.
	ListForAssignees(ctx context.Context, orgID string, assignees []Assignee, date time.Time) ([]model.ChecklistInstance, error)

	// ListPendingVerification lists completed instances awaiting a verifier.
	ListPendingVerification(ctx context.Context, orgID string) ([]model.ChecklistInstance, error)

	// ListHistory lists an assignee's most recent instances, newest first.
	ListHistory(ctx context.Context, orgID string, assignee Assignee, limit int) ([]model.ChecklistInstance, error)

	// UpdateWithEntries persists the instance fields and upserts the given
	// entries in one transaction. The instance's current status in the store
	// must be one of expectStatus, checked under the same transaction;
	// otherwise ErrInvalidState is returned and nothing is written.
	UpdateWithEntries(ctx context.Context, inst *model.ChecklistInstance, entries []model.ChecklistExecutionItem, expectStatus ...string) error

	// ListUnnotified returns pending instances for the date whose upcoming
	// reminder has not been sent, with templates preloaded.
	ListUnnotified(ctx context.Context, date time.Time) ([]model.ChecklistInstance, error)

	// MarkUpcomingNotified stamps the reminder exactly once; the bool is
	// false when another scan already claimed the instance.
	MarkUpcomingNotified(ctx context.Context, instanceID string, at time.Time) (bool, error)
}

// Notifier delivers push notifications on workflow transitions. Calls are
// fire-and-forget: failures are logged by the caller and never roll back a
// state transition.
type Notifier interface {
	ChecklistCompleted(ctx context.Context, inst *model.ChecklistInstance) error
	ChecklistVerified(ctx context.Context, inst *model.ChecklistInstance, approved bool) error
	ChecklistUpcoming(ctx context.Context, inst *model.ChecklistInstance, minutesUntilStart int) error
}
