package checklist

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"checkops/model"
)

// InstanceService manages the lifecycle of checklist instances: creation for
// a calendar day, lookups, and the derived read views. Mutation of execution
// and verification state lives in ExecutionService and VerificationService.
type InstanceService struct {
	templates TemplateStore
	instances InstanceStore
	clock     func() time.Time
	logger    *zap.Logger
}

func NewInstanceService(templates TemplateStore, instances InstanceStore, logger *zap.Logger) *InstanceService {
	return &InstanceService{
		templates: templates,
		instances: instances,
		clock:     time.Now,
		logger:    logger,
	}
}

// dateOnly normalizes a timestamp to its calendar date in loc, stored as a
// UTC midnight so the DATE column compares cleanly.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// scheduledOn reports whether the template runs on the given date. An empty
// scheduled-days list means every day.
func scheduledOn(tpl *model.ChecklistTemplate, date time.Time) bool {
	if len(tpl.ScheduledDays) == 0 {
		return true
	}
	weekday := strings.ToLower(date.Weekday().String())
	return tpl.ScheduledDays.Contains(weekday)
}

// GetOrCreateForToday returns the instance for (template, assignee, today),
// creating it in status pending with one unchecked entry per template item
// when absent. Creation is refused with ErrNotScheduledToday when today's
// weekday is not in the template's schedule, but a pre-existing instance is
// still returned — a manager may have opened one manually.
//
// Safe to call concurrently for the same key: the store's insert-or-fetch
// guarantees both callers see the same instance.
func (s *InstanceService) GetOrCreateForToday(ctx context.Context, orgID, templateID string, assignee Assignee, today time.Time, loc *time.Location) (*model.ChecklistInstance, error) {
	date := dateOnly(today, loc)

	existing, err := s.instances.FindByKey(ctx, templateID, assignee, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrInstanceNotFound) {
		return nil, err
	}

	tpl, err := s.templates.GetByID(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if !scheduledOn(tpl, date) {
		return nil, ErrNotScheduledToday
	}

	inst := buildInstance(tpl, assignee, date, s.clock())
	created, fresh, err := s.instances.CreateIfAbsent(ctx, inst)
	if err != nil {
		return nil, err
	}
	if fresh {
		s.logger.Info("checklist instance created",
			zap.String("instance_id", created.InstanceID),
			zap.String("template_id", templateID),
			zap.String("assignee", assignee.Type+":"+assignee.ID),
			zap.String("date", date.Format("2006-01-02")))
	}
	return created, nil
}

// buildInstance freezes the template's item set onto a fresh pending
// instance. The entry set is exactly the template's items — no more, no
// fewer — regardless of later execute calls.
func buildInstance(tpl *model.ChecklistTemplate, assignee Assignee, date time.Time, now time.Time) *model.ChecklistInstance {
	inst := &model.ChecklistInstance{
		InstanceID:   uuid.NewString(),
		TemplateID:   tpl.TemplateID,
		OrgID:        tpl.OrgID,
		TeamID:       tpl.TeamID,
		AssigneeType: assignee.Type,
		AssigneeID:   assignee.ID,
		Date:         date,
		Status:       model.InstancePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	items := make([]model.ChecklistItem, len(tpl.Items))
	copy(items, tpl.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	for _, item := range items {
		inst.Entries = append(inst.Entries, model.ChecklistExecutionItem{
			EntryID:        uuid.NewString(),
			InstanceID:     inst.InstanceID,
			ItemID:         item.ItemID,
			Position:       item.Position,
			ExecutedStatus: model.ItemUnchecked,
			VerifiedStatus: model.ItemUnchecked,
		})
	}
	return inst
}

// MaterializeForAssignees creates today's missing instances for every active
// template assigned to one of the assignees, then returns the full listing.
// Templates not scheduled today are skipped, not errors.
func (s *InstanceService) MaterializeForAssignees(ctx context.Context, orgID string, assignees []Assignee, today time.Time, loc *time.Location) ([]model.ChecklistInstance, error) {
	templates, err := s.templates.ListActiveForAssignees(ctx, orgID, assignees)
	if err != nil {
		return nil, err
	}
	date := dateOnly(today, loc)

	for i := range templates {
		tpl := &templates[i]
		if !scheduledOn(tpl, date) {
			continue
		}
		for _, assignee := range assigneesFor(tpl, assignees) {
			if _, err := s.GetOrCreateForToday(ctx, orgID, tpl.TemplateID, assignee, today, loc); err != nil {
				s.logger.Warn("failed to materialize checklist instance",
					zap.String("template_id", tpl.TemplateID),
					zap.String("assignee", assignee.Type+":"+assignee.ID),
					zap.Error(err))
			}
		}
	}

	return s.instances.ListForAssignees(ctx, orgID, assignees, date)
}

// assigneesFor intersects the caller's assignees with the template's
// assignment rows, so a template assigned only to a team does not spawn
// per-user instances.
func assigneesFor(tpl *model.ChecklistTemplate, assignees []Assignee) []Assignee {
	var out []Assignee
	for _, a := range tpl.Assignments {
		for _, want := range assignees {
			if a.AssigneeType == want.Type && a.AssigneeID == want.ID {
				out = append(out, want)
			}
		}
	}
	return out
}

// GetByID returns the instance with its template and entries.
func (s *InstanceService) GetByID(ctx context.Context, instanceID string) (*model.ChecklistInstance, error) {
	return s.instances.GetByID(ctx, instanceID)
}

// ListForDate is the org-wide read view for one calendar date.
func (s *InstanceService) ListForDate(ctx context.Context, orgID string, teamID *string, date time.Time, loc *time.Location) ([]model.ChecklistInstance, error) {
	return s.instances.ListForDate(ctx, orgID, teamID, dateOnly(date, loc))
}

// ListPendingVerification lists completed instances awaiting a verifier.
func (s *InstanceService) ListPendingVerification(ctx context.Context, orgID string) ([]model.ChecklistInstance, error) {
	return s.instances.ListPendingVerification(ctx, orgID)
}

// ListHistory lists an assignee's recent instances, newest first.
func (s *InstanceService) ListHistory(ctx context.Context, orgID string, assignee Assignee, limit int) ([]model.ChecklistInstance, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.instances.ListHistory(ctx, orgID, assignee, limit)
}

// Progress is the derived completion state of an instance.
type Progress struct {
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
	Percent        int `json:"percent"`
}

// CalculateProgress counts entries with any recorded result. Read-only.
func CalculateProgress(inst *model.ChecklistInstance) Progress {
	p := Progress{TotalCount: len(inst.Entries)}
	for _, e := range inst.Entries {
		if e.ExecutedStatus != model.ItemUnchecked {
			p.CompletedCount++
		}
	}
	if p.TotalCount > 0 {
		p.Percent = int(math.Round(float64(p.CompletedCount) / float64(p.TotalCount) * 100))
	}
	return p
}

// IsWithinTimeWindow evaluates the instance's window at asOf in loc. The
// template must be preloaded on the instance.
func IsWithinTimeWindow(inst *model.ChecklistInstance, asOf time.Time, loc *time.Location) WindowStatus {
	if inst.Template == nil {
		return WindowStatus{State: WindowNotApplicable}
	}
	win := Window{
		Start:  inst.Template.StartTime,
		End:    inst.Template.EndTime,
		Cutoff: inst.Template.CutoffTime,
	}
	return EvaluateWindow(win, inst.Date, asOf, loc)
}
