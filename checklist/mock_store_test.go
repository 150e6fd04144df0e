package checklist

import (
	"context"
	"fmt"
	"time"

	"checkops/model"
)

// In-memory stores backing the service tests. They honor the same contracts
// as the GORM implementations: key uniqueness on create, status precondition
// on update, copies on read so callers cannot mutate stored state in place.

type mockTemplateStore struct {
	templates map[string]*model.ChecklistTemplate
}

func newMockTemplateStore() *mockTemplateStore {
	return &mockTemplateStore{templates: make(map[string]*model.ChecklistTemplate)}
}

func (m *mockTemplateStore) add(tpl *model.ChecklistTemplate) {
	m.templates[tpl.TemplateID] = tpl
}

func (m *mockTemplateStore) GetByID(_ context.Context, orgID, templateID string) (*model.ChecklistTemplate, error) {
	tpl, ok := m.templates[templateID]
	if !ok || tpl.OrgID != orgID {
		return nil, ErrTemplateNotFound
	}
	return tpl, nil
}

func (m *mockTemplateStore) ListActive(_ context.Context) ([]model.ChecklistTemplate, error) {
	var out []model.ChecklistTemplate
	for _, tpl := range m.templates {
		if tpl.IsActive {
			out = append(out, *tpl)
		}
	}
	return out, nil
}

func (m *mockTemplateStore) ListActiveForAssignees(_ context.Context, orgID string, assignees []Assignee) ([]model.ChecklistTemplate, error) {
	var out []model.ChecklistTemplate
	for _, tpl := range m.templates {
		if !tpl.IsActive || tpl.OrgID != orgID {
			continue
		}
		for _, a := range tpl.Assignments {
			matched := false
			for _, want := range assignees {
				if a.AssigneeType == want.Type && a.AssigneeID == want.ID {
					matched = true
					break
				}
			}
			if matched {
				out = append(out, *tpl)
				break
			}
		}
	}
	return out, nil
}

type mockInstanceStore struct {
	instances map[string]*model.ChecklistInstance
	byKey     map[string]string
}

func newMockInstanceStore() *mockInstanceStore {
	return &mockInstanceStore{
		instances: make(map[string]*model.ChecklistInstance),
		byKey:     make(map[string]string),
	}
}

func instanceKey(templateID string, assignee Assignee, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s", templateID, assignee.Type, assignee.ID, date.Format("2006-01-02"))
}

func cloneInstance(inst *model.ChecklistInstance) *model.ChecklistInstance {
	cp := *inst
	cp.Entries = make([]model.ChecklistExecutionItem, len(inst.Entries))
	copy(cp.Entries, inst.Entries)
	return &cp
}

// put stores an instance directly, bypassing the create path. Test setup
// only.
func (m *mockInstanceStore) put(inst *model.ChecklistInstance) {
	m.instances[inst.InstanceID] = cloneInstance(inst)
	m.byKey[instanceKey(inst.TemplateID, Assignee{Type: inst.AssigneeType, ID: inst.AssigneeID}, inst.Date)] = inst.InstanceID
}

func (m *mockInstanceStore) get(id string) *model.ChecklistInstance {
	return m.instances[id]
}

func (m *mockInstanceStore) GetByID(_ context.Context, instanceID string) (*model.ChecklistInstance, error) {
	inst, ok := m.instances[instanceID]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return cloneInstance(inst), nil
}

func (m *mockInstanceStore) FindByKey(_ context.Context, templateID string, assignee Assignee, date time.Time) (*model.ChecklistInstance, error) {
	id, ok := m.byKey[instanceKey(templateID, assignee, date)]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return cloneInstance(m.instances[id]), nil
}

func (m *mockInstanceStore) CreateIfAbsent(_ context.Context, inst *model.ChecklistInstance) (*model.ChecklistInstance, bool, error) {
	key := instanceKey(inst.TemplateID, Assignee{Type: inst.AssigneeType, ID: inst.AssigneeID}, inst.Date)
	if id, ok := m.byKey[key]; ok {
		return cloneInstance(m.instances[id]), false, nil
	}
	m.instances[inst.InstanceID] = cloneInstance(inst)
	m.byKey[key] = inst.InstanceID
	return cloneInstance(inst), true, nil
}

func (m *mockInstanceStore) ListForDate(_ context.Context, orgID string, teamID *string, date time.Time) ([]model.ChecklistInstance, error) {
	var out []model.ChecklistInstance
	for _, inst := range m.instances {
		if inst.OrgID != orgID || !inst.Date.Equal(date) {
			continue
		}
		if teamID != nil && (inst.TeamID == nil || *inst.TeamID != *teamID) {
			continue
		}
		out = append(out, *cloneInstance(inst))
	}
	return out, nil
}

func (m *mockInstanceStore) ListForAssignees(_ context.Context, orgID string, assignees []Assignee, date time.Time) ([]model.ChecklistInstance, error) {
	var out []model.ChecklistInstance
	for _, inst := range m.instances {
		if inst.OrgID != orgID || !inst.Date.Equal(date) {
			continue
		}
		for _, a := range assignees {
			if inst.AssigneeType == a.Type && inst.AssigneeID == a.ID {
				out = append(out, *cloneInstance(inst))
				break
			}
		}
	}
	return out, nil
}

func (m *mockInstanceStore) ListPendingVerification(_ context.Context, orgID string) ([]model.ChecklistInstance, error) {
	var out []model.ChecklistInstance
	for _, inst := range m.instances {
		if inst.OrgID != orgID || inst.Status != model.InstanceCompleted {
			continue
		}
		if inst.Template == nil || !inst.Template.RequireVerification {
			continue
		}
		out = append(out, *cloneInstance(inst))
	}
	return out, nil
}

func (m *mockInstanceStore) ListHistory(_ context.Context, orgID string, assignee Assignee, limit int) ([]model.ChecklistInstance, error) {
	var out []model.ChecklistInstance
	for _, inst := range m.instances {
		if inst.OrgID != orgID || inst.AssigneeType != assignee.Type || inst.AssigneeID != assignee.ID {
			continue
		}
		out = append(out, *cloneInstance(inst))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockInstanceStore) UpdateWithEntries(_ context.Context, inst *model.ChecklistInstance, entries []model.ChecklistExecutionItem, expectStatus ...string) error {
	stored, ok := m.instances[inst.InstanceID]
	if !ok {
		return ErrInstanceNotFound
	}
	allowed := false
	for _, st := range expectStatus {
		if stored.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidState
	}

	updated := cloneInstance(inst)
	updated.Entries = stored.Entries
	for _, e := range entries {
		replaced := false
		for i := range updated.Entries {
			if updated.Entries[i].ItemID == e.ItemID {
				updated.Entries[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			updated.Entries = append(updated.Entries, e)
		}
	}
	m.instances[inst.InstanceID] = updated
	return nil
}

func (m *mockInstanceStore) ListUnnotified(_ context.Context, date time.Time) ([]model.ChecklistInstance, error) {
	var out []model.ChecklistInstance
	for _, inst := range m.instances {
		if inst.Date.Equal(date) && inst.Status == model.InstancePending && inst.UpcomingNotifiedAt == nil {
			out = append(out, *cloneInstance(inst))
		}
	}
	return out, nil
}

func (m *mockInstanceStore) MarkUpcomingNotified(_ context.Context, instanceID string, at time.Time) (bool, error) {
	inst, ok := m.instances[instanceID]
	if !ok {
		return false, ErrInstanceNotFound
	}
	if inst.UpcomingNotifiedAt != nil {
		return false, nil
	}
	inst.UpcomingNotifiedAt = &at
	return true, nil
}

// recordingNotifier captures notification calls.
type recordingNotifier struct {
	completed []string
	verified  []string
	upcoming  []string
	approved  map[string]bool
	err       error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{approved: make(map[string]bool)}
}

func (n *recordingNotifier) ChecklistCompleted(_ context.Context, inst *model.ChecklistInstance) error {
	n.completed = append(n.completed, inst.InstanceID)
	return n.err
}

func (n *recordingNotifier) ChecklistVerified(_ context.Context, inst *model.ChecklistInstance, approved bool) error {
	n.verified = append(n.verified, inst.InstanceID)
	n.approved[inst.InstanceID] = approved
	return n.err
}

func (n *recordingNotifier) ChecklistUpcoming(_ context.Context, inst *model.ChecklistInstance, _ int) error {
	n.upcoming = append(n.upcoming, inst.InstanceID)
	return n.err
}
