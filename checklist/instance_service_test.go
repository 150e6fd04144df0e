package checklist

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"checkops/model"
)

const (
	testOrg    = "org-1"
	testWorker = "worker-1"
)

// 2026-03-10 is a Tuesday.
var testToday = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func makeTemplate(id string) *model.ChecklistTemplate {
	return &model.ChecklistTemplate{
		TemplateID:              id,
		OrgID:                   testOrg,
		Name:                    "Opening checklist",
		Priority:                "high",
		RequireVerification:     true,
		RequireDistinctVerifier: true,
		ScoringEnabled:          true,
		VerificationWeight:      0.5,
		IsActive:                true,
		Items: []model.ChecklistItem{
			{ItemID: "item-1", TemplateID: id, OrgID: testOrg, Title: "Unlock doors", Position: 1, IsRequired: true},
			{ItemID: "item-2", TemplateID: id, OrgID: testOrg, Title: "Check fridge temps", Position: 2, IsRequired: true},
			{ItemID: "item-3", TemplateID: id, OrgID: testOrg, Title: "Water plants", Position: 3, IsRequired: false},
		},
		Assignments: []model.ChecklistAssignment{
			{AssignmentID: "as-1", TemplateID: id, OrgID: testOrg, AssigneeType: model.AssigneeUser, AssigneeID: testWorker},
		},
	}
}

func setupInstanceService() (*InstanceService, *mockTemplateStore, *mockInstanceStore) {
	templates := newMockTemplateStore()
	instances := newMockInstanceStore()
	svc := NewInstanceService(templates, instances, zap.NewNop())
	svc.clock = func() time.Time { return testToday }
	return svc, templates, instances
}

func TestGetOrCreateForToday_CreatesPendingInstance(t *testing.T) {
	svc, templates, _ := setupInstanceService()
	templates.add(makeTemplate("tpl-1"))

	inst, err := svc.GetOrCreateForToday(context.Background(), testOrg, "tpl-1",
		UserAssignee(testWorker), testToday, time.UTC)
	if err != nil {
		t.Fatalf("GetOrCreateForToday should succeed: %v", err)
	}
	if inst.Status != model.InstancePending {
		t.Errorf("expected pending, got %s", inst.Status)
	}
	if len(inst.Entries) != 3 {
		t.Fatalf("expected 3 frozen entries, got %d", len(inst.Entries))
	}
	for _, e := range inst.Entries {
		if e.ExecutedStatus != model.ItemUnchecked {
			t.Errorf("entry %s should start unchecked, got %s", e.ItemID, e.ExecutedStatus)
		}
	}
	if !inst.Date.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected date 2026-03-10, got %s", inst.Date)
	}
}

func TestGetOrCreateForToday_ConvergesOnOneInstance(t *testing.T) {
	svc, templates, _ := setupInstanceService()
	templates.add(makeTemplate("tpl-1"))

	first, err := svc.GetOrCreateForToday(context.Background(), testOrg, "tpl-1",
		UserAssignee(testWorker), testToday, time.UTC)
	if err != nil {
		t.Fatalf("first call should succeed: %v", err)
	}
	second, err := svc.GetOrCreateForToday(context.Background(), testOrg, "tpl-1",
		UserAssignee(testWorker), testToday, time.UTC)
	if err != nil {
		t.Fatalf("second call should succeed: %v", err)
	}
	if first.InstanceID != second.InstanceID {
		t.Errorf("both calls must converge on one instance, got %s and %s",
			first.InstanceID, second.InstanceID)
	}
}

func TestGetOrCreateForToday_NotScheduledToday(t *testing.T) {
	svc, templates, _ := setupInstanceService()
	tpl := makeTemplate("tpl-1")
	tpl.ScheduledDays = model.StringArray{"monday", "friday"}
	templates.add(tpl)

	_, err := svc.GetOrCreateForToday(context.Background(), testOrg, "tpl-1",
		UserAssignee(testWorker), testToday, time.UTC)
	if !errors.Is(err, ErrNotScheduledToday) {
		t.Errorf("expected ErrNotScheduledToday on a Tuesday, got %v", err)
	}
}

func TestGetOrCreateForToday_ExistingInstanceWinsOverSchedule(t *testing.T) {
	svc, templates, instances := setupInstanceService()
	tpl := makeTemplate("tpl-1")
	tpl.ScheduledDays = model.StringArray{"monday"}
	templates.add(tpl)

	// A manager opened one manually despite the schedule.
	existing := buildInstance(tpl, UserAssignee(testWorker),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), testToday)
	existing.Template = tpl
	instances.put(existing)

	inst, err := svc.GetOrCreateForToday(context.Background(), testOrg, "tpl-1",
		UserAssignee(testWorker), testToday, time.UTC)
	if err != nil {
		t.Fatalf("existing instance should be returned regardless of schedule: %v", err)
	}
	if inst.InstanceID != existing.InstanceID {
		t.Errorf("expected the existing instance, got %s", inst.InstanceID)
	}
}

func TestGetOrCreateForToday_TemplateNotFound(t *testing.T) {
	svc, _, _ := setupInstanceService()

	_, err := svc.GetOrCreateForToday(context.Background(), testOrg, "missing",
		UserAssignee(testWorker), testToday, time.UTC)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestMaterializeForAssignees(t *testing.T) {
	svc, templates, _ := setupInstanceService()
	templates.add(makeTemplate("tpl-1"))

	otherTpl := makeTemplate("tpl-2")
	otherTpl.Assignments = []model.ChecklistAssignment{
		{AssignmentID: "as-2", TemplateID: "tpl-2", OrgID: testOrg, AssigneeType: model.AssigneeTeam, AssigneeID: "team-9"},
	}
	templates.add(otherTpl)

	listed, err := svc.MaterializeForAssignees(context.Background(), testOrg,
		[]Assignee{UserAssignee(testWorker)}, testToday, time.UTC)
	if err != nil {
		t.Fatalf("MaterializeForAssignees should succeed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("only the template assigned to the worker should materialize, got %d", len(listed))
	}
	if listed[0].TemplateID != "tpl-1" {
		t.Errorf("expected tpl-1, got %s", listed[0].TemplateID)
	}
}

func TestMaterializeForAssignees_SkipsUnscheduled(t *testing.T) {
	svc, templates, _ := setupInstanceService()
	tpl := makeTemplate("tpl-1")
	tpl.ScheduledDays = model.StringArray{"saturday"}
	templates.add(tpl)

	listed, err := svc.MaterializeForAssignees(context.Background(), testOrg,
		[]Assignee{UserAssignee(testWorker)}, testToday, time.UTC)
	if err != nil {
		t.Fatalf("MaterializeForAssignees should succeed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("unscheduled templates must not materialize, got %d instances", len(listed))
	}
}

func TestCalculateProgress(t *testing.T) {
	inst := &model.ChecklistInstance{Entries: []model.ChecklistExecutionItem{
		{ItemID: "item-1", ExecutedStatus: model.ItemPass},
		{ItemID: "item-2", ExecutedStatus: model.ItemNA},
		{ItemID: "item-3", ExecutedStatus: model.ItemUnchecked},
	}}

	p := CalculateProgress(inst)
	if p.CompletedCount != 2 || p.TotalCount != 3 {
		t.Errorf("expected 2/3, got %d/%d", p.CompletedCount, p.TotalCount)
	}
	if p.Percent != 67 {
		t.Errorf("expected 67%%, got %d", p.Percent)
	}
}

func TestCalculateProgress_Empty(t *testing.T) {
	p := CalculateProgress(&model.ChecklistInstance{})
	if p.Percent != 0 || p.TotalCount != 0 {
		t.Errorf("empty instance should report zero progress, got %+v", p)
	}
}
