package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"checkops/checklist"
	"checkops/model"
)

type fakeInstanceStore struct {
	checklist.InstanceStore

	mu         sync.Mutex
	unnotified []model.ChecklistInstance
	claimed    map[string]bool
}

func (f *fakeInstanceStore) ListUnnotified(_ context.Context, _ time.Time) ([]model.ChecklistInstance, error) {
	return f.unnotified, nil
}

func (f *fakeInstanceStore) MarkUpcomingNotified(_ context.Context, instanceID string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed[instanceID] {
		return false, nil
	}
	f.claimed[instanceID] = true
	return true, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	upcoming []string
}

func (f *fakeNotifier) ChecklistCompleted(context.Context, *model.ChecklistInstance) error {
	return nil
}

func (f *fakeNotifier) ChecklistVerified(context.Context, *model.ChecklistInstance, bool) error {
	return nil
}

func (f *fakeNotifier) ChecklistUpcoming(_ context.Context, inst *model.ChecklistInstance, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upcoming = append(f.upcoming, inst.InstanceID)
	return nil
}

// Scans run at a fixed noon so window math is deterministic.
var scanNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func pendingInstance(id, start string) model.ChecklistInstance {
	return model.ChecklistInstance{
		InstanceID: id,
		Status:     model.InstancePending,
		Date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Template: &model.ChecklistTemplate{
			TemplateID: "tpl-1",
			Name:       "Opening checklist",
			StartTime:  &start,
		},
	}
}

func newTestScheduler(store *fakeInstanceStore, notifier *fakeNotifier) *Scheduler {
	sched := New(Deps{
		Instances:           store,
		Notifier:            notifier,
		Location:            time.UTC,
		UpcomingLeadMinutes: 30,
		Logger:              zap.NewNop(),
	})
	sched.clock = func() time.Time { return scanNow }
	return sched
}

func TestScanUpcoming_NotifiesWithinLead(t *testing.T) {
	// 12:15 start is inside the 30-minute lead at noon.
	store := &fakeInstanceStore{
		unnotified: []model.ChecklistInstance{pendingInstance("inst-1", "12:15")},
		claimed:    make(map[string]bool),
	}
	notifier := &fakeNotifier{}

	newTestScheduler(store, notifier).ScanUpcoming(context.Background())

	if len(notifier.upcoming) != 1 || notifier.upcoming[0] != "inst-1" {
		t.Errorf("expected one upcoming push for inst-1, got %v", notifier.upcoming)
	}
}

func TestScanUpcoming_SkipsFarWindows(t *testing.T) {
	store := &fakeInstanceStore{
		unnotified: []model.ChecklistInstance{pendingInstance("inst-1", "15:00")},
		claimed:    make(map[string]bool),
	}
	notifier := &fakeNotifier{}

	newTestScheduler(store, notifier).ScanUpcoming(context.Background())

	if len(notifier.upcoming) != 0 {
		t.Errorf("a window hours away must not trigger a push, got %v", notifier.upcoming)
	}
}

func TestScanUpcoming_PushesAtMostOnce(t *testing.T) {
	store := &fakeInstanceStore{
		unnotified: []model.ChecklistInstance{pendingInstance("inst-1", "12:15")},
		claimed:    make(map[string]bool),
	}
	notifier := &fakeNotifier{}
	sched := newTestScheduler(store, notifier)

	sched.ScanUpcoming(context.Background())
	sched.ScanUpcoming(context.Background())

	if len(notifier.upcoming) != 1 {
		t.Errorf("overlapping scans must push at most once, got %d", len(notifier.upcoming))
	}
}
