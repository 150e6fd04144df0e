package checklist

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"checkops/model"
)

const testManager = "manager-1"

// setupVerification builds a completed instance with an execution score of
// 50 (item-1 pass, item-2 fail, item-3 na) ready for a verifier.
func setupVerification(tpl *model.ChecklistTemplate) (*VerificationService, *mockInstanceStore, *recordingNotifier, *model.ChecklistInstance) {
	instances := newMockInstanceStore()
	notifier := newRecordingNotifier()
	svc := NewVerificationService(instances, notifier, zap.NewNop())
	svc.clock = func() time.Time { return testToday }

	inst := buildInstance(tpl, UserAssignee(testWorker),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), testToday)
	inst.Template = tpl
	inst.Status = model.InstanceCompleted
	completedAt := testToday
	inst.CompletedAt = &completedAt
	inst.Entries[0].ExecutedStatus = model.ItemPass
	inst.Entries[1].ExecutedStatus = model.ItemFail
	inst.Entries[2].ExecutedStatus = model.ItemNA
	score := 50
	inst.ExecutionScore = &score
	instances.put(inst)
	return svc, instances, notifier, inst
}

func TestVerify_ApproveFinalizesInstance(t *testing.T) {
	svc, instances, notifier, inst := setupVerification(makeTemplate("tpl-1"))

	results := []ItemVerification{
		{ItemID: "item-1", Status: model.ItemPass},
		{ItemID: "item-2", Status: model.ItemPass},
	}
	got, err := svc.Verify(context.Background(), inst.InstanceID, results,
		DecisionApprove, nil, Actor{ID: testManager})
	if err != nil {
		t.Fatalf("approve should succeed: %v", err)
	}
	if got.Status != model.InstanceVerified {
		t.Errorf("expected verified, got %s", got.Status)
	}
	if got.VerifiedAt == nil || got.VerifiedBy == nil || *got.VerifiedBy != testManager {
		t.Error("approve should stamp VerifiedAt and VerifiedBy")
	}
	// Both verified items pass: verification score 100; total = 50*0.5 + 100*0.5.
	if got.VerificationScore == nil || *got.VerificationScore != 100 {
		t.Errorf("expected verification score 100, got %v", got.VerificationScore)
	}
	if got.TotalScore == nil || *got.TotalScore != 75 {
		t.Errorf("expected total 75, got %v", got.TotalScore)
	}
	if len(notifier.verified) != 1 || !notifier.approved[inst.InstanceID] {
		t.Error("approve should notify with approved=true")
	}

	stored := instances.get(inst.InstanceID)
	if !stored.Entries[0].IsVerified || stored.Entries[0].VerifiedStatus != model.ItemPass {
		t.Errorf("verified entries should persist, got %+v", stored.Entries[0])
	}
}

func TestVerify_RejectReturnsToPendingAndClearsDisputed(t *testing.T) {
	svc, instances, notifier, inst := setupVerification(makeTemplate("tpl-1"))

	note := "fridge reading looks copied"
	results := []ItemVerification{
		{ItemID: "item-1", Status: model.ItemFail},
		{ItemID: "item-3", Status: model.ItemNA},
	}
	got, err := svc.Verify(context.Background(), inst.InstanceID, results,
		DecisionReject, &note, Actor{ID: testManager})
	if err != nil {
		t.Fatalf("reject should succeed: %v", err)
	}
	if got.Status != model.InstancePending {
		t.Errorf("reject sends the instance back to pending, got %s", got.Status)
	}
	if got.RejectedAt == nil {
		t.Error("reject should stamp RejectedAt")
	}
	if got.ManagerNote == nil || *got.ManagerNote != note {
		t.Errorf("manager note should persist, got %v", got.ManagerNote)
	}
	// The execution score from the rejected pass is kept for the record.
	if got.ExecutionScore == nil || *got.ExecutionScore != 50 {
		t.Errorf("execution score must survive a reject, got %v", got.ExecutionScore)
	}
	if got.VerificationScore == nil || *got.VerificationScore != 0 {
		t.Errorf("expected verification score 0, got %v", got.VerificationScore)
	}
	if got.TotalScore != nil {
		t.Errorf("reject must not set a total, got %v", got.TotalScore)
	}
	if len(notifier.verified) != 1 || notifier.approved[inst.InstanceID] {
		t.Error("reject should notify with approved=false")
	}

	stored := instances.get(inst.InstanceID)
	// item-1 was failed by the verifier: cleared for redo.
	if stored.Entries[0].ExecutedStatus != model.ItemUnchecked || stored.Entries[0].ExecutedAt != nil {
		t.Errorf("disputed item should be cleared, got %+v", stored.Entries[0])
	}
	// item-2 was untouched by the verifier: result kept.
	if stored.Entries[1].ExecutedStatus != model.ItemFail {
		t.Errorf("untouched item keeps its result, got %s", stored.Entries[1].ExecutedStatus)
	}
	// item-3 was marked na by the verifier: result kept.
	if stored.Entries[2].ExecutedStatus != model.ItemNA {
		t.Errorf("na-verified item keeps its result, got %s", stored.Entries[2].ExecutedStatus)
	}
}

func TestVerify_SelfVerificationBlocked(t *testing.T) {
	svc, _, _, inst := setupVerification(makeTemplate("tpl-1"))

	_, err := svc.Verify(context.Background(), inst.InstanceID, nil,
		DecisionApprove, nil, Actor{ID: testWorker})
	if !errors.Is(err, ErrSelfVerification) {
		t.Errorf("expected ErrSelfVerification, got %v", err)
	}
}

func TestVerify_SelfVerificationAllowedWhenNotRequired(t *testing.T) {
	tpl := makeTemplate("tpl-1")
	tpl.RequireDistinctVerifier = false
	svc, _, _, inst := setupVerification(tpl)

	got, err := svc.Verify(context.Background(), inst.InstanceID, nil,
		DecisionApprove, nil, Actor{ID: testWorker})
	if err != nil {
		t.Fatalf("self verification is allowed when separation is off: %v", err)
	}
	if got.Status != model.InstanceVerified {
		t.Errorf("expected verified, got %s", got.Status)
	}
}

func TestVerify_InvalidState(t *testing.T) {
	svc, instances, _, inst := setupVerification(makeTemplate("tpl-1"))
	instances.get(inst.InstanceID).Status = model.InstancePending

	_, err := svc.Verify(context.Background(), inst.InstanceID, nil,
		DecisionApprove, nil, Actor{ID: testManager})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on a pending instance, got %v", err)
	}
}

func TestVerify_InvalidDecision(t *testing.T) {
	svc, _, _, inst := setupVerification(makeTemplate("tpl-1"))

	_, err := svc.Verify(context.Background(), inst.InstanceID, nil,
		"escalate", nil, Actor{ID: testManager})
	if !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestVerify_UnknownItem(t *testing.T) {
	svc, _, _, inst := setupVerification(makeTemplate("tpl-1"))

	_, err := svc.Verify(context.Background(), inst.InstanceID,
		[]ItemVerification{{ItemID: "intruder", Status: model.ItemPass}},
		DecisionApprove, nil, Actor{ID: testManager})
	if !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
}

func TestVerify_ScoringDisabled(t *testing.T) {
	tpl := makeTemplate("tpl-1")
	tpl.ScoringEnabled = false
	svc, _, _, inst := setupVerification(tpl)

	got, err := svc.Verify(context.Background(), inst.InstanceID,
		[]ItemVerification{{ItemID: "item-1", Status: model.ItemPass}},
		DecisionApprove, nil, Actor{ID: testManager})
	if err != nil {
		t.Fatalf("approve should succeed: %v", err)
	}
	if got.VerificationScore != nil || got.TotalScore != nil {
		t.Error("scoring disabled must leave verification and total scores nil")
	}
}
