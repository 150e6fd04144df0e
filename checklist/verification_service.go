package checklist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"checkops/model"
)

// Verification decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ItemVerification is one item's re-check as submitted by the verifier.
type ItemVerification struct {
	ItemID string  `json:"item_id"`
	Status string  `json:"status"` // pass | fail | na
	Note   *string `json:"note,omitempty"`
}

// VerificationService applies a verifier's decision to a completed instance:
// approve finishes the workflow at verified, reject sends the instance back
// to pending with the disputed items cleared for redo.
type VerificationService struct {
	instances InstanceStore
	notifier  Notifier
	clock     func() time.Time
	logger    *zap.Logger
}

func NewVerificationService(instances InstanceStore, notifier Notifier, logger *zap.Logger) *VerificationService {
	return &VerificationService{
		instances: instances,
		notifier:  notifier,
		clock:     time.Now,
		logger:    logger,
	}
}

// Verify records the verifier's per-item results and decision. The instance
// must be completed. When the template enforces separation of duties the
// verifier must not be the assignee.
//
// On approve, the verification score and the weighted total are persisted
// and the instance becomes verified — terminal. On reject, the verification
// score is persisted for the record, but the execution and total scores keep
// their values from the rejected pass; entries the verifier marked pass or
// fail are reset to unchecked so the assignee must redo them, and the
// instance returns to pending.
func (s *VerificationService) Verify(ctx context.Context, instanceID string, results []ItemVerification, decision string, managerNote *string, actor Actor) (*model.ChecklistInstance, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status != model.InstanceCompleted {
		return nil, fmt.Errorf("%w: cannot verify a %s instance", ErrInvalidState, inst.Status)
	}
	if inst.Template != nil && inst.Template.RequireDistinctVerifier &&
		inst.AssigneeType == model.AssigneeUser && inst.AssigneeID == actor.ID {
		return nil, ErrSelfVerification
	}

	now := s.clock()

	byItem := make(map[string]*model.ChecklistExecutionItem, len(inst.Entries))
	for i := range inst.Entries {
		byItem[inst.Entries[i].ItemID] = &inst.Entries[i]
	}

	changed := make([]model.ChecklistExecutionItem, 0, len(results))
	for _, r := range results {
		entry, ok := byItem[r.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, r.ItemID)
		}
		if !model.ValidItemStatus(r.Status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidItemStatus, r.Status)
		}
		entry.VerifiedStatus = r.Status
		entry.IsVerified = true
		verifiedAt := now
		entry.VerifiedAt = &verifiedAt
		verifiedBy := actor.ID
		entry.VerifiedBy = &verifiedBy
		if r.Note != nil {
			entry.Note = r.Note
		}
		changed = append(changed, *entry)
	}

	scoring := inst.Template != nil && inst.Template.ScoringEnabled
	if scoring {
		score := VerificationScore(inst.Entries)
		inst.VerificationScore = &score
	}

	verifiedBy := actor.ID
	inst.VerifiedBy = &verifiedBy
	inst.ManagerNote = managerNote
	inst.UpdatedAt = now

	if decision == DecisionApprove {
		verifiedAt := now
		inst.Status = model.InstanceVerified
		inst.VerifiedAt = &verifiedAt
		if scoring && inst.ExecutionScore != nil && inst.VerificationScore != nil {
			// A verification happened, so the total always blends both
			// scores, even if the template did not strictly require it.
			total := TotalScore(*inst.ExecutionScore, *inst.VerificationScore,
				true, inst.Template.VerificationWeight)
			inst.TotalScore = &total
		}
	} else {
		rejectedAt := now
		inst.Status = model.InstancePending
		inst.RejectedAt = &rejectedAt
		// Clear the disputed items so the assignee redoes them. Items the
		// verifier marked na, and untouched items, keep their results.
		for i := range changed {
			if changed[i].VerifiedStatus == model.ItemNA {
				continue
			}
			entry := byItem[changed[i].ItemID]
			entry.ExecutedStatus = model.ItemUnchecked
			entry.ExecutedAt = nil
			changed[i] = *entry
		}
	}

	if err := s.instances.UpdateWithEntries(ctx, inst, changed, model.InstanceCompleted); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.ChecklistVerified(ctx, inst, decision == DecisionApprove); err != nil {
			s.logger.Warn("verified notification failed",
				zap.String("instance_id", inst.InstanceID), zap.Error(err))
		}
	}
	return inst, nil
}
