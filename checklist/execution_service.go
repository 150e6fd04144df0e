package checklist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"checkops/model"
)

// ItemResult is one item's outcome as submitted by the worker.
type ItemResult struct {
	ItemID    string   `json:"item_id"`
	Status    string   `json:"status"` // pass | fail | na
	Note      *string  `json:"note,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

// ExecutionService applies a worker's item results to an instance and drives
// the pending -> in_progress -> completed transitions.
type ExecutionService struct {
	instances InstanceStore
	notifier  Notifier
	clock     func() time.Time
	logger    *zap.Logger
}

func NewExecutionService(instances InstanceStore, notifier Notifier, logger *zap.Logger) *ExecutionService {
	return &ExecutionService{
		instances: instances,
		notifier:  notifier,
		clock:     time.Now,
		logger:    logger,
	}
}

// Execute upserts the submitted item results onto the instance. With
// submit=false it is a partial save: results persist, the instance moves to
// in_progress, and no scoring happens. With submit=true every required item
// must carry a result; the execution score is computed and the instance
// completes.
//
// Partial saves are accepted whenever the instance exists, even before the
// window opens — an instance created early by a manager is workable early.
// Only the final submit is window-gated, and only when the template enforces
// its cutoff.
//
// Re-submitting the same results is idempotent: entries are keyed by item id
// and overwritten in place.
func (s *ExecutionService) Execute(ctx context.Context, instanceID string, results []ItemResult, submit bool, actor Actor, loc *time.Location) (*model.ChecklistInstance, error) {
	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status != model.InstancePending && inst.Status != model.InstanceInProgress {
		return nil, fmt.Errorf("%w: cannot execute a %s instance", ErrInvalidState, inst.Status)
	}

	now := s.clock()

	if submit && inst.Template != nil && inst.Template.EnforceCutoff {
		ws := IsWithinTimeWindow(inst, now, loc)
		if ws.State == WindowClosed {
			return nil, ErrWindowClosed
		}
	}

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
		entry.ExecutedStatus = r.Status
		entry.Note = r.Note
		entry.PhotoURLs = r.PhotoURLs
		executedAt := now
		entry.ExecutedAt = &executedAt
		changed = append(changed, *entry)
	}

	if inst.StartedAt == nil {
		startedAt := now
		inst.StartedAt = &startedAt
	}

	if !submit {
		inst.Status = model.InstanceInProgress
		inst.UpdatedAt = now
		if err := s.instances.UpdateWithEntries(ctx, inst, changed, model.InstancePending, model.InstanceInProgress); err != nil {
			return nil, err
		}
		return inst, nil
	}

	if missing := missingRequired(inst); len(missing) > 0 {
		// Nothing was written yet, so the incomplete submit leaves no state
		// behind; the instance stays in its current status.
		return nil, &IncompleteRequiredItemsError{MissingItemIDs: missing}
	}

	if inst.Template != nil && inst.Template.ScoringEnabled {
		score := ExecutionScore(inst.Entries)
		inst.ExecutionScore = &score
		if !inst.Template.RequireVerification {
			total := TotalScore(score, 0, false, inst.Template.VerificationWeight)
			inst.TotalScore = &total
		}
	}

	completedAt := now
	inst.Status = model.InstanceCompleted
	inst.CompletedAt = &completedAt
	inst.UpdatedAt = now

	if err := s.instances.UpdateWithEntries(ctx, inst, changed, model.InstancePending, model.InstanceInProgress); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.ChecklistCompleted(ctx, inst); err != nil {
			s.logger.Warn("completed notification failed",
				zap.String("instance_id", inst.InstanceID), zap.Error(err))
		}
	}
	return inst, nil
}

// missingRequired returns the required item ids that still have no result,
// in display order. The template must be preloaded.
func missingRequired(inst *model.ChecklistInstance) []string {
	if inst.Template == nil {
		return nil
	}
	required := make(map[string]bool, len(inst.Template.Items))
	for _, item := range inst.Template.Items {
		if item.IsRequired {
			required[item.ItemID] = true
		}
	}

	entries := make([]model.ChecklistExecutionItem, len(inst.Entries))
	copy(entries, inst.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	var missing []string
	for _, e := range entries {
		if required[e.ItemID] && e.ExecutedStatus == model.ItemUnchecked {
			missing = append(missing, e.ItemID)
		}
	}
	return missing
}
