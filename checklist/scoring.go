package checklist

import (
	"math"

	"checkops/model"
)

// Scoring rules: only pass and fail results are scorable. Items marked na
// are excluded from both numerator and denominator, and unchecked entries
// (optional items that were never attempted) are excluded the same way. An
// instance with zero scorable items scores 100 — vacuously complete.

func scoreStatuses(total, passed int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(passed) / float64(total) * 100))
}

// ExecutionScore computes the 0-100 execution percentage from the entries'
// executed statuses.
func ExecutionScore(entries []model.ChecklistExecutionItem) int {
	scorable, passed := 0, 0
	for _, e := range entries {
		switch e.ExecutedStatus {
		case model.ItemPass:
			scorable++
			passed++
		case model.ItemFail:
			scorable++
		}
	}
	return scoreStatuses(scorable, passed)
}

// VerificationScore applies the same formula to the verified statuses.
func VerificationScore(entries []model.ChecklistExecutionItem) int {
	scorable, passed := 0, 0
	for _, e := range entries {
		switch e.VerifiedStatus {
		case model.ItemPass:
			scorable++
			passed++
		case model.ItemFail:
			scorable++
		}
	}
	return scoreStatuses(scorable, passed)
}

// TotalScore combines execution and verification into the instance total.
// Without verification the total is the execution score. With verification
// the scores are blended by weight (the verification share, 0..1); templates
// default to 0.5, the equal weighting. Out-of-range weights fall back to 0.5.
func TotalScore(execution, verification int, verificationRequired bool, weight float64) int {
	if !verificationRequired {
		return execution
	}
	if weight < 0 || weight > 1 {
		weight = 0.5
	}
	return int(math.Round(float64(execution)*(1-weight) + float64(verification)*weight))
}
