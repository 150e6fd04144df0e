package checklist

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors. All are recoverable, caller-facing conditions; the
// controllers translate them to HTTP statuses. Store/transport failures are
// returned as-is so callers can tell "bad input" from "try again".
var (
	ErrTemplateNotFound  = errors.New("checklist template not found")
	ErrInstanceNotFound  = errors.New("checklist instance not found")
	ErrNotScheduledToday = errors.New("checklist is not scheduled on this date")
	ErrInvalidState      = errors.New("operation not allowed in the instance's current status")
	ErrWindowClosed      = errors.New("submission window has closed")
	ErrUnknownItem       = errors.New("item does not belong to the checklist")
	ErrInvalidItemStatus = errors.New("item status must be pass, fail or na")
	ErrInvalidDecision   = errors.New("decision must be approve or reject")
	ErrSelfVerification  = errors.New("assignee cannot verify their own checklist")
)

// IncompleteRequiredItemsError is returned by a final submit when required
// items still have no result. It lists exactly which items are missing so
// the caller can surface them.
type IncompleteRequiredItemsError struct {
	MissingItemIDs []string
}

func (e *IncompleteRequiredItemsError) Error() string {
	return fmt.Sprintf("required items have no result: %s", strings.Join(e.MissingItemIDs, ", "))
}
