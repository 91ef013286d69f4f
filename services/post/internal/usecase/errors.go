package usecase

import (
	"fmt"
	"time"

	"postcraft/pkg/apperr"
	"postcraft/services/post/internal/entity"
)

var (
	ErrForbidden = apperr.New(apperr.CodeAuthorizationFailed, "only the owner or an admin may do this")

	ErrTimeNotFuture = apperr.New(apperr.CodePreconditionFailed, "scheduled time must be in the future").
				WithReasons("time_must_be_future")

	ErrReasonRequired = apperr.New(apperr.CodePreconditionFailed, "a rejection reason is required").
				WithReasons("reason.required")

	ErrNotEditable = apperr.New(apperr.CodeInvalidTransition, "only draft posts can be edited").
			WithReasons("status.not_draft")

	ErrBusy = apperr.New(apperr.CodeInvalidTransition, "post is being modified, retry shortly").
		WithReasons("lock.busy")
)

// ConflictError is returned by Schedule when the owner already has a post in
// the requested window on one of the platforms.
type ConflictError struct {
	Conflicts   []*entity.Post
	SuggestedAt time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule_conflict: %d post(s) overlap, try %s", len(e.Conflicts), e.SuggestedAt.Format(time.RFC3339))
}

func (e *ConflictError) Unwrap() error {
	ids := make([]string, len(e.Conflicts))
	for i, p := range e.Conflicts {
		ids[i] = p.ID
	}
	return apperr.New(apperr.CodeScheduleConflict, "another post is scheduled in this window").
		WithReasons(ids...)
}
