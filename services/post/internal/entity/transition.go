package entity

import (
	"postcraft/pkg/apperr"
)

type Transition string

const (
	TransitionSubmit     Transition = "submit"
	TransitionApprove    Transition = "approve"
	TransitionReject     Transition = "reject"
	TransitionSchedule   Transition = "schedule"
	TransitionUnschedule Transition = "unschedule"
	TransitionPublish    Transition = "publish"
)

type edge struct {
	from []PostStatus
	to   PostStatus
}

// The lifecycle graph. Unschedule is the only back-edge; a rejected post
// stays rejected until it is recreated as a draft.
var graph = map[Transition]edge{
	TransitionSubmit:     {from: []PostStatus{StatusDraft}, to: StatusPendingApproval},
	TransitionApprove:    {from: []PostStatus{StatusPendingApproval}, to: StatusApproved},
	TransitionReject:     {from: []PostStatus{StatusPendingApproval}, to: StatusRejected},
	TransitionSchedule:   {from: []PostStatus{StatusApproved}, to: StatusScheduled},
	TransitionUnschedule: {from: []PostStatus{StatusScheduled}, to: StatusDraft},
	TransitionPublish:    {from: []PostStatus{StatusScheduled}, to: StatusPublished},
}

// Target is the status a transition lands on.
func (t Transition) Target() PostStatus {
	return graph[t].to
}

func (t Transition) AllowedFrom(s PostStatus) bool {
	for _, from := range graph[t].from {
		if from == s {
			return true
		}
	}
	return false
}

// Check returns an invalid_transition error when t cannot leave s.
func (t Transition) Check(s PostStatus) error {
	if t.AllowedFrom(s) {
		return nil
	}
	return apperr.Newf(apperr.CodeInvalidTransition, "cannot %s a post in status %s", t, s).
		WithReasons("status." + string(s))
}
