package entity

import (
	"strings"
	"time"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
)

type PostStatus string

const (
	StatusDraft           PostStatus = "draft"
	StatusPendingApproval PostStatus = "pending_approval"
	StatusApproved        PostStatus = "approved"
	StatusRejected        PostStatus = "rejected"
	StatusScheduled       PostStatus = "scheduled"
	StatusPublished       PostStatus = "published"
)

var statuses = []PostStatus{
	StatusDraft, StatusPendingApproval, StatusApproved,
	StatusRejected, StatusScheduled, StatusPublished,
}

func Statuses() []PostStatus {
	return append([]PostStatus(nil), statuses...)
}

func (s PostStatus) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Occupied reports whether a post in this status holds its schedule window.
func (s PostStatus) Occupied() bool {
	return s == StatusScheduled || s == StatusPublished
}

// OccupyingStatuses lists the statuses whose posts hold a schedule window.
func OccupyingStatuses() []PostStatus {
	var out []PostStatus
	for _, s := range statuses {
		if s.Occupied() {
			out = append(out, s)
		}
	}
	return out
}

type Post struct {
	ID              string             `json:"id"`
	OwnerID         string             `json:"owner_id"`
	CampaignID      string             `json:"campaign_id,omitempty"`
	Caption         string             `json:"caption"`
	Hashtags        []string           `json:"hashtags"`
	CTA             string             `json:"cta,omitempty"`
	MediaRefs       []string           `json:"media_refs"`
	Platforms       []caption.Platform `json:"platforms"`
	Status          PostStatus         `json:"status"`
	ApprovedBy      string             `json:"approved_by,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	ScheduledFor    *time.Time         `json:"scheduled_for,omitempty"`
	PublishedAt     *time.Time         `json:"published_at,omitempty"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Candidate returns the post's content in the shape the moderator reads.
func (p *Post) Candidate() caption.Candidate {
	return caption.Candidate{
		Caption:  p.Caption,
		Hashtags: append([]string(nil), p.Hashtags...),
		CTA:      p.CTA,
	}
}

func (p *Post) HasPlatform(platform caption.Platform) bool {
	for _, have := range p.Platforms {
		if have == platform {
			return true
		}
	}
	return false
}

// Clone copies the slices and time pointers so callers can mutate freely.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Hashtags = append([]string(nil), p.Hashtags...)
	cp.MediaRefs = append([]string(nil), p.MediaRefs...)
	cp.Platforms = append([]caption.Platform(nil), p.Platforms...)
	if p.ScheduledFor != nil {
		t := *p.ScheduledFor
		cp.ScheduledFor = &t
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}

// PostFilter narrows Find. Zero fields do not filter.
type PostFilter struct {
	OwnerID       string
	Statuses      []PostStatus
	Platform      caption.Platform
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	ExcludeID     string
	Limit         int
	Offset        int
}

// PostUpdate carries content edits; nil fields are left unchanged.
type PostUpdate struct {
	Caption    *string            `json:"caption,omitempty"`
	Hashtags   []string           `json:"hashtags,omitempty"`
	CTA        *string            `json:"cta,omitempty"`
	Platforms  []caption.Platform `json:"platforms,omitempty"`
	CampaignID *string            `json:"campaign_id,omitempty"`
}

func (u PostUpdate) Empty() bool {
	return u.Caption == nil && u.Hashtags == nil && u.CTA == nil && u.Platforms == nil && u.CampaignID == nil
}

// ValidatePlatforms requires a non-empty set of known platforms.
func ValidatePlatforms(platforms []caption.Platform) error {
	if len(platforms) == 0 {
		return apperr.New(apperr.CodeInvalidRequest, "at least one platform is required").
			WithReasons("platforms.required")
	}
	for _, p := range platforms {
		if !p.Valid() {
			return apperr.Newf(apperr.CodeInvalidRequest, "unknown platform %q, expected one of %s", p, platformList()).
				WithReasons("platform.unknown")
		}
	}
	return nil
}

func platformList() string {
	names := make([]string, 0, len(caption.Platforms()))
	for _, p := range caption.Platforms() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
