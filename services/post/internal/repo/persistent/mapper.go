package persistent

import (
	"postcraft/pkg/caption"
	"postcraft/services/post/internal/entity"
	"postcraft/services/post/internal/model"

	"github.com/lib/pq"
)

func ToPostEntity(m *model.PostModel) *entity.Post {
	if m == nil {
		return nil
	}

	platforms := make([]caption.Platform, len(m.Platforms))
	for i, p := range m.Platforms {
		platforms[i] = caption.Platform(p)
	}

	return &entity.Post{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		CampaignID:      m.CampaignID,
		Caption:         m.Caption,
		Hashtags:        nonNil(m.Hashtags),
		CTA:             m.CTA,
		MediaRefs:       nonNil(m.MediaRefs),
		Platforms:       platforms,
		Status:          entity.PostStatus(m.Status),
		ApprovedBy:      m.ApprovedBy,
		RejectionReason: m.RejectionReason,
		ScheduledFor:    m.ScheduledFor,
		PublishedAt:     m.PublishedAt,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func ToPostModel(e *entity.Post) *model.PostModel {
	if e == nil {
		return nil
	}

	platforms := make(pq.StringArray, len(e.Platforms))
	for i, p := range e.Platforms {
		platforms[i] = string(p)
	}

	return &model.PostModel{
		ID:              e.ID,
		OwnerID:         e.OwnerID,
		CampaignID:      e.CampaignID,
		Caption:         e.Caption,
		Hashtags:        pq.StringArray(nonNil(e.Hashtags)),
		CTA:             e.CTA,
		MediaRefs:       pq.StringArray(nonNil(e.MediaRefs)),
		Platforms:       platforms,
		Status:          string(e.Status),
		ApprovedBy:      e.ApprovedBy,
		RejectionReason: e.RejectionReason,
		ScheduledFor:    e.ScheduledFor,
		PublishedAt:     e.PublishedAt,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
