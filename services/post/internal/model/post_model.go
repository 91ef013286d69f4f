package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type PostModel struct {
	ID              string         `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID         string         `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	CampaignID      string         `gorm:"type:varchar(64);index" json:"campaign_id"`
	Caption         string         `gorm:"type:text" json:"caption"`
	Hashtags        pq.StringArray `gorm:"type:text[]" json:"hashtags"`
	CTA             string         `gorm:"column:cta;type:varchar(255)" json:"cta"`
	MediaRefs       pq.StringArray `gorm:"type:text[]" json:"media_refs"`
	Platforms       pq.StringArray `gorm:"type:text[];not null" json:"platforms"`
	Status          string         `gorm:"type:varchar(32);not null;index" json:"status"`
	ApprovedBy      string         `gorm:"type:varchar(64)" json:"approved_by"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	ScheduledFor    *time.Time     `gorm:"index" json:"scheduled_for"`
	PublishedAt     *time.Time     `json:"published_at"`
	Version         int            `gorm:"not null" json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (PostModel) TableName() string {
	return "posts"
}

func (p *PostModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}
