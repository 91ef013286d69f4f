package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postcraft/pkg/apperr"
	"postcraft/services/post/internal/entity"
	"postcraft/services/post/internal/model"

	"gorm.io/gorm"
)

// ErrStaleVersion means the row changed since it was read.
var ErrStaleVersion = apperr.New(apperr.CodeInvalidTransition, "post was modified concurrently").
	WithReasons("version.stale")

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	// Update writes post if its Version still matches the stored row and
	// bumps Version on success.
	Update(ctx context.Context, post *entity.Post) error
	Find(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	postModel := ToPostModel(post)
	if err := r.db.WithContext(ctx).Create(postModel).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	*post = *ToPostEntity(postModel)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var postModel model.PostModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&postModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "post %s not found", id)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return ToPostEntity(&postModel), nil
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	m := ToPostModel(post)
	now := time.Now().UTC()

	// A map so cleared fields (scheduled_for) are written as NULL
	result := r.db.WithContext(ctx).
		Model(&model.PostModel{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]interface{}{
			"campaign_id":      m.CampaignID,
			"caption":          m.Caption,
			"hashtags":         m.Hashtags,
			"cta":              m.CTA,
			"media_refs":       m.MediaRefs,
			"platforms":        m.Platforms,
			"status":           m.Status,
			"approved_by":      m.ApprovedBy,
			"rejection_reason": m.RejectionReason,
			"scheduled_for":    m.ScheduledFor,
			"published_at":     m.PublishedAt,
			"version":          m.Version + 1,
			"updated_at":       now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	post.Version = m.Version + 1
	post.UpdatedAt = now
	return nil
}

func (r *postRepository) Find(ctx context.Context, filter entity.PostFilter) ([]*entity.Post, error) {
	query := r.db.WithContext(ctx).Model(&model.PostModel{})

	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.Platform != "" {
		query = query.Where("? = ANY(platforms)", string(filter.Platform))
	}
	if filter.ScheduledFrom != nil {
		query = query.Where("scheduled_for > ?", *filter.ScheduledFrom)
	}
	if filter.ScheduledTo != nil {
		query = query.Where("scheduled_for < ?", *filter.ScheduledTo)
	}
	if filter.ExcludeID != "" {
		query = query.Where("id <> ?", filter.ExcludeID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var postModels []model.PostModel
	if err := query.Order("created_at DESC").Find(&postModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}

	posts := make([]*entity.Post, len(postModels))
	for i := range postModels {
		posts[i] = ToPostEntity(&postModels[i])
	}
	return posts, nil
}
