package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"sort"
	"strings"
	"time"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
	"postcraft/pkg/lock"
	"postcraft/pkg/logger"
	"postcraft/pkg/metrics"
	"postcraft/pkg/queue"
	"postcraft/pkg/safety"
	"postcraft/services/post/internal/entity"
	"postcraft/services/post/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PublishedChannel carries a message for every post that goes live.
const PublishedChannel = "post_published"

const (
	DefaultScheduleWindow = 30 * time.Minute
	DefaultSuggestOffset  = 15 * time.Minute

	postCacheTTL = 10 * time.Minute
)

type PostUseCase interface {
	CreatePost(ctx context.Context, actor entity.Actor, input CreatePostInput) (*entity.Post, error)
	GetPost(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error)
	ListPosts(ctx context.Context, actor entity.Actor, query ListQuery) ([]*entity.Post, error)
	UpdatePost(ctx context.Context, actor entity.Actor, postID string, update entity.PostUpdate) (*entity.Post, error)
	AttachMedia(ctx context.Context, actor entity.Actor, postID string, media MediaUpload) (*entity.Post, error)

	Submit(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error)
	Approve(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error)
	Reject(ctx context.Context, actor entity.Actor, postID, reason string) (*entity.Post, error)
	Schedule(ctx context.Context, actor entity.Actor, postID string, at time.Time) (*entity.Post, error)
	Unschedule(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error)
	Publish(ctx context.Context, actor entity.Actor, postID string, force bool) (*entity.Post, error)

	ScheduleConflicts(ctx context.Context, actor entity.Actor, query ConflictQuery) ([]*entity.Post, error)
}

type CreatePostInput struct {
	CampaignID string
	Caption    string
	Hashtags   []string
	CTA        string
	Platforms  []caption.Platform
}

type ListQuery struct {
	OwnerID  string
	Status   entity.PostStatus
	Platform caption.Platform
	Limit    int
	Offset   int
}

type MediaUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ConflictQuery struct {
	OwnerID   string
	Platform  caption.Platform
	At        time.Time
	Duration  time.Duration
	ExcludeID string
}

// MediaStore keeps uploaded post media and returns a reference to it.
type MediaStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// ReviewNotifier receives published content a human should look at.
type ReviewNotifier interface {
	PublishReviewTask(ctx context.Context, task queue.ReviewTask) error
}

type Option func(*postUseCase)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(uc *postUseCase) { uc.now = now }
}

func WithScheduleWindow(window, suggestOffset time.Duration) Option {
	return func(uc *postUseCase) {
		if window > 0 {
			uc.window = window
		}
		if suggestOffset > 0 {
			uc.suggestOffset = suggestOffset
		}
	}
}

type postUseCase struct {
	postRepo      persistent.PostRepository
	moderator     *safety.Moderator
	locker        lock.Locker
	media         MediaStore
	redisClient   *redis.Client
	review        ReviewNotifier
	metrics       *metrics.Collector
	logger        *logger.Logger
	now           func() time.Time
	window        time.Duration
	suggestOffset time.Duration
}

func NewPostUseCase(
	postRepo persistent.PostRepository,
	moderator *safety.Moderator,
	locker lock.Locker,
	media MediaStore,
	redisClient *redis.Client,
	review ReviewNotifier,
	metrics *metrics.Collector,
	logger *logger.Logger,
	opts ...Option,
) PostUseCase {
	uc := &postUseCase{
		postRepo:      postRepo,
		moderator:     moderator,
		locker:        locker,
		media:         media,
		redisClient:   redisClient,
		review:        review,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
		window:        DefaultScheduleWindow,
		suggestOffset: DefaultSuggestOffset,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *postUseCase) CreatePost(ctx context.Context, actor entity.Actor, input CreatePostInput) (*entity.Post, error) {
	if actor.UserID == "" {
		return nil, ErrForbidden
	}
	if err := entity.ValidatePlatforms(input.Platforms); err != nil {
		return nil, err
	}

	post := &entity.Post{
		OwnerID:    actor.UserID,
		CampaignID: input.CampaignID,
		Caption:    strings.TrimSpace(input.Caption),
		Hashtags:   caption.NormalizeHashtags(input.Hashtags),
		CTA:        strings.TrimSpace(input.CTA),
		MediaRefs:  []string{},
		Platforms:  dedupePlatforms(input.Platforms),
		Status:     entity.StatusDraft,
	}
	if err := uc.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	uc.logger.WithField("post_id", post.ID).Info("Draft created by %s", actor.UserID)
	return post, nil
}

func (uc *postUseCase) GetPost(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	post := uc.cachedPost(ctx, postID)
	if post == nil {
		var err error
		if post, err = uc.postRepo.GetByID(ctx, postID); err != nil {
			return nil, err
		}
		uc.cachePost(ctx, post)
	}
	if !actor.CanManage(post) {
		return nil, ErrForbidden
	}
	return post, nil
}

func (uc *postUseCase) ListPosts(ctx context.Context, actor entity.Actor, query ListQuery) ([]*entity.Post, error) {
	filter := entity.PostFilter{
		OwnerID:  actor.UserID,
		Platform: query.Platform,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if actor.IsAdmin() {
		filter.OwnerID = query.OwnerID
	} else if query.OwnerID != "" && query.OwnerID != actor.UserID {
		return nil, ErrForbidden
	}
	if query.Status != "" {
		if !query.Status.Valid() {
			return nil, apperr.Newf(apperr.CodeInvalidRequest, "unknown status %q", query.Status)
		}
		filter.Statuses = []entity.PostStatus{query.Status}
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return uc.postRepo.Find(ctx, filter)
}

func (uc *postUseCase) UpdatePost(ctx context.Context, actor entity.Actor, postID string, update entity.PostUpdate) (*entity.Post, error) {
	if update.Empty() {
		return nil, apperr.New(apperr.CodeInvalidRequest, "nothing to update")
	}
	if update.Platforms != nil {
		if err := entity.ValidatePlatforms(update.Platforms); err != nil {
			return nil, err
		}
	}

	return uc.withPost(ctx, actor, postID, func(post *entity.Post, _ *lockSet) error {
		if post.Status != entity.StatusDraft {
			return ErrNotEditable
		}
		if update.Caption != nil {
			post.Caption = strings.TrimSpace(*update.Caption)
		}
		if update.Hashtags != nil {
			post.Hashtags = caption.NormalizeHashtags(update.Hashtags)
		}
		if update.CTA != nil {
			post.CTA = strings.TrimSpace(*update.CTA)
		}
		if update.Platforms != nil {
			post.Platforms = dedupePlatforms(update.Platforms)
		}
		if update.CampaignID != nil {
			post.CampaignID = *update.CampaignID
		}
		return nil
	})
}

func (uc *postUseCase) AttachMedia(ctx context.Context, actor entity.Actor, postID string, media MediaUpload) (*entity.Post, error) {
	if uc.media == nil {
		return nil, apperr.New(apperr.CodePreconditionFailed, "media storage is not configured")
	}
	if media.Body == nil {
		return nil, apperr.New(apperr.CodeInvalidRequest, "media file is required")
	}

	return uc.withPost(ctx, actor, postID, func(post *entity.Post, _ *lockSet) error {
		if post.Status != entity.StatusDraft {
			return ErrNotEditable
		}
		contentType := media.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		key := fmt.Sprintf("posts/%s/%s/%s%s", post.OwnerID, post.ID, uuid.New().String(), path.Ext(media.Filename))
		ref, err := uc.media.Upload(ctx, key, media.Body, contentType)
		if err != nil {
			return fmt.Errorf("failed to upload media: %w", err)
		}
		post.MediaRefs = append(post.MediaRefs, ref)
		return nil
	})
}

func (uc *postUseCase) Submit(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	return uc.transition(ctx, actor, postID, entity.TransitionSubmit, nil)
}

func (uc *postUseCase) Approve(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	return uc.transition(ctx, actor, postID, entity.TransitionApprove, func(post *entity.Post, _ *lockSet) error {
		post.ApprovedBy = actor.UserID
		return nil
	})
}

func (uc *postUseCase) Reject(ctx context.Context, actor entity.Actor, postID, reason string) (*entity.Post, error) {
	reason = strings.TrimSpace(reason)
	return uc.transition(ctx, actor, postID, entity.TransitionReject, func(post *entity.Post, _ *lockSet) error {
		if reason == "" {
			return ErrReasonRequired
		}
		post.RejectionReason = reason
		return nil
	})
}

func (uc *postUseCase) Schedule(ctx context.Context, actor entity.Actor, postID string, at time.Time) (*entity.Post, error) {
	at = at.UTC()
	return uc.transition(ctx, actor, postID, entity.TransitionSchedule, func(post *entity.Post, locks *lockSet) error {
		if !at.After(uc.now()) {
			return ErrTimeNotFuture
		}

		// Conflict check and write happen under the owner+platform locks
		keys := make([]string, 0, len(post.Platforms))
		for _, p := range post.Platforms {
			keys = append(keys, scheduleLockKey(post.OwnerID, p))
		}
		if err := locks.acquire(keys...); err != nil {
			return err
		}

		conflicts, err := uc.findConflicts(ctx, post.OwnerID, post.Platforms, at, uc.window, post.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			uc.metrics.ObserveScheduleConflict()
			return &ConflictError{Conflicts: conflicts, SuggestedAt: at.Add(uc.suggestOffset)}
		}

		post.ScheduledFor = &at
		return nil
	})
}

func (uc *postUseCase) Unschedule(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	return uc.transition(ctx, actor, postID, entity.TransitionUnschedule, func(post *entity.Post, _ *lockSet) error {
		post.ScheduledFor = nil
		return nil
	})
}

func (uc *postUseCase) Publish(ctx context.Context, actor entity.Actor, postID string, force bool) (*entity.Post, error) {
	var gate safety.Result

	post, err := uc.withPost(ctx, actor, postID, func(post *entity.Post, _ *lockSet) error {
		if err := entity.TransitionPublish.Check(post.Status); err != nil {
			if !force || post.Status != entity.StatusApproved {
				return err
			}
			if !actor.IsAdmin() {
				return ErrForbidden
			}
		}

		gate = uc.prePublish(post)
		uc.metrics.ObserveModeration("pre_publish", string(gate.Decision))
		if gate.Blocked() {
			return apperr.New(apperr.CodeContentPolicyViolation, "post failed the pre-publish check").
				WithReasons(gate.Reasons...).
				WithCoaching(gate.Coaching...)
		}

		now := uc.now().UTC()
		post.Status = entity.StatusPublished
		post.PublishedAt = &now
		return nil
	})
	uc.metrics.ObserveTransition(string(entity.TransitionPublish), err)
	if err != nil {
		return nil, err
	}

	uc.announce(ctx, post)
	if gate.NeedsReview() {
		uc.requestReview(ctx, post, gate)
	}
	return post, nil
}

func (uc *postUseCase) ScheduleConflicts(ctx context.Context, actor entity.Actor, query ConflictQuery) ([]*entity.Post, error) {
	ownerID := query.OwnerID
	if ownerID == "" {
		ownerID = actor.UserID
	}
	if ownerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !query.Platform.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidRequest, "unknown platform %q", query.Platform).
			WithReasons("platform.unknown")
	}
	if query.At.IsZero() {
		return nil, apperr.New(apperr.CodeInvalidRequest, "a time is required")
	}
	duration := query.Duration
	if duration <= 0 {
		duration = uc.window
	}
	return uc.findConflicts(ctx, ownerID, []caption.Platform{query.Platform}, query.At.UTC(), duration, query.ExcludeID)
}

// findConflicts returns posts that occupy a window overlapping [at, at+d) on
// any of the platforms. Windows of equal length overlap iff their starts are
// less than d apart.
func (uc *postUseCase) findConflicts(ctx context.Context, ownerID string, platforms []caption.Platform, at time.Time, d time.Duration, excludeID string) ([]*entity.Post, error) {
	from, to := at.Add(-d), at.Add(d)
	seen := make(map[string]struct{})
	var conflicts []*entity.Post

	for _, platform := range platforms {
		posts, err := uc.postRepo.Find(ctx, entity.PostFilter{
			OwnerID:       ownerID,
			Statuses:      entity.OccupyingStatuses(),
			Platform:      platform,
			ScheduledFrom: &from,
			ScheduledTo:   &to,
			ExcludeID:     excludeID,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			conflicts = append(conflicts, p)
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].ScheduledFor.Before(*conflicts[j].ScheduledFor)
	})
	return conflicts, nil
}

func (uc *postUseCase) prePublish(post *entity.Post) safety.Result {
	text := post.Candidate().Text()
	result := safety.Result{Decision: safety.DecisionAllow, Reasons: []string{}}
	for _, platform := range post.Platforms {
		res := uc.moderator.PrePublishCheck(text, post.MediaRefs, platform)
		if res.Blocked() {
			return res
		}
		if res.NeedsReview() {
			result.Decision = safety.DecisionReview
			for _, reason := range res.Reasons {
				if !result.HasReason(reason) {
					result.Reasons = append(result.Reasons, reason)
				}
			}
			for _, tip := range res.Coaching {
				if !slices.Contains(result.Coaching, tip) {
					result.Coaching = append(result.Coaching, tip)
				}
			}
		}
	}
	return result
}

type publishedEvent struct {
	PostID      string             `json:"post_id"`
	OwnerID     string             `json:"owner_id"`
	Platforms   []caption.Platform `json:"platforms"`
	PublishedAt time.Time          `json:"published_at"`
}

// announce tells downstream platform publishers the post is live.
func (uc *postUseCase) announce(ctx context.Context, post *entity.Post) {
	if uc.redisClient == nil {
		return
	}
	payload, err := json.Marshal(publishedEvent{
		PostID:      post.ID,
		OwnerID:     post.OwnerID,
		Platforms:   post.Platforms,
		PublishedAt: *post.PublishedAt,
	})
	if err != nil {
		uc.logger.Error("Failed to encode published event: %v", err)
		return
	}
	if err := uc.redisClient.Publish(ctx, PublishedChannel, payload).Err(); err != nil {
		uc.logger.Error("Failed to announce published post %s: %v", post.ID, err)
	}
}

func (uc *postUseCase) requestReview(ctx context.Context, post *entity.Post, gate safety.Result) {
	if uc.review == nil {
		return
	}
	platform := ""
	if len(post.Platforms) > 0 {
		platform = string(post.Platforms[0])
	}
	task := queue.ReviewTask{
		Kind:     queue.KindPublication,
		PostID:   post.ID,
		OwnerID:  post.OwnerID,
		Platform: platform,
		Decision: string(gate.Decision),
		Reasons:  gate.Reasons,
		Coaching: gate.Coaching,
		Caption:  post.Candidate().Text(),
	}
	if err := uc.review.PublishReviewTask(ctx, task); err != nil {
		uc.logger.Error("Failed to queue post %s for review: %v", post.ID, err)
	}
}

// transition applies a lifecycle edge: authorize, check the source status,
// run extra preconditions, then move to the target status.
func (uc *postUseCase) transition(ctx context.Context, actor entity.Actor, postID string, t entity.Transition, apply func(*entity.Post, *lockSet) error) (*entity.Post, error) {
	post, err := uc.withPost(ctx, actor, postID, func(post *entity.Post, locks *lockSet) error {
		if err := t.Check(post.Status); err != nil {
			return err
		}
		if apply != nil {
			if err := apply(post, locks); err != nil {
				return err
			}
		}
		post.Status = t.Target()
		return nil
	})
	uc.metrics.ObserveTransition(string(t), err)
	if err != nil {
		uc.logger.WithFields(map[string]interface{}{
			"post_id":    postID,
			"transition": string(t),
			"code":       string(apperr.CodeOf(err)),
		}).Warn("Transition rejected: %v", err)
		return nil, err
	}
	uc.logger.WithFields(map[string]interface{}{
		"post_id":    post.ID,
		"transition": string(t),
		"status":     string(post.Status),
	}).Info("Post moved by %s", actor.UserID)
	return post, nil
}

// lockSet holds every lock taken for one post operation.
type lockSet struct {
	ctx    context.Context
	locker lock.Locker
	held   []lock.Release
}

func (s *lockSet) acquire(keys ...string) error {
	release, err := lock.AcquireAll(s.ctx, s.locker, keys...)
	if err != nil {
		return lockError(err)
	}
	s.held = append(s.held, release)
	return nil
}

func (s *lockSet) releaseAll() error {
	ctx := context.WithoutCancel(s.ctx)
	var errs []error
	for i := len(s.held) - 1; i >= 0; i-- {
		if err := s.held[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.held = nil
	return errors.Join(errs...)
}

// withPost serializes work on one post: it holds the post lock, plus any
// lock the mutation adds, across read, authorize, mutate and a
// version-checked write.
func (uc *postUseCase) withPost(ctx context.Context, actor entity.Actor, postID string, mutate func(*entity.Post, *lockSet) error) (*entity.Post, error) {
	locks := &lockSet{ctx: ctx, locker: uc.locker}
	if err := locks.acquire(postLockKey(postID)); err != nil {
		return nil, err
	}
	defer func() {
		if err := locks.releaseAll(); err != nil {
			uc.logger.Warn("Failed to release locks for post %s: %v", postID, err)
		}
	}()

	stored, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	// Authorization before state, so strangers learn nothing about the post
	if !actor.CanManage(stored) {
		return nil, ErrForbidden
	}

	post := stored.Clone()
	if err := mutate(post, locks); err != nil {
		return nil, err
	}
	if err := uc.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	uc.evictPost(ctx, post.ID)
	return post, nil
}

func postCacheKey(postID string) string {
	return "postcraft:post:" + postID
}

// cachedPost returns nil on a miss or when redis is unavailable.
func (uc *postUseCase) cachedPost(ctx context.Context, postID string) *entity.Post {
	if uc.redisClient == nil {
		return nil
	}
	raw, err := uc.redisClient.Get(ctx, postCacheKey(postID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			uc.logger.Warn("Failed to read cached post %s: %v", postID, err)
		}
		return nil
	}
	var post entity.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil
	}
	return &post
}

func (uc *postUseCase) cachePost(ctx context.Context, post *entity.Post) {
	if uc.redisClient == nil {
		return
	}
	payload, err := json.Marshal(post)
	if err != nil {
		return
	}
	if err := uc.redisClient.Set(ctx, postCacheKey(post.ID), payload, postCacheTTL).Err(); err != nil {
		uc.logger.Warn("Failed to cache post %s: %v", post.ID, err)
	}
}

func (uc *postUseCase) evictPost(ctx context.Context, postID string) {
	if uc.redisClient == nil {
		return
	}
	if err := uc.redisClient.Del(context.WithoutCancel(ctx), postCacheKey(postID)).Err(); err != nil {
		uc.logger.Warn("Failed to evict cached post %s: %v", postID, err)
	}
}

func lockError(err error) error {
	if errors.Is(err, lock.ErrNotAcquired) {
		return ErrBusy
	}
	return fmt.Errorf("failed to acquire lock: %w", err)
}

func postLockKey(postID string) string {
	return "post:" + postID
}

func scheduleLockKey(ownerID string, platform caption.Platform) string {
	return fmt.Sprintf("schedule:%s:%s", ownerID, platform)
}

func dedupePlatforms(platforms []caption.Platform) []caption.Platform {
	seen := make(map[caption.Platform]struct{}, len(platforms))
	out := make([]caption.Platform, 0, len(platforms))
	for _, p := range platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
