package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
	"postcraft/pkg/logger"
	"postcraft/services/post/internal/entity"
	"postcraft/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postUseCase usecase.PostUseCase
	logger      *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
		logger:      logger,
	}
}

func actorFrom(c *gin.Context) entity.Actor {
	return entity.Actor{
		UserID: c.GetString("user_id"),
		Role:   c.GetString("user_role"),
	}
}

// ConflictResponse is the 409 body for a schedule conflict.
type ConflictResponse struct {
	apperr.Response
	Conflicts   []*entity.Post `json:"conflicts"`
	SuggestedAt time.Time      `json:"suggested_at"`
}

func (h *PostHandler) fail(c *gin.Context, err error) {
	status, body := apperr.ToResponse(err)

	var conflict *usecase.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(status, ConflictResponse{
			Response:    body,
			Conflicts:   conflict.Conflicts,
			SuggestedAt: conflict.SuggestedAt,
		})
		return
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request %s failed: %v", c.FullPath(), err)
	}
	c.JSON(status, body)
}

func badRequest(err error) error {
	return apperr.New(apperr.CodeInvalidRequest, err.Error())
}

type CreatePostRequest struct {
	CampaignID string             `json:"campaign_id"`
	Caption    string             `json:"caption"`
	Hashtags   []string           `json:"hashtags"`
	CTA        string             `json:"cta"`
	Platforms  []caption.Platform `json:"platforms" binding:"required,min=1"`
}

// CreatePost godoc
// @Summary      Create a draft post
// @Description  Creates a post in draft status owned by the caller.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePostRequest true "Draft content"
// @Success      201  {object}  entity.Post
// @Failure      400  {object}  apperr.Response
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}

	post, err := h.postUseCase.CreatePost(c.Request.Context(), actorFrom(c), usecase.CreatePostInput{
		CampaignID: req.CampaignID,
		Caption:    req.Caption,
		Hashtags:   req.Hashtags,
		CTA:        req.CTA,
		Platforms:  req.Platforms,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPost godoc
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      403  {object}  apperr.Response
// @Failure      404  {object}  apperr.Response
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postUseCase.GetPost(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ListPosts godoc
// @Summary      List posts
// @Description  Lists the caller's posts. Admins may list any owner's posts.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id  query     string  false  "Owner ID (admin only)"
// @Param        status    query     string  false  "Status filter"
// @Param        platform  query     string  false  "Platform filter"
// @Param        limit     query     int     false  "Limit"   default(20)
// @Param        offset    query     int     false  "Offset"  default(0)
// @Success      200  {array}   entity.Post
// @Failure      400  {object}  apperr.Response
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	posts, err := h.postUseCase.ListPosts(c.Request.Context(), actorFrom(c), usecase.ListQuery{
		OwnerID:  c.Query("owner_id"),
		Status:   entity.PostStatus(c.Query("status")),
		Platform: caption.Platform(c.Query("platform")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// UpdatePost godoc
// @Summary      Edit a draft
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string             true  "Post ID"
// @Param        request  body  entity.PostUpdate  true  "Fields to change"
// @Success      200  {object}  entity.Post
// @Failure      409  {object}  apperr.Response
// @Router       /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req entity.PostUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}

	post, err := h.postUseCase.UpdatePost(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// AttachMedia godoc
// @Summary      Attach media to a draft
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Post ID"
// @Param        media  formData  file    true  "Image or video file"
// @Success      200  {object}  entity.Post
// @Failure      400  {object}  apperr.Response
// @Router       /posts/{id}/media [post]
func (h *PostHandler) AttachMedia(c *gin.Context) {
	file, err := c.FormFile("media")
	if err != nil {
		h.fail(c, apperr.New(apperr.CodeInvalidRequest, "media file is required"))
		return
	}
	src, err := file.Open()
	if err != nil {
		h.fail(c, badRequest(err))
		return
	}
	defer src.Close()

	post, err := h.postUseCase.AttachMedia(c.Request.Context(), actorFrom(c), c.Param("id"), usecase.MediaUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Body:        src,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Submit godoc
// @Summary      Submit a draft for approval
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      403  {object}  apperr.Response
// @Failure      409  {object}  apperr.Response
// @Router       /posts/{id}/submit [post]
func (h *PostHandler) Submit(c *gin.Context) {
	post, err := h.postUseCase.Submit(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Approve godoc
// @Summary      Approve a pending post
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      403  {object}  apperr.Response
// @Failure      409  {object}  apperr.Response
// @Router       /posts/{id}/approve [post]
func (h *PostHandler) Approve(c *gin.Context) {
	post, err := h.postUseCase.Approve(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject godoc
// @Summary      Reject a pending post
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string         true  "Post ID"
// @Param        request  body  RejectRequest  true  "Rejection reason"
// @Success      200  {object}  entity.Post
// @Failure      409  {object}  apperr.Response
// @Failure      422  {object}  apperr.Response
// @Router       /posts/{id}/reject [post]
func (h *PostHandler) Reject(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}

	post, err := h.postUseCase.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type ScheduleRequest struct {
	ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
}

// Schedule godoc
// @Summary      Schedule an approved post
// @Description  Fails with schedule_conflict when another post of the owner occupies the window on one of the platforms.
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string           true  "Post ID"
// @Param        request  body  ScheduleRequest  true  "UTC publish time (RFC 3339)"
// @Success      200  {object}  entity.Post
// @Failure      409  {object}  ConflictResponse
// @Failure      422  {object}  apperr.Response
// @Router       /posts/{id}/schedule [post]
func (h *PostHandler) Schedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err))
		return
	}

	post, err := h.postUseCase.Schedule(c.Request.Context(), actorFrom(c), c.Param("id"), req.ScheduledFor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Unschedule godoc
// @Summary      Unschedule a post
// @Description  Moves a scheduled post back to draft.
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      409  {object}  apperr.Response
// @Router       /posts/{id}/schedule [delete]
func (h *PostHandler) Unschedule(c *gin.Context) {
	post, err := h.postUseCase.Unschedule(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Publish godoc
// @Summary      Publish a scheduled post
// @Description  Runs the pre-publish moderation gate. Admins may pass force=true to publish an approved post directly.
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id     path   string  true   "Post ID"
// @Param        force  query  bool    false  "Admin override"
// @Success      200  {object}  entity.Post
// @Failure      409  {object}  apperr.Response
// @Failure      422  {object}  apperr.Response
// @Router       /posts/{id}/publish [post]
func (h *PostHandler) Publish(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	post, err := h.postUseCase.Publish(c.Request.Context(), actorFrom(c), c.Param("id"), force)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ScheduleConflicts godoc
// @Summary      Find schedule conflicts
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id          query  string  false  "Owner ID (defaults to caller)"
// @Param        platform          query  string  true   "Platform"
// @Param        at                query  string  true   "Window start (RFC 3339)"
// @Param        duration_minutes  query  int     false  "Window length"  default(30)
// @Param        exclude_id        query  string  false  "Post to ignore"
// @Success      200  {array}   entity.Post
// @Failure      400  {object}  apperr.Response
// @Router       /schedule/conflicts [get]
func (h *PostHandler) ScheduleConflicts(c *gin.Context) {
	at, err := time.Parse(time.RFC3339, c.Query("at"))
	if err != nil {
		h.fail(c, apperr.New(apperr.CodeInvalidRequest, "at must be an RFC 3339 time"))
		return
	}
	minutes, _ := strconv.Atoi(c.DefaultQuery("duration_minutes", "0"))

	posts, err := h.postUseCase.ScheduleConflicts(c.Request.Context(), actorFrom(c), usecase.ConflictQuery{
		OwnerID:   c.Query("owner_id"),
		Platform:  caption.Platform(c.Query("platform")),
		At:        at,
		Duration:  time.Duration(minutes) * time.Minute,
		ExcludeID: c.Query("exclude_id"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if posts == nil {
		posts = []*entity.Post{}
	}
	c.JSON(http.StatusOK, posts)
}
