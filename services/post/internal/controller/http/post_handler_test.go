package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
	"postcraft/pkg/logger"
	"postcraft/services/post/internal/entity"
	"postcraft/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostUseCase is a mock implementation of PostUseCase
type MockPostUseCase struct {
	mock.Mock
}

func (m *MockPostUseCase) post(args mock.Arguments) (*entity.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) posts(args mock.Arguments) ([]*entity.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) CreatePost(ctx context.Context, actor entity.Actor, input usecase.CreatePostInput) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, input))
}

func (m *MockPostUseCase) GetPost(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID))
}

func (m *MockPostUseCase) ListPosts(ctx context.Context, actor entity.Actor, query usecase.ListQuery) ([]*entity.Post, error) {
	return m.posts(m.Called(ctx, actor, query))
}

func (m *MockPostUseCase) UpdatePost(ctx context.Context, actor entity.Actor, postID string, update entity.PostUpdate) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID, update))
}

func (m *MockPostUseCase) AttachMedia(ctx context.Context, actor entity.Actor, postID string, media usecase.MediaUpload) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID, media))
}

func (m *MockPostUseCase) Submit(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID))
}

func (m *MockPostUseCase) Approve(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID))
}

func (m *MockPostUseCase) Reject(ctx context.Context, actor entity.Actor, postID, reason string) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID, reason))
}

func (m *MockPostUseCase) Schedule(ctx context.Context, actor entity.Actor, postID string, at time.Time) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID, at))
}

func (m *MockPostUseCase) Unschedule(ctx context.Context, actor entity.Actor, postID string) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID))
}

func (m *MockPostUseCase) Publish(ctx context.Context, actor entity.Actor, postID string, force bool) (*entity.Post, error) {
	return m.post(m.Called(ctx, actor, postID, force))
}

func (m *MockPostUseCase) ScheduleConflicts(ctx context.Context, actor entity.Actor, query usecase.ConflictQuery) ([]*entity.Post, error) {
	return m.posts(m.Called(ctx, actor, query))
}

var _ usecase.PostUseCase = (*MockPostUseCase)(nil)

var testOwner = entity.Actor{UserID: "owner-123", Role: "member"}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func asActor(actor entity.Actor, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", actor.UserID)
		c.Set("user_role", actor.Role)
		h(c)
	}
}

func TestCreatePost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", asActor(testOwner, handler.CreatePost))

	input := usecase.CreatePostInput{
		Caption:   "Fresh bread daily.",
		Hashtags:  []string{"#bread"},
		Platforms: []caption.Platform{caption.PlatformInstagram},
	}
	mockUseCase.On("CreatePost", mock.Anything, testOwner, input).
		Return(&entity.Post{ID: "post-1", OwnerID: testOwner.UserID, Status: entity.StatusDraft}, nil)

	body := `{"caption":"Fresh bread daily.","hashtags":["#bread"],"platforms":["instagram"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "draft", response["status"])
	mockUseCase.AssertExpectations(t)
}

func TestCreatePost_MissingPlatforms(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", asActor(testOwner, handler.CreatePost))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", bytes.NewBufferString(`{"caption":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_ErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperr.Code
	}{
		{"wrong state", apperr.New(apperr.CodeInvalidTransition, "cannot approve a post in status draft"), http.StatusConflict, apperr.CodeInvalidTransition},
		{"not allowed", usecase.ErrForbidden, http.StatusForbidden, apperr.CodeAuthorizationFailed},
		{"missing", apperr.New(apperr.CodeNotFound, "post missing not found"), http.StatusNotFound, apperr.CodeNotFound},
		{"infrastructure", errors.New("connection refused"), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := new(MockPostUseCase)
			handler := NewPostHandler(mockUseCase, logger.New())

			router := setupTestRouter()
			router.POST("/posts/:id/approve", asActor(testOwner, handler.Approve))

			mockUseCase.On("Approve", mock.Anything, testOwner, "post-1").Return(nil, tt.err)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/posts/post-1/approve", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var response apperr.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantCode, response.Error)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestReject_PassesReason(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/reject", asActor(testOwner, handler.Reject))

	mockUseCase.On("Reject", mock.Anything, testOwner, "post-1", "Off brand").
		Return(&entity.Post{ID: "post-1", Status: entity.StatusRejected, RejectionReason: "Off brand"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/reject", bytes.NewBufferString(`{"reason":"Off brand"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestSchedule_PastTime(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/schedule", asActor(testOwner, handler.Schedule))

	at := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	mockUseCase.On("Schedule", mock.Anything, testOwner, "post-1", mock.MatchedBy(func(t time.Time) bool {
		return t.Equal(at)
	})).Return(nil, usecase.ErrTimeNotFuture)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/schedule", bytes.NewBufferString(`{"scheduled_for":"2020-01-01T12:00:00Z"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var response apperr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, apperr.CodePreconditionFailed, response.Error)
	assert.Equal(t, []string{"time_must_be_future"}, response.Reasons)
}

func TestSchedule_Conflict(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/schedule", asActor(testOwner, handler.Schedule))

	at := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	existing := at.Add(-10 * time.Minute)
	conflict := &usecase.ConflictError{
		Conflicts:   []*entity.Post{{ID: "post-0", Status: entity.StatusScheduled, ScheduledFor: &existing}},
		SuggestedAt: at.Add(15 * time.Minute),
	}
	mockUseCase.On("Schedule", mock.Anything, testOwner, "post-1", mock.Anything).Return(nil, conflict)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/schedule", bytes.NewBufferString(`{"scheduled_for":"2030-05-01T12:00:00Z"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var response ConflictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, apperr.CodeScheduleConflict, response.Error)
	require.Len(t, response.Conflicts, 1)
	assert.Equal(t, "post-0", response.Conflicts[0].ID)
	assert.True(t, at.Add(15*time.Minute).Equal(response.SuggestedAt))
}

func TestSchedule_BadBody(t *testing.T) {
	handler := NewPostHandler(new(MockPostUseCase), logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/schedule", asActor(testOwner, handler.Schedule))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/schedule", bytes.NewBufferString(`{"scheduled_for":"tomorrow"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnschedule_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.DELETE("/posts/:id/schedule", asActor(testOwner, handler.Unschedule))

	mockUseCase.On("Unschedule", mock.Anything, testOwner, "post-1").
		Return(&entity.Post{ID: "post-1", Status: entity.StatusDraft}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/posts/post-1/schedule", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"draft"`)
	mockUseCase.AssertExpectations(t)
}

func TestPublish_ForceFlag(t *testing.T) {
	admin := entity.Actor{UserID: "admin-1", Role: "admin"}
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/publish", asActor(admin, handler.Publish))

	mockUseCase.On("Publish", mock.Anything, admin, "post-1", true).
		Return(&entity.Post{ID: "post-1", Status: entity.StatusPublished}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/publish?force=true", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestPublish_Blocked(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/publish", asActor(testOwner, handler.Publish))

	mockUseCase.On("Publish", mock.Anything, testOwner, "post-1", false).Return(nil,
		apperr.New(apperr.CodeContentPolicyViolation, "post failed the pre-publish check").WithReasons("prohibited_content"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "prohibited_content")
}

func TestListPosts_Query(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts", asActor(testOwner, handler.ListPosts))

	query := usecase.ListQuery{Status: entity.StatusScheduled, Platform: caption.PlatformX, Limit: 5, Offset: 10}
	mockUseCase.On("ListPosts", mock.Anything, testOwner, query).
		Return([]*entity.Post{{ID: "post-1"}, {ID: "post-2"}}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts?status=scheduled&platform=x&limit=5&offset=10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 2)
	mockUseCase.AssertExpectations(t)
}

func TestScheduleConflicts_Query(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/schedule/conflicts", asActor(testOwner, handler.ScheduleConflicts))

	at := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	mockUseCase.On("ScheduleConflicts", mock.Anything, testOwner, mock.MatchedBy(func(q usecase.ConflictQuery) bool {
		return q.Platform == caption.PlatformX && q.At.Equal(at) && q.Duration == 45*time.Minute && q.ExcludeID == "post-9"
	})).Return(nil, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/schedule/conflicts?platform=x&at=2030-05-01T12:00:00Z&duration_minutes=45&exclude_id=post-9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	mockUseCase.AssertExpectations(t)
}

func TestScheduleConflicts_BadTime(t *testing.T) {
	handler := NewPostHandler(new(MockPostUseCase), logger.New())

	router := setupTestRouter()
	router.GET("/schedule/conflicts", asActor(testOwner, handler.ScheduleConflicts))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/schedule/conflicts?platform=x&at=noon", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachMedia_Upload(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/media", asActor(testOwner, handler.AttachMedia))

	mockUseCase.On("AttachMedia", mock.Anything, testOwner, "post-1", mock.MatchedBy(func(m usecase.MediaUpload) bool {
		return m.Filename == "latte.jpg" && m.Body != nil
	})).Return(&entity.Post{ID: "post-1", MediaRefs: []string{"https://media/latte.jpg"}}, nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("media", "latte.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/media", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestAttachMedia_MissingFile(t *testing.T) {
	handler := NewPostHandler(new(MockPostUseCase), logger.New())

	router := setupTestRouter()
	router.POST("/posts/:id/media", asActor(testOwner, handler.AttachMedia))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/post-1/media", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
