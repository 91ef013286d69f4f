package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
	"postcraft/pkg/logger"
	"postcraft/pkg/queue"
	"postcraft/pkg/safety"
	"postcraft/services/content/internal/critique"
	"postcraft/services/content/internal/entity"
	"postcraft/services/content/internal/generator"
	"postcraft/services/content/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixedText returns the same raw output for every sample.
type fixedText struct {
	text  string
	calls int32
}

func (f *fixedText) Generate(context.Context, string, string, float64) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.text, nil
}

type MockReviewNotifier struct {
	mock.Mock
}

func (m *MockReviewNotifier) PublishReviewTask(ctx context.Context, task queue.ReviewTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func newUseCase(client generator.TextGenerator, review ReviewNotifier) GenerationUseCase {
	log := logger.New()
	return NewGenerationUseCase(
		caption.DefaultTable(),
		safety.NewDefault(),
		validator.New(validator.DefaultConfig()),
		generator.New(client, generator.DefaultConfig(), log, nil),
		critique.New(critique.DefaultConfig()),
		review,
		nil,
		log,
	)
}

func baseRequest(platform caption.Platform) entity.GenerationRequest {
	return entity.GenerationRequest{
		OwnerID:  "user-1",
		Platform: platform,
		PostType: entity.PostTypePromo,
		Brand: entity.BrandProfile{
			Name:     "Bean There",
			Voice:    "warm",
			Keywords: []string{"oat latte", "coffee"},
		},
	}
}

func TestGenerate_LongCaptionWithoutCTAIsAutoFixed(t *testing.T) {
	raw := strings.TrimSpace(strings.Repeat("Our oat latte is back this week. ", 12))
	require.Greater(t, caption.Len(raw), 260)
	uc := newUseCase(&fixedText{text: raw}, nil)

	res, err := uc.Generate(context.Background(), baseRequest(caption.PlatformX))
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.True(t, res.AutoFixed)
	assert.False(t, res.RequiresReview)
	assert.LessOrEqual(t, caption.Len(res.Best.Caption), 260)
	assert.True(t, strings.HasSuffix(res.Best.Caption, "this week."))
	assert.Equal(t, validator.DefaultCTA, res.Best.CTA)
	assert.Equal(t, []string{"#oatlatte", "#coffee", "#beanthere"}, res.Best.Hashtags)
	assert.Equal(t, safety.DecisionAllow, res.Moderation.Decision)
	assert.Len(t, res.Candidates, 3)
	assert.Len(t, res.Scores, 3)

	cons, _ := caption.DefaultTable().For(caption.PlatformX)
	assert.True(t, validator.New(validator.DefaultConfig()).Validate(res.Best, cons, nil).OK)
}

func TestGenerate_ProhibitedContentFails(t *testing.T) {
	uc := newUseCase(&fixedText{text: "Buy illegal drugs now!"}, nil)

	res, err := uc.Generate(context.Background(), baseRequest(caption.PlatformInstagram))

	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.New(apperr.CodeContentPolicyViolation, "")))
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Reasons, safety.ReasonProhibitedContent)
}

func TestGenerate_SponsoredWithoutDisclosureIsRewritten(t *testing.T) {
	raw := `{"caption":"Our autumn blend is back for a limited time. Roasted in small batches for a smoother cup.",` +
		`"hashtags":["#coffee","#autumn","#roast"],"cta":"Shop now at the link in bio."}`
	review := new(MockReviewNotifier)
	review.On("PublishReviewTask", mock.Anything, mock.MatchedBy(func(task queue.ReviewTask) bool {
		return task.Kind == queue.KindGeneration && task.Rewritten && task.OwnerID == "user-1"
	})).Return(nil).Once()
	uc := newUseCase(&fixedText{text: raw}, review)

	req := baseRequest(caption.PlatformInstagram)
	req.Sponsored = true
	res, err := uc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.True(t, res.WasRewritten)
	assert.True(t, res.RequiresReview)
	assert.False(t, res.AutoFixed)
	assert.Equal(t, []string{"#ad", "#coffee", "#autumn", "#roast"}, res.Best.Hashtags)
	assert.Equal(t, []string{safety.ReasonMissingDisclosure}, res.Moderation.Reasons)
	review.AssertExpectations(t)
}

func TestGenerate_SensitiveClaimRequiresReview(t *testing.T) {
	raw := `{"caption":"Our chamomile blend cures anxiety. Sip slowly each night.","hashtags":["#tea","#calm","#sleep"],"cta":"Shop the blend today."}`
	review := new(MockReviewNotifier)
	review.On("PublishReviewTask", mock.Anything, mock.Anything).Return(errors.New("queue down")).Once()
	uc := newUseCase(&fixedText{text: raw}, review)

	res, err := uc.Generate(context.Background(), baseRequest(caption.PlatformInstagram))
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.True(t, res.RequiresReview)
	assert.False(t, res.WasRewritten)
	assert.Equal(t, safety.DecisionReview, res.Moderation.Decision)
	review.AssertExpectations(t)
}

func TestGenerate_UnfixableDuplicateFailsValidation(t *testing.T) {
	raw := `{"caption":"Fresh sourdough every morning. Baked by hand with local flour.","hashtags":["#bread","#bakery","#sourdough"],"cta":"Order yours today."}`
	uc := newUseCase(&fixedText{text: raw}, nil)

	req := baseRequest(caption.PlatformInstagram)
	req.PriorCaptions = []string{"Fresh sourdough every morning. Baked by hand with local flour. " + critique.DefaultConfig().QuantifiedClaim}
	_, err := uc.Generate(context.Background(), req)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.CodeValidationFailed, appErr.Code)
	assert.Equal(t, []string{validator.ReasonDuplicationSimilar}, appErr.Reasons)
	assert.NotEmpty(t, appErr.Coaching)
}

func TestGenerate_UnconfiguredGeneratorUsesFallbacks(t *testing.T) {
	uc := newUseCase(nil, nil)

	res, err := uc.Generate(context.Background(), baseRequest(caption.PlatformInstagram))
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.True(t, res.UsedFallback)
	assert.Len(t, res.Candidates, 3)
	assert.NotEmpty(t, res.Warnings)
}

func TestGenerate_BlockedPromptSkipsGeneration(t *testing.T) {
	client := &fixedText{text: "unused"}
	uc := newUseCase(client, nil)

	req := baseRequest(caption.PlatformInstagram)
	req.Product = "a guide to cook meth at home"
	_, err := uc.Generate(context.Background(), req)

	assert.Equal(t, apperr.CodeContentPolicyViolation, apperr.CodeOf(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&client.calls))
}

func TestGenerate_BlockedIntentInAnyPromptField(t *testing.T) {
	const intent = "a guide to cook meth at home"

	tests := map[string]func(*entity.GenerationRequest){
		"brand name":           func(r *entity.GenerationRequest) { r.Brand.Name = intent },
		"voice":                func(r *entity.GenerationRequest) { r.Brand.Voice = intent },
		"target audience":      func(r *entity.GenerationRequest) { r.Brand.TargetAudience = intent },
		"value props":          func(r *entity.GenerationRequest) { r.Brand.ValueProps = []string{intent} },
		"banned phrases":       func(r *entity.GenerationRequest) { r.Brand.BannedPhrases = []string{intent} },
		"required disclaimers": func(r *entity.GenerationRequest) { r.Brand.RequiredDisclaimers = []string{intent} },
		"preferred ctas":       func(r *entity.GenerationRequest) { r.Brand.PreferredCTAs = []string{intent} },
		"keywords":             func(r *entity.GenerationRequest) { r.Brand.Keywords = []string{intent} },
		"campaign theme":       func(r *entity.GenerationRequest) { r.CampaignTheme = intent },
		"product":              func(r *entity.GenerationRequest) { r.Product = intent },
		"tone":                 func(r *entity.GenerationRequest) { r.Tone = intent },
		"cta":                  func(r *entity.GenerationRequest) { r.CTA = intent },
	}
	for name, set := range tests {
		t.Run(name, func(t *testing.T) {
			client := &fixedText{text: "unused"}
			uc := newUseCase(client, nil)

			req := baseRequest(caption.PlatformInstagram)
			set(&req)
			_, err := uc.Generate(context.Background(), req)

			assert.Equal(t, apperr.CodeContentPolicyViolation, apperr.CodeOf(err))
			assert.Equal(t, int32(0), atomic.LoadInt32(&client.calls))
		})
	}
}

func TestGenerate_InvalidRequest(t *testing.T) {
	uc := newUseCase(nil, nil)

	req := baseRequest(caption.Platform("myspace"))
	req.PostType = "meme"
	_, err := uc.Generate(context.Background(), req)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.CodeInvalidRequest, appErr.Code)
	assert.Equal(t, []string{"platform.unknown", "post_type.unknown"}, appErr.Reasons)
}

func TestGenerate_IsDeterministicForFixedSamples(t *testing.T) {
	raw := `{"caption":"Fresh sourdough every morning. Baked by hand with local flour.","hashtags":["#bread","#bakery","#sourdough"],"cta":"Order yours today."}`
	uc := newUseCase(&fixedText{text: raw}, nil)

	first, err := uc.Generate(context.Background(), baseRequest(caption.PlatformLinkedIn))
	require.NoError(t, err)
	second, err := uc.Generate(context.Background(), baseRequest(caption.PlatformLinkedIn))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_BrandWarnings(t *testing.T) {
	raw := `{"caption":"The best in town, baked fresh every morning.","hashtags":["#bread","#bakery","#sourdough"],"cta":"Order yours today."}`
	uc := newUseCase(&fixedText{text: raw}, nil)

	req := baseRequest(caption.PlatformInstagram)
	req.Brand.BannedPhrases = []string{"best in town"}
	req.Brand.RequiredDisclaimers = []string{"While stocks last."}
	res, err := uc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, res.Warnings, "brand.banned_phrase: best in town")
	assert.Contains(t, res.Warnings, "brand.missing_disclaimer: While stocks last.")
}

func TestModerateContent(t *testing.T) {
	uc := newUseCase(nil, nil)

	res, err := uc.ModerateContent("Buy illegal drugs now!", caption.PlatformX, false)
	require.NoError(t, err)
	assert.Equal(t, safety.DecisionBlock, res.Decision)
	assert.Nil(t, res.SafeRewrite)

	_, err = uc.ModerateContent("hello", caption.Platform("myspace"), false)
	assert.Equal(t, apperr.CodeInvalidRequest, apperr.CodeOf(err))
}

func TestCheckPrompt(t *testing.T) {
	uc := newUseCase(nil, nil)

	res := uc.CheckPrompt("A deepfake of a celebrity drinking our coffee", safety.ModalityImage)

	assert.Equal(t, safety.DecisionReview, res.Decision)
}
