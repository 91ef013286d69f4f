package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
	"postcraft/pkg/logger"
	"postcraft/pkg/metrics"
	"postcraft/pkg/queue"
	"postcraft/pkg/safety"
	"postcraft/services/content/internal/critique"
	"postcraft/services/content/internal/entity"
	"postcraft/services/content/internal/generator"
	"postcraft/services/content/internal/prompt"
	"postcraft/services/content/internal/validator"
)

type GenerationUseCase interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (*entity.Result, error)
	ModerateContent(text string, platform caption.Platform, isAd bool) (safety.Result, error)
	CheckPrompt(text string, modality safety.Modality) safety.Result
}

// ReviewNotifier receives content a human should look at.
type ReviewNotifier interface {
	PublishReviewTask(ctx context.Context, task queue.ReviewTask) error
}

type generationUseCase struct {
	table     caption.Table
	moderator *safety.Moderator
	validator *validator.Validator
	generator *generator.Generator
	engine    *critique.Engine
	review    ReviewNotifier
	metrics   *metrics.Collector
	logger    *logger.Logger
}

func NewGenerationUseCase(
	table caption.Table,
	moderator *safety.Moderator,
	validator *validator.Validator,
	generator *generator.Generator,
	engine *critique.Engine,
	review ReviewNotifier,
	metrics *metrics.Collector,
	logger *logger.Logger,
) GenerationUseCase {
	return &generationUseCase{
		table:     table,
		moderator: moderator,
		validator: validator,
		generator: generator,
		engine:    engine,
		review:    review,
		metrics:   metrics,
		logger:    logger,
	}
}

// Generate runs prompt screening, sampling, critique, structural validation
// with one auto-fix pass, and content moderation. Given the same raw samples
// the outcome is always the same.
func (uc *generationUseCase) Generate(ctx context.Context, req entity.GenerationRequest) (*entity.Result, error) {
	res, err := uc.generate(ctx, req)
	uc.metrics.ObserveGeneration(outcome(err))
	return res, err
}

func (uc *generationUseCase) generate(ctx context.Context, req entity.GenerationRequest) (*entity.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cons, ok := uc.table.For(req.Platform)
	if !ok {
		return nil, apperr.Newf(apperr.CodeInvalidRequest, "no constraints for platform %s", req.Platform)
	}
	log := uc.logger.WithFields(map[string]interface{}{"owner_id": req.OwnerID, "platform": req.Platform})

	result := &entity.Result{}

	screen := uc.moderator.CheckPromptSafety(prompt.SafetyText(req), safety.ModalityText)
	uc.metrics.ObserveModeration("prompt", string(screen.Decision))
	switch screen.Decision {
	case safety.DecisionBlock:
		log.Warn("Generation request blocked by prompt screen: %v", screen.Reasons)
		return nil, apperr.New(apperr.CodeContentPolicyViolation, "request asks for disallowed content").
			WithReasons(screen.Reasons...).
			WithCoaching(screen.Coaching...)
	case safety.DecisionReview:
		result.RequiresReview = true
		result.Warnings = append(result.Warnings, "prompt flagged for review: "+strings.Join(screen.Reasons, ", "))
	}

	prompts := prompt.Build(req, cons, uc.validator.Config().MinHashtags, uc.validator.HashtagLimit(cons))
	batch := generator.Collect(uc.generator.Stream(ctx, prompts.System, prompts.User))
	if batch.UsedFallback {
		result.UsedFallback = true
		result.Warnings = append(result.Warnings, "text generation unavailable; fallback candidates used")
		log.Warn("All samples fell back to canned candidates")
	}

	eval, err := uc.engine.Select(ctx, batch.Texts(), req.Platform)
	if err != nil {
		if errors.Is(err, critique.ErrNoCandidates) {
			return nil, apperr.New(apperr.CodeGenerationUnavailable, "no candidates were produced")
		}
		return nil, fmt.Errorf("failed to select candidate: %w", err)
	}
	for _, s := range eval.Initial {
		result.Candidates = append(result.Candidates, s.Candidate)
		result.Scores = append(result.Scores, s.Score)
	}

	best := eval.Winner.Candidate
	report := uc.validator.Validate(best, cons, req.PriorCaptions)
	if !report.OK {
		log.Info("Winner failed validation %v, tightening once", report.Reasons)
		best = uc.validator.Tighten(best, cons, tightenOptions(req))
		report = uc.validator.Validate(best, cons, req.PriorCaptions)
		if !report.OK {
			return nil, apperr.New(apperr.CodeValidationFailed, "candidate failed structural validation").
				WithReasons(report.Reasons...).
				WithCoaching(report.Coaching...)
		}
		result.AutoFixed = true
	}

	mod := uc.moderator.ModerateCandidate(best, req.Platform, req.Sponsored)
	uc.metrics.ObserveModeration("content", string(mod.Decision))
	switch mod.Decision {
	case safety.DecisionBlock:
		if mod.SafeRewrite == nil {
			return nil, policyError(mod)
		}
		rewrite := *mod.SafeRewrite
		if r := uc.validator.Validate(rewrite, cons, req.PriorCaptions); !r.OK {
			return nil, policyError(mod).WithReasons(r.Reasons...).WithCoaching(r.Coaching...)
		}
		if again := uc.moderator.ModerateCandidate(rewrite, req.Platform, req.Sponsored); again.Blocked() {
			return nil, policyError(again)
		}
		best = rewrite
		result.WasRewritten = true
		result.RequiresReview = true
	case safety.DecisionReview:
		result.RequiresReview = true
	}

	result.OK = true
	result.Best = best
	result.Moderation = mod
	result.Warnings = append(result.Warnings, brandWarnings(req.Brand, best)...)

	if result.RequiresReview {
		uc.requestReview(ctx, req, result)
	}
	return result, nil
}

func (uc *generationUseCase) ModerateContent(text string, platform caption.Platform, isAd bool) (safety.Result, error) {
	if !platform.Valid() {
		return safety.Result{}, apperr.Newf(apperr.CodeInvalidRequest, "unknown platform %q", platform)
	}
	res := uc.moderator.ModerateContent(text, platform, isAd)
	uc.metrics.ObserveModeration("content", string(res.Decision))
	return res, nil
}

func (uc *generationUseCase) CheckPrompt(text string, modality safety.Modality) safety.Result {
	res := uc.moderator.CheckPromptSafety(text, modality)
	uc.metrics.ObserveModeration("prompt", string(res.Decision))
	return res
}

func (uc *generationUseCase) requestReview(ctx context.Context, req entity.GenerationRequest, res *entity.Result) {
	if uc.review == nil {
		return
	}
	task := queue.ReviewTask{
		Kind:      queue.KindGeneration,
		OwnerID:   req.OwnerID,
		Platform:  string(req.Platform),
		Decision:  string(res.Moderation.Decision),
		Reasons:   res.Moderation.Reasons,
		Coaching:  res.Moderation.Coaching,
		Caption:   res.Best.Text(),
		Rewritten: res.WasRewritten,
	}
	if err := uc.review.PublishReviewTask(ctx, task); err != nil {
		uc.logger.Error("Failed to queue generation for review: %v", err)
	}
}

func policyError(mod safety.Result) *apperr.Error {
	return apperr.New(apperr.CodeContentPolicyViolation, "content violates policy").
		WithReasons(mod.Reasons...).
		WithCoaching(mod.Coaching...)
}

func tightenOptions(req entity.GenerationRequest) validator.TightenOptions {
	opts := validator.TightenOptions{
		BrandHashtags: append(append([]string(nil), req.Brand.Keywords...), req.Brand.Name),
		CTA:           req.CTA,
	}
	if opts.CTA == "" && len(req.Brand.PreferredCTAs) > 0 {
		opts.CTA = req.Brand.PreferredCTAs[0]
	}
	return opts
}

// brandWarnings reports banned phrases that slipped through and required
// disclaimers that are missing. They do not fail the call.
func brandWarnings(b entity.BrandProfile, c caption.Candidate) []string {
	text := strings.ToLower(c.Text())
	var out []string
	for _, phrase := range b.BannedPhrases {
		if p := strings.ToLower(strings.TrimSpace(phrase)); p != "" && strings.Contains(text, p) {
			out = append(out, "brand.banned_phrase: "+phrase)
		}
	}
	for _, d := range b.RequiredDisclaimers {
		if p := strings.ToLower(strings.TrimSpace(d)); p != "" && !strings.Contains(text, p) {
			out = append(out, "brand.missing_disclaimer: "+d)
		}
	}
	return out
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.CodeOf(err))
}
