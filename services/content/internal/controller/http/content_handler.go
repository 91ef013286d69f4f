package http

import (
	"net/http"

	"postcraft/pkg/apperr"
	"postcraft/pkg/caption"
	"postcraft/pkg/logger"
	"postcraft/pkg/safety"
	"postcraft/services/content/internal/entity"
	"postcraft/services/content/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	generationUseCase usecase.GenerationUseCase
	logger            *logger.Logger
}

func NewContentHandler(generationUseCase usecase.GenerationUseCase, logger *logger.Logger) *ContentHandler {
	return &ContentHandler{
		generationUseCase: generationUseCase,
		logger:            logger,
	}
}

func (h *ContentHandler) fail(c *gin.Context, err error) {
	status, body := apperr.ToResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request %s failed: %v", c.FullPath(), err)
	}
	c.JSON(status, body)
}

// Generate godoc
// @Summary      Generate a post
// @Description  Generates candidates, scores and refines them, validates and moderates the winner.
// @Tags         content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body entity.GenerationRequest true "Generation request"
// @Success      200  {object}  entity.Result
// @Failure      400  {object}  apperr.Response
// @Failure      422  {object}  apperr.Response
// @Failure      503  {object}  apperr.Response
// @Router       /generate [post]
func (h *ContentHandler) Generate(c *gin.Context) {
	var req entity.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(apperr.CodeInvalidRequest, err.Error()))
		return
	}
	req.OwnerID = c.GetString("user_id")

	result, err := h.generationUseCase.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type ModerationCheckRequest struct {
	Text     string `json:"text" binding:"required"`
	Platform string `json:"platform" binding:"required"`
	IsAd     bool   `json:"is_ad"`
}

// CheckContent godoc
// @Summary      Moderate content
// @Description  Classifies caption and hashtag text as allow, review or block.
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ModerationCheckRequest true "Content to check"
// @Success      200  {object}  safety.Result
// @Failure      400  {object}  apperr.Response
// @Router       /moderation/check [post]
func (h *ContentHandler) CheckContent(c *gin.Context) {
	var req ModerationCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(apperr.CodeInvalidRequest, err.Error()))
		return
	}

	result, err := h.generationUseCase.ModerateContent(req.Text, caption.Platform(req.Platform), req.IsAd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type PromptCheckRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Modality string `json:"modality" binding:"omitempty,oneof=text image video"`
}

// CheckPrompt godoc
// @Summary      Screen a prompt
// @Description  Screens a generation prompt before any model is called.
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PromptCheckRequest true "Prompt to screen"
// @Success      200  {object}  safety.Result
// @Failure      400  {object}  apperr.Response
// @Router       /moderation/prompt [post]
func (h *ContentHandler) CheckPrompt(c *gin.Context) {
	var req PromptCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(apperr.CodeInvalidRequest, err.Error()))
		return
	}
	modality := safety.Modality(req.Modality)
	if modality == "" {
		modality = safety.ModalityText
	}

	c.JSON(http.StatusOK, h.generationUseCase.CheckPrompt(req.Prompt, modality))
}
