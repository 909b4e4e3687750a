package http

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/httputil"
	"engage-predict/pkg/identity"
	"engage-predict/pkg/logger"
	"engage-predict/pkg/middleware"
	"engage-predict/pkg/schema"
	"engage-predict/services/engage/internal/entity"
	"engage-predict/services/engage/internal/media"
	"engage-predict/services/engage/internal/usecase"

	"github.com/gin-gonic/gin"
)

// formOverhead is the room left for text fields next to a full-size upload.
const formOverhead = 1 << 20

type PredictionHandler struct {
	predictionUseCase usecase.PredictionUseCase
	verifier          identity.Verifier
	validator         *schema.Validator
	logger            *logger.Logger
}

func NewPredictionHandler(predictionUseCase usecase.PredictionUseCase, verifier identity.Verifier, validator *schema.Validator, logger *logger.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictionUseCase: predictionUseCase,
		verifier:          verifier,
		validator:         validator,
		logger:            logger,
	}
}

type PredictRequest struct {
	Caption        string `form:"caption" json:"caption"`
	Hashtags       string `form:"hashtags" json:"hashtags"`
	Platform       string `form:"platform" json:"platform"`
	PostingTime    string `form:"postingTime" json:"postingTime"`
	DayOfWeek      string `form:"dayOfWeek" json:"dayOfWeek"`
	Location       string `form:"location" json:"location"`
	TargetAudience string `form:"targetAudience" json:"targetAudience"`
	MediaInfo      string `form:"mediaInfo" json:"mediaInfo"`
}

type PredictResponse struct {
	ID string `json:"id,omitempty"`
	entity.PredictionResult
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type VerifyResponse struct {
	Valid bool   `json:"valid"`
	UID   string `json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
}

type MeResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Verify godoc
// @Summary      Verify a token
// @Description  Reports whether an identity token is valid, for frontend session checks
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyRequest true "Token to verify"
// @Success      200  {object}  VerifyResponse
// @Failure      400  {object}  map[string]string
// @Router       /auth/verify [post]
func (h *PredictionHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		httputil.RespondStatus(c, http.StatusBadRequest, "Token required")
		return
	}

	user, err := h.verifier.Verify(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusOK, VerifyResponse{Valid: false, Error: verifyErrorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{Valid: true, UID: user.UID, Email: user.Email})
}

// Me godoc
// @Summary      Current user
// @Description  Returns the caller resolved from the bearer token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MeResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *PredictionHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondStatus(c, http.StatusUnauthorized, "No token provided")
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: identity.DisplayName(user.Name, user.Email),
	})
}

// Predict godoc
// @Summary      Predict engagement
// @Description  Scores a post with the ML service, falling back to the built-in engine, and saves it to history.
// @Tags         predictions
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        caption formData string false "Post caption"
// @Param        hashtags formData string false "Hashtags, e.g. #travel #food"
// @Param        platform formData string false "Target platform" Enums(instagram, tiktok, youtube, twitter, facebook)
// @Param        postingTime formData string false "Planned posting time (HH:MM)"
// @Param        dayOfWeek formData string false "Planned posting day"
// @Param        location formData string false "Location"
// @Param        targetAudience formData string false "Target audience"
// @Param        mediaInfo formData string false "Media attributes as a JSON string"
// @Param        media formData file false "Image or video (max 50MB)"
// @Success      200  {object}  PredictResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      413  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /predict [post]
func (h *PredictionHandler) Predict(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	limitBody(c)

	var req PredictRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	post := entity.PostDescription{
		Caption:        req.Caption,
		Hashtags:       req.Hashtags,
		Platform:       entity.Platform(req.Platform),
		PostingTime:    req.PostingTime,
		DayOfWeek:      req.DayOfWeek,
		Location:       req.Location,
		TargetAudience: req.TargetAudience,
	}

	if req.MediaInfo != "" {
		info, err := h.parseMediaInfo(req.MediaInfo)
		if err != nil {
			httputil.RespondError(c, err)
			return
		}
		post.MediaInfo = info
	}

	upload, closeFile, err := h.formUpload(c)
	if err != nil {
		h.respondBindError(c, err)
		return
	}
	defer closeFile()

	prediction, err := h.predictionUseCase.Predict(c.Request.Context(), userID, post, upload)
	if err != nil {
		h.respondError(c, err, "Failed to analyze content")
		return
	}

	c.JSON(http.StatusOK, PredictResponse{ID: prediction.ID, PredictionResult: prediction.PredictionResult})
}

// Analyze godoc
// @Summary      Analyze with the built-in engine
// @Description  Scores a post locally without calling the ML service. The result is saved to history in the background.
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body entity.PostDescription true "Post description"
// @Success      200  {object}  entity.PredictionResult
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /analyze [post]
func (h *PredictionHandler) Analyze(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var post entity.PostDescription
	if err := c.ShouldBindJSON(&post); err != nil {
		httputil.RespondStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	prediction, err := h.predictionUseCase.Analyze(c.Request.Context(), userID, post)
	if err != nil {
		h.respondError(c, err, "Failed to analyze content")
		return
	}

	c.JSON(http.StatusOK, prediction.PredictionResult)
}

// AnalyzeMedia godoc
// @Summary      Analyze media
// @Description  Derives orientation, aspect ratio, resolution and quality tiers from an uploaded file
// @Tags         predictions
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        media formData file true "Image or video (max 50MB)"
// @Success      200  {object}  entity.MediaInfo
// @Failure      400  {object}  map[string]string
// @Failure      413  {object}  map[string]string
// @Router       /analyze-media [post]
func (h *PredictionHandler) AnalyzeMedia(c *gin.Context) {
	limitBody(c)

	upload, closeFile, err := h.formUpload(c)
	if err != nil {
		h.respondBindError(c, err)
		return
	}
	defer closeFile()

	info, err := h.predictionUseCase.AnalyzeMedia(c.Request.Context(), upload)
	if err != nil {
		h.respondError(c, err, "Failed to analyze media")
		return
	}

	c.JSON(http.StatusOK, info)
}

// History godoc
// @Summary      Prediction history
// @Description  Lists the caller's predictions, newest first, at most 50
// @Tags         history
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   entity.Prediction
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /history [get]
func (h *PredictionHandler) History(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	predictions, err := h.predictionUseCase.History(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch history")
		return
	}

	c.JSON(http.StatusOK, predictions)
}

// DeletePrediction godoc
// @Summary      Delete a prediction
// @Description  Deletes one of the caller's predictions
// @Tags         history
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Prediction ID"
// @Success      200  {object}  map[string]bool
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /history/{id} [delete]
func (h *PredictionHandler) DeletePrediction(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	if err := h.predictionUseCase.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.respondError(c, err, "Failed to delete prediction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PredictionHandler) parseMediaInfo(raw string) (*entity.MediaInfo, error) {
	if err := h.validator.Validate(schema.MediaInfo, []byte(raw)); err != nil {
		return nil, err
	}
	var info entity.MediaInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "mediaInfo is not valid JSON", err)
	}
	return &info, nil
}

// formUpload returns the "media" file, or nil when none was sent.
func (h *PredictionHandler) formUpload(c *gin.Context) (*usecase.Upload, func(), error) {
	noop := func() {}

	fileHeader, err := c.FormFile("media")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	if fileHeader.Size > media.MaxUploadSize {
		return nil, noop, apperror.New(apperror.KindTooLarge, "File too large. Maximum size is 50MB.")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !media.Allowed(contentType) {
		return nil, noop, apperror.Validation("Invalid file type. Only images and videos are allowed.")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, noop, apperror.Wrap(apperror.KindValidation, "Failed to read uploaded file", err)
	}

	return &usecase.Upload{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Body:        file,
	}, func() { closeQuietly(file) }, nil
}

func closeQuietly(f multipart.File) {
	_ = f.Close()
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxUploadSize+formOverhead)
}

func (h *PredictionHandler) respondBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		httputil.RespondStatus(c, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 50MB.")
	case apperror.KindOf(err) != apperror.KindInternal:
		httputil.RespondError(c, err)
	default:
		httputil.RespondStatus(c, http.StatusBadRequest, "Invalid form data")
	}
}

// respondError logs unexpected failures and hides their text behind fallback.
func (h *PredictionHandler) respondError(c *gin.Context, err error, fallback string) {
	switch apperror.KindOf(err) {
	case apperror.KindInternal:
		h.logger.Error("%s: %v", fallback, err)
		httputil.RespondStatus(c, http.StatusInternalServerError, fallback)
	case apperror.KindPersistence, apperror.KindUpstreamUnavailable:
		h.logger.Error("%s: %v", fallback, err)
		httputil.RespondError(c, err)
	default:
		httputil.RespondError(c, err)
	}
}

func verifyErrorMessage(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return apperror.MessageOf(err)
}
