package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"scenegen-server/internal/middleware"
	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// VideoGenerator runs linear video generation.
type VideoGenerator interface {
	GenerateLinearVideo(ctx context.Context, req models.GenerateVideoRequest) (*models.GenerationResult, error)
}

// ScenarioGenerator generates and reads branching scenarios.
type ScenarioGenerator interface {
	GenerateScenario(ctx context.Context, req models.GenerateScenarioRequest) (*models.GenerationResult, error)
	GetScenario(ctx context.Context, projectID uuid.UUID) (*models.GenerationResult, error)
}

// AttemptTracker records learners' traversals.
type AttemptTracker interface {
	StartAttempt(ctx context.Context, scenarioID, userID uuid.UUID) (*models.ScenarioAttempt, error)
	RecordChoice(ctx context.Context, attemptID, userID, sceneID uuid.UUID, choiceID string) (*models.ChoiceOutcome, error)
	CompleteAttempt(ctx context.Context, attemptID, userID uuid.UUID) (*models.ScenarioAttempt, error)
	GetResults(ctx context.Context, attemptID, userID uuid.UUID) (*models.AttemptResult, error)
	GetLeaderboard(ctx context.Context, scenarioID uuid.UUID, limit int) ([]models.LeaderboardEntry, error)
	GetUserHistory(ctx context.Context, userID uuid.UUID) ([]models.AttemptHistoryEntry, error)
}

// VoiceoverGenerator narrates project scenes.
type VoiceoverGenerator interface {
	ListVoices() []models.Voice
	GenerateVoiceovers(ctx context.Context, projectID uuid.UUID, voiceID string) ([]models.VoiceoverClip, error)
}

// SceneHandler обрабатывает HTTP запросы генерации сцен и сценариев.
type SceneHandler struct {
	videos    VideoGenerator
	scenarios ScenarioGenerator
	attempts  AttemptTracker
	voices    VoiceoverGenerator
	logger    *zap.Logger
}

// NewSceneHandler создает новый SceneHandler.
func NewSceneHandler(videos VideoGenerator, scenarios ScenarioGenerator, attempts AttemptTracker, voices VoiceoverGenerator, logger *zap.Logger) *SceneHandler {
	return &SceneHandler{
		videos:    videos,
		scenarios: scenarios,
		attempts:  attempts,
		voices:    voices,
		logger:    logger.Named("SceneHandler"),
	}
}

// RegisterRoutes регистрирует маршруты сервиса.
func (h *SceneHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "OK") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", middleware.CallerIdentity())
	{
		api.POST("/videos/generate", h.generateVideo)
		api.POST("/projects/:id/regenerate", h.regenerateVideo)
		api.POST("/projects/:id/voiceovers", h.generateVoiceovers)
		api.GET("/projects/:id/scenario", h.getScenario)
		api.GET("/voices", h.listVoices)

		api.POST("/scenarios/generate", h.generateScenario)
		api.POST("/scenarios/:id/attempts", h.startAttempt)
		api.GET("/scenarios/:id/leaderboard", h.getLeaderboard)

		api.POST("/attempts/:id/choices", h.recordChoice)
		api.POST("/attempts/:id/complete", h.completeAttempt)
		api.GET("/attempts/:id", h.getResults)
		api.GET("/users/me/attempts", h.getUserHistory)
	}
}

// --- Вспомогательные функции --- //

func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	raw, ok := c.Get(middleware.UserIDKey).(string)
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("user_id не найден в контексте")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("невалидный user_id в контексте: %w", err)
	}
	return id, nil
}

func getTenantIDFromContext(c echo.Context) uuid.UUID {
	raw, _ := c.Get(middleware.TenantIDKey).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func parseIDParam(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *SceneHandler) bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		h.logger.Warn("Failed to bind request", zap.String("path", c.Path()), zap.Error(err))
		return errors.New("Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		h.logger.Warn("Request validation failed", zap.String("path", c.Path()), zap.Error(err))
		return fmt.Errorf("Validation failed: %v", err)
	}
	return nil
}

func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: "Access denied"}
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrScenarioNotFound),
		errors.Is(err, models.ErrAttemptNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrNoTopics),
		errors.Is(err, models.ErrChoiceNotFound),
		errors.Is(err, models.ErrNotScenario):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrAttemptCompleted):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: models.ErrInternalServer.Error()}
	}
	return c.JSON(statusCode, apiErr)
}

// --- Обработчики HTTP --- //

func (h *SceneHandler) generateVideo(c echo.Context) error {
	return h.runVideoGeneration(c, nil)
}

func (h *SceneHandler) regenerateVideo(c echo.Context) error {
	projectID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid project ID format"})
	}
	return h.runVideoGeneration(c, &projectID)
}

func (h *SceneHandler) runVideoGeneration(c echo.Context, projectID *uuid.UUID) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
	}
	var req generateVideoRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	result, err := h.videos.GenerateLinearVideo(c.Request().Context(), req.toModel(getTenantIDFromContext(c), userID, projectID))
	if err != nil {
		h.logger.Warn("Video generation failed", zap.String("userID", userID.String()), zap.Error(err))
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *SceneHandler) generateScenario(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
	}
	var req generateScenarioRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	result, err := h.scenarios.GenerateScenario(c.Request().Context(), req.toModel(getTenantIDFromContext(c), userID))
	if err != nil {
		h.logger.Warn("Scenario generation failed", zap.String("userID", userID.String()), zap.Error(err))
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *SceneHandler) getScenario(c echo.Context) error {
	projectID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid project ID format"})
	}
	result, err := h.scenarios.GetScenario(c.Request().Context(), projectID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *SceneHandler) startAttempt(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
	}
	scenarioID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid scenario ID format"})
	}
	attempt, err := h.attempts.StartAttempt(c.Request().Context(), scenarioID, userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, attempt)
}

func (h *SceneHandler) recordChoice(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
	}
	attemptID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid attempt ID format"})
	}
	var req recordChoiceRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
	}

	outcome, err := h.attempts.RecordChoice(c.Request().Context(), attemptID, userID, req.SceneID, req.ChoiceID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, outcome)
}

func (h *SceneHandler) completeAttempt(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
	}
	attemptID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid attempt ID format"})
	}
	attempt, err := h.attempts.CompleteAttempt(c.Request().Context(), attemptID, userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, attempt)
}

func (h *SceneHandler) getResults(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
	}
	attemptID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid attempt ID format"})
	}
	result, err := h.attempts.GetResults(c.Request().Context(), attemptID, userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *SceneHandler) getLeaderboard(c echo.Context) error {
	scenarioID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid scenario ID format"})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.logger.Warn("Invalid limit parameter", zap.String("limit", raw))
			return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid 'limit' parameter"})
		}
	}
	entries, err := h.attempts.GetLeaderboard(c.Request().Context(), scenarioID, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *SceneHandler) getUserHistory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, APIError{Message: err.Error()})
	}
	entries, err := h.attempts.GetUserHistory(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *SceneHandler) listVoices(c echo.Context) error {
	return c.JSON(http.StatusOK, h.voices.ListVoices())
}

func (h *SceneHandler) generateVoiceovers(c echo.Context) error {
	projectID, err := parseIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid project ID format"})
	}
	var req voiceoverRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
	}
	clips, err := h.voices.GenerateVoiceovers(c.Request().Context(), projectID, req.VoiceID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toClipDTOs(clips))
}
