package service

import (
	"context"
	"encoding/json"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScenarioService generates and reads branching scenarios.
type ScenarioService struct {
	content   StructuredContentClient
	store     *PersistenceCoordinator
	db        interfaces.DBTX
	scenarios interfaces.ScenarioRepository
	scoring   ScoringConfig
	timeout   time.Duration
	events    interfaces.GenerationEventPublisher
	logger    *zap.Logger
}

// NewScenarioService creates the service. events may be nil.
func NewScenarioService(
	content StructuredContentClient,
	store *PersistenceCoordinator,
	db interfaces.DBTX,
	scenarios interfaces.ScenarioRepository,
	scoring ScoringConfig,
	timeout time.Duration,
	events interfaces.GenerationEventPublisher,
	logger *zap.Logger,
) *ScenarioService {
	return &ScenarioService{
		content:   content,
		store:     store,
		db:        db,
		scenarios: scenarios,
		scoring:   scoring,
		timeout:   timeout,
		events:    events,
		logger:    logger.Named("ScenarioService"),
	}
}

// GenerateScenario builds a decision tree for the topic and persists it.
func (s *ScenarioService) GenerateScenario(ctx context.Context, req models.GenerateScenarioRequest) (*models.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	kind := string(models.ProjectTypeScenario)
	logFields := []zap.Field{
		zap.String("topic", req.Topic),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("decisionPoints", req.DecisionPoints),
	}
	s.logger.Info("Generating scenario", logFields...)

	content := s.synthesizeContent(ctx, req)
	tree := BuildScenarioTree(content, s.scoring)

	project := &models.Project{
		TenantID:     req.TenantID,
		CreatedBy:    req.UserID,
		Name:         req.Name,
		Prompt:       req.Topic,
		CourseName:   content.Title,
		TrainingType: req.Industry,
		ProjectType:  models.ProjectTypeScenario,
		Status:       models.ProjectStatusDraft,
	}
	scenario := &models.Scenario{
		ID:             uuid.New(),
		Title:          content.Title,
		Description:    content.Description,
		Difficulty:     req.Difficulty,
		DecisionPoints: req.DecisionPoints,
		Industry:       req.Industry,
		Topic:          req.Topic,
		MaxScore:       tree.MaxScore,
	}

	err := s.store.Persist(ctx, PersistRequest{
		Project:        project,
		Scenes:         tree.Scenes,
		Scenario:       scenario,
		ThumbnailQuery: req.Topic + " workplace",
	})
	if err != nil {
		generationRunsTotal.WithLabelValues(kind, "failed").Inc()
		return nil, err
	}

	generationRunsTotal.WithLabelValues(kind, "completed").Inc()
	generationDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	s.logger.Info("Scenario generated", append(logFields,
		zap.String("projectID", project.ID.String()),
		zap.Int("scenes", len(tree.Scenes)),
		zap.Int("maxScore", tree.MaxScore))...)

	publishCompleted(ctx, s.events, s.logger, project, false)
	return &models.GenerationResult{Project: project, Scenes: tree.Scenes, Scenario: scenario}, nil
}

func (s *ScenarioService) synthesizeContent(ctx context.Context, req models.GenerateScenarioRequest) *ScenarioContent {
	raw, err := s.content.Synthesize(ctx, ScenarioPrompt(req, s.timeout))
	if err != nil {
		s.logger.Warn("Scenario synthesis failed, using fallback scenario", zap.String("topic", req.Topic), zap.Error(err))
		contentFallbacksTotal.WithLabelValues(string(models.LayoutDecision), "ai_error").Inc()
		return FallbackScenarioContent(req)
	}
	var content ScenarioContent
	if err := json.Unmarshal(raw, &content); err != nil {
		s.logger.Warn("Scenario response is not decodable, using fallback scenario", zap.String("topic", req.Topic), zap.Error(err))
		contentFallbacksTotal.WithLabelValues(string(models.LayoutDecision), "malformed").Inc()
		return FallbackScenarioContent(req)
	}
	if err := content.Normalize(req.DecisionPoints); err != nil {
		s.logger.Warn("Scenario response has wrong shape, using fallback scenario", zap.String("topic", req.Topic), zap.Error(err))
		contentFallbacksTotal.WithLabelValues(string(models.LayoutDecision), "invalid").Inc()
		return FallbackScenarioContent(req)
	}
	return &content
}

// GetScenario returns the scenario of a project with its scenes in order.
func (s *ScenarioService) GetScenario(ctx context.Context, projectID uuid.UUID) (*models.GenerationResult, error) {
	project, err := s.store.LoadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ProjectType != models.ProjectTypeScenario {
		return nil, models.ErrNotScenario
	}
	scenario, err := s.scenarios.GetByProjectID(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	scenes, err := s.store.LoadScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &models.GenerationResult{Project: project, Scenes: scenes, Scenario: scenario}, nil
}
