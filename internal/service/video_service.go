package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VideoGenerationService runs the linear training video pipeline.
type VideoGenerationService struct {
	topics  *TopicGenerator
	synth   *SceneSynthesizer
	quiz    *QuizGenerator
	store   *PersistenceCoordinator
	events  interfaces.GenerationEventPublisher
	logger  *zap.Logger
	newRand func() *rand.Rand
}

// NewVideoGenerationService creates the service. events may be nil.
func NewVideoGenerationService(
	topics *TopicGenerator,
	synth *SceneSynthesizer,
	quiz *QuizGenerator,
	store *PersistenceCoordinator,
	events interfaces.GenerationEventPublisher,
	logger *zap.Logger,
) *VideoGenerationService {
	return &VideoGenerationService{
		topics:  topics,
		synth:   synth,
		quiz:    quiz,
		store:   store,
		events:  events,
		logger:  logger.Named("VideoGenerationService"),
		newRand: func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

// GenerateLinearVideo plans, synthesizes and persists a training video.
// Only validation and persistence errors are returned.
func (s *VideoGenerationService) GenerateLinearVideo(ctx context.Context, req models.GenerateVideoRequest) (*models.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Начатая генерация доводится до конца даже после отключения клиента
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	kind := string(models.ProjectTypeVideo)

	project, regenerate, err := s.prepareProject(ctx, req)
	if err != nil {
		generationRunsTotal.WithLabelValues(kind, "rejected").Inc()
		return nil, err
	}

	courseName := firstNonEmpty(req.CourseName, req.Subject, req.Name)
	topics := req.Topics
	if len(topics) == 0 {
		topics = s.topics.GenerateTopics(ctx, req.Subject, courseName, req.TrainingType, req.ChapterCount)
	}

	slots, err := BuildScenePlan(courseName, topics, req.SceneCount)
	if err != nil {
		generationRunsTotal.WithLabelValues(kind, "rejected").Inc()
		return nil, err
	}

	// состояние дедупликации живет только в рамках одного запуска
	rng := s.newRand()
	usage := NewAssetUsage(rng)
	AssignLayouts(slots, rng)

	logFields := []zap.Field{
		zap.String("projectID", project.ID.String()),
		zap.String("course", courseName),
		zap.Int("slots", len(slots)),
		zap.Bool("regenerate", regenerate),
	}
	s.logger.Info("Generating linear video", logFields...)

	scenes := s.synth.SynthesizeAll(ctx, courseName, slots, usage)
	if req.Quiz.Include && s.quiz != nil {
		scenes = append(scenes, s.quiz.GenerateQuizScenes(ctx, courseName, topics, req.Quiz.Count)...)
	}

	err = s.store.Persist(ctx, PersistRequest{
		Project:        project,
		Scenes:         scenes,
		Regenerate:     regenerate,
		ThumbnailQuery: firstNonEmpty(req.Subject, req.Name),
		Usage:          usage,
	})
	if err != nil {
		generationRunsTotal.WithLabelValues(kind, "failed").Inc()
		return nil, err
	}

	generationRunsTotal.WithLabelValues(kind, "completed").Inc()
	generationDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	s.logger.Info("Linear video generated", append(logFields, zap.Duration("took", time.Since(started)))...)

	publishCompleted(ctx, s.events, s.logger, project, regenerate)
	return &models.GenerationResult{Project: project, Scenes: scenes}, nil
}

func (s *VideoGenerationService) prepareProject(ctx context.Context, req models.GenerateVideoRequest) (*models.Project, bool, error) {
	prompt := req.Subject
	if prompt == "" {
		names := make([]string, 0, len(req.Topics))
		for _, t := range req.Topics {
			names = append(names, t.Name)
		}
		prompt = strings.Join(names, ", ")
	}

	if req.ProjectID == nil {
		return &models.Project{
			ID:           uuid.New(),
			TenantID:     req.TenantID,
			CreatedBy:    req.UserID,
			Name:         req.Name,
			Prompt:       prompt,
			CourseName:   req.CourseName,
			TrainingType: req.TrainingType,
			ProjectType:  models.ProjectTypeVideo,
			Status:       models.ProjectStatusDraft,
			IncludeQuiz:  req.Quiz.Include,
			QuizCount:    req.Quiz.Count,
		}, false, nil
	}

	existing, err := s.store.LoadProject(ctx, *req.ProjectID)
	if err != nil {
		return nil, false, err
	}
	if existing.TenantID != req.TenantID {
		return nil, false, models.ErrForbidden
	}
	if existing.ProjectType != models.ProjectTypeVideo {
		return nil, false, fmt.Errorf("%w: only video projects can be regenerated", models.ErrInvalidInput)
	}
	existing.Name = req.Name
	existing.Prompt = prompt
	existing.CourseName = req.CourseName
	existing.TrainingType = req.TrainingType
	existing.IncludeQuiz = req.Quiz.Include
	existing.QuizCount = req.Quiz.Count
	return existing, true, nil
}

// publishCompleted announces a committed generation. Failures are only logged.
func publishCompleted(ctx context.Context, events interfaces.GenerationEventPublisher, logger *zap.Logger, project *models.Project, regenerated bool) {
	if events == nil {
		return
	}
	event := models.GenerationCompletedEvent{
		ProjectID:   project.ID,
		TenantID:    project.TenantID,
		Kind:        project.ProjectType,
		SceneCount:  project.SceneCount,
		Regenerated: regenerated,
		CompletedAt: time.Now().UTC(),
	}
	if project.ThumbnailURL != nil {
		event.ThumbnailURL = *project.ThumbnailURL
	}
	if err := events.PublishGenerationCompleted(ctx, event); err != nil {
		logger.Warn("Failed to publish generation event",
			zap.String("projectID", project.ID.String()),
			zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
