package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuizGenerator appends multiple-choice scenes to a linear video.
type QuizGenerator struct {
	content   StructuredContentClient
	timeout   time.Duration
	sceneBase int
	logger    *zap.Logger
}

// NewQuizGenerator creates a quiz generator numbering scenes from sceneBase.
func NewQuizGenerator(content StructuredContentClient, timeout time.Duration, sceneBase int, logger *zap.Logger) *QuizGenerator {
	return &QuizGenerator{content: content, timeout: timeout, sceneBase: sceneBase, logger: logger.Named("QuizGenerator")}
}

type quizPayload struct {
	Questions []models.QuizQuestion `json:"questions"`
}

// GenerateQuizScenes returns up to count quiz scenes. Failures are logged and
// produce no scenes.
func (g *QuizGenerator) GenerateQuizScenes(ctx context.Context, courseName string, topics []models.Topic, count int) []*models.Scene {
	if count <= 0 {
		return nil
	}
	logFields := []zap.Field{zap.String("course", courseName), zap.Int("count", count)}

	raw, err := g.content.Synthesize(ctx, QuizPrompt(courseName, topics, count, g.timeout))
	if err != nil {
		g.logger.Warn("Quiz generation failed, skipping quiz", append(logFields, zap.Error(err))...)
		return nil
	}
	var payload quizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		g.logger.Warn("Quiz response is not decodable, skipping quiz", append(logFields, zap.Error(err))...)
		return nil
	}

	scenes := make([]*models.Scene, 0, count)
	for _, q := range payload.Questions {
		if len(scenes) == count {
			break
		}
		if err := validateQuestion(q); err != nil {
			g.logger.Debug("Dropping invalid quiz question", zap.Error(err))
			continue
		}
		question := q
		i := len(scenes)
		scene := &models.Scene{
			ID:          uuid.New(),
			SceneNumber: g.sceneBase + i,
			SceneType:   models.SceneTypeQuiz,
			Layout:      models.LayoutQuiz,
			Eyebrow:     fmt.Sprintf("Question %d", i+1),
			Title:       question.Question,
			Narration:   question.Question,
			Quiz:        &question,
		}
		scene.SetGradient(GradientAt(i))
		scenes = append(scenes, scene)
	}
	g.logger.Info("Quiz scenes generated", append(logFields, zap.Int("scenes", len(scenes)))...)
	return scenes
}

func validateQuestion(q models.QuizQuestion) error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: empty question", models.ErrInvalidInput)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: question needs options", models.ErrInvalidInput)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of range", models.ErrInvalidInput, q.CorrectIndex)
	}
	return nil
}
