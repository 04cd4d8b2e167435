package handler

import (
	"scenegen-server/internal/models"

	"github.com/google/uuid"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

type generateVideoRequest struct {
	Name         string         `json:"name" validate:"required,max=200"`
	CourseName   string         `json:"course_name" validate:"max=200"`
	Subject      string         `json:"subject" validate:"max=500"`
	TrainingType string         `json:"training_type"`
	Topics       []models.Topic `json:"topics" validate:"omitempty,max=20,dive"`
	AutoTopics   bool           `json:"auto_topics"`
	ChapterCount int            `json:"chapter_count" validate:"omitempty,min=1,max=10"`
	SceneCount   int            `json:"scene_count" validate:"required,min=5,max=50"`
	IncludeQuiz  bool           `json:"include_quiz"`
	QuizCount    int            `json:"quiz_count" validate:"omitempty,min=1,max=20"`
}

func (r generateVideoRequest) toModel(tenantID, userID uuid.UUID, projectID *uuid.UUID) models.GenerateVideoRequest {
	return models.GenerateVideoRequest{
		ProjectID:    projectID,
		TenantID:     tenantID,
		UserID:       userID,
		Name:         r.Name,
		CourseName:   r.CourseName,
		Subject:      r.Subject,
		TrainingType: r.TrainingType,
		Topics:       r.Topics,
		AutoTopics:   r.AutoTopics,
		ChapterCount: r.ChapterCount,
		SceneCount:   r.SceneCount,
		Quiz:         models.QuizConfig{Include: r.IncludeQuiz, Count: r.QuizCount},
	}
}

type generateScenarioRequest struct {
	Name           string `json:"name" validate:"max=200"`
	Topic          string `json:"topic" validate:"required,max=300"`
	Industry       string `json:"industry" validate:"max=100"`
	Difficulty     string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DecisionPoints int    `json:"decision_points" validate:"required,min=1,max=10"`
}

func (r generateScenarioRequest) toModel(tenantID, userID uuid.UUID) models.GenerateScenarioRequest {
	return models.GenerateScenarioRequest{
		TenantID:       tenantID,
		UserID:         userID,
		Name:           r.Name,
		Topic:          r.Topic,
		Industry:       r.Industry,
		Difficulty:     models.Difficulty(r.Difficulty),
		DecisionPoints: r.DecisionPoints,
	}
}

type recordChoiceRequest struct {
	SceneID  uuid.UUID `json:"scene_id" validate:"required"`
	ChoiceID string    `json:"choice_id" validate:"required"`
}

type voiceoverRequest struct {
	VoiceID string `json:"voice_id"`
}

// voiceoverClipDTO carries audio as base64.
type voiceoverClipDTO struct {
	SceneID     uuid.UUID `json:"scene_id"`
	SceneNumber int       `json:"scene_number"`
	DurationMs  int64     `json:"duration_ms"`
	Audio       []byte    `json:"audio"`
}

func toClipDTOs(clips []models.VoiceoverClip) []voiceoverClipDTO {
	out := make([]voiceoverClipDTO, 0, len(clips))
	for _, c := range clips {
		out = append(out, voiceoverClipDTO{
			SceneID:     c.SceneID,
			SceneNumber: c.SceneNumber,
			DurationMs:  c.Duration.Milliseconds(),
			Audio:       c.Audio,
		})
	}
	return out
}
