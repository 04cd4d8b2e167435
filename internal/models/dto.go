package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scene count bounds for linear videos.
const (
	MinSceneCount = 5
	MaxSceneCount = 50
	MaxQuizCount  = 20
)

// GenerateVideoRequest describes a linear training video generation.
type GenerateVideoRequest struct {
	// ProjectID is set when an existing project is regenerated.
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	UserID       uuid.UUID  `json:"user_id"`
	Name         string     `json:"name" validate:"required,max=200"`
	CourseName   string     `json:"course_name"`
	Subject      string     `json:"subject"`
	TrainingType string     `json:"training_type"`
	Topics       []Topic    `json:"topics" validate:"omitempty,dive"`
	AutoTopics   bool       `json:"auto_topics"`
	ChapterCount int        `json:"chapter_count" validate:"omitempty,min=1,max=10"`
	SceneCount   int        `json:"scene_count" validate:"required,min=5,max=50"`
	Quiz         QuizConfig `json:"quiz"`
}

// Validate checks the request before any external call is made.
func (r *GenerateVideoRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if r.SceneCount < MinSceneCount || r.SceneCount > MaxSceneCount {
		return fmt.Errorf("%w: scene count must be between %d and %d", ErrInvalidInput, MinSceneCount, MaxSceneCount)
	}
	if r.Quiz.Include && (r.Quiz.Count < 1 || r.Quiz.Count > MaxQuizCount) {
		return fmt.Errorf("%w: quiz count must be between 1 and %d", ErrInvalidInput, MaxQuizCount)
	}
	if len(r.Topics) == 0 {
		if !r.AutoTopics || strings.TrimSpace(r.Subject) == "" {
			return ErrNoTopics
		}
		return nil
	}
	for i, t := range r.Topics {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: topic %d has no name", ErrInvalidInput, i)
		}
		if len(t.Subtopics) == 0 {
			return fmt.Errorf("%w: topic %q has no subtopics", ErrNoTopics, t.Name)
		}
	}
	return nil
}

// GenerateScenarioRequest describes a branching scenario generation.
type GenerateScenarioRequest struct {
	TenantID       uuid.UUID  `json:"tenant_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Name           string     `json:"name"`
	Topic          string     `json:"topic" validate:"required"`
	Industry       string     `json:"industry"`
	Difficulty     Difficulty `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DecisionPoints int        `json:"decision_points" validate:"required,min=1,max=10"`
}

// Validate checks the request and applies defaults.
func (r *GenerateScenarioRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	if r.DecisionPoints < 1 || r.DecisionPoints > 10 {
		return fmt.Errorf("%w: decision points must be between 1 and 10", ErrInvalidInput)
	}
	switch r.Difficulty {
	case "":
		r.Difficulty = DifficultyIntermediate
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, r.Difficulty)
	}
	if strings.TrimSpace(r.Industry) == "" {
		r.Industry = "General"
	}
	if strings.TrimSpace(r.Name) == "" {
		r.Name = r.Topic + " Scenario"
	}
	return nil
}

// GenerationResult is the persisted output of a generation run.
type GenerationResult struct {
	Project  *Project  `json:"project"`
	Scenes   []*Scene  `json:"scenes"`
	Scenario *Scenario `json:"scenario,omitempty"`
}

// ChoiceOutcome is returned to the caller after a recorded choice.
type ChoiceOutcome struct {
	TargetSceneID uuid.UUID     `json:"target_scene_id"`
	Quality       ChoiceQuality `json:"quality"`
	Points        int           `json:"points"`
	Score         int           `json:"score"`
	// FinalOutcomeSceneID is set when the choice was made at the last decision point.
	FinalOutcomeSceneID *uuid.UUID  `json:"final_outcome_scene_id,omitempty"`
	Tier                OutcomeTier `json:"tier,omitempty"`
}

// VoiceoverClip is synthesized narration for one scene.
type VoiceoverClip struct {
	SceneID     uuid.UUID     `json:"scene_id"`
	SceneNumber int           `json:"scene_number"`
	Audio       []byte        `json:"-"`
	Duration    time.Duration `json:"duration"`
}

// Voice is a speech synthesis voice.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
