package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusGenerating ProjectStatus = "generating"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusError      ProjectStatus = "error"
)

// ProjectType distinguishes linear training videos from branching scenarios.
type ProjectType string

const (
	ProjectTypeVideo    ProjectType = "video"
	ProjectTypeScenario ProjectType = "scenario"
)

// QuizConfig controls the optional quiz appended to a linear video.
type QuizConfig struct {
	Include bool `json:"include"`
	Count   int  `json:"count"`
}

// Project owns an ordered set of scenes.
type Project struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	TenantID     uuid.UUID     `db:"tenant_id" json:"tenant_id"`
	CreatedBy    uuid.UUID     `db:"created_by" json:"created_by"`
	Name         string        `db:"name" json:"name"`
	Prompt       string        `db:"prompt" json:"prompt"`
	CourseName   string        `db:"course_name" json:"course_name"`
	TrainingType string        `db:"training_type" json:"training_type"`
	ProjectType  ProjectType   `db:"project_type" json:"project_type"`
	Status       ProjectStatus `db:"status" json:"status"`
	SceneCount   int           `db:"scene_count" json:"scene_count"`
	ThumbnailURL *string       `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	IncludeQuiz  bool          `db:"include_quiz" json:"include_quiz"`
	QuizCount    int           `db:"quiz_count" json:"quiz_count"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Topic is a chapter of a linear video with its ordered subtopics.
type Topic struct {
	Name      string   `json:"name" validate:"required"`
	Subtopics []string `json:"subtopics" validate:"required,min=1,dive,required"`
}
