package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationCompletedEvent is published after a generation commits.
type GenerationCompletedEvent struct {
	ProjectID    uuid.UUID   `json:"project_id"`
	TenantID     uuid.UUID   `json:"tenant_id"`
	Kind         ProjectType `json:"kind"`
	SceneCount   int         `json:"scene_count"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	Regenerated  bool        `json:"regenerated"`
	CompletedAt  time.Time   `json:"completed_at"`
}
