package interfaces

import (
	"context"

	"scenegen-server/internal/models"

	"github.com/google/uuid"
)

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, querier DBTX, project *models.Project) error
	// Update overwrites the mutable generation fields of an existing project.
	Update(ctx context.Context, querier DBTX, project *models.Project) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Project, error)
	UpdateStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.ProjectStatus) error
}

// SceneRepository persists scenes.
type SceneRepository interface {
	// CreateBatch inserts scenes in order in a single round trip.
	CreateBatch(ctx context.Context, querier DBTX, scenes []*models.Scene) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Scene, error)
	ListByProject(ctx context.Context, querier DBTX, projectID uuid.UUID) ([]*models.Scene, error)
	ListByProjectAndTypes(ctx context.Context, querier DBTX, projectID uuid.UUID, types []models.SceneType) ([]*models.Scene, error)
	// DeleteByProject removes every scene of the project and returns the number removed.
	DeleteByProject(ctx context.Context, querier DBTX, projectID uuid.UUID) (int64, error)
}

// ScenarioRepository persists branching scenario metadata.
type ScenarioRepository interface {
	Create(ctx context.Context, querier DBTX, scenario *models.Scenario) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Scenario, error)
	GetByProjectID(ctx context.Context, querier DBTX, projectID uuid.UUID) (*models.Scenario, error)
}

// AttemptRepository persists scenario attempts and their aggregates.
type AttemptRepository interface {
	Create(ctx context.Context, querier DBTX, attempt *models.ScenarioAttempt) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.ScenarioAttempt, error)
	// Update writes score, path, choice history, status and completion time.
	Update(ctx context.Context, querier DBTX, attempt *models.ScenarioAttempt) error
	GetResult(ctx context.Context, querier DBTX, id uuid.UUID) (*models.AttemptResult, error)
	Leaderboard(ctx context.Context, querier DBTX, scenarioID uuid.UUID, limit int) ([]models.LeaderboardEntry, error)
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID, limit int) ([]models.AttemptHistoryEntry, error)
}
