package database

import (
	"context"
	"fmt"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.ScenarioRepository = (*pgScenarioRepository)(nil)

type pgScenarioRepository struct {
	logger *zap.Logger
}

// NewPgScenarioRepository создает репозиторий сценариев.
func NewPgScenarioRepository(logger *zap.Logger) interfaces.ScenarioRepository {
	return &pgScenarioRepository{logger: logger.Named("PgScenarioRepo")}
}

const scenarioColumns = `id, project_id, title, description, difficulty, decision_points, industry, topic, max_score, created_at`

const createScenarioQuery = `
INSERT INTO scenarios (` + scenarioColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const getScenarioByIDQuery = `SELECT ` + scenarioColumns + ` FROM scenarios WHERE id = $1`

const getScenarioByProjectQuery = `SELECT ` + scenarioColumns + ` FROM scenarios WHERE project_id = $1`

func (r *pgScenarioRepository) Create(ctx context.Context, querier interfaces.DBTX, s *models.Scenario) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := querier.Exec(ctx, createScenarioQuery,
		s.ID, s.ProjectID, s.Title, s.Description, s.Difficulty, s.DecisionPoints, s.Industry, s.Topic, s.MaxScore, s.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create scenario", zap.String("projectID", s.ProjectID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания сценария: %w", err)
	}
	return nil
}

func (r *pgScenarioRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Scenario, error) {
	return r.getOne(ctx, querier, getScenarioByIDQuery, id)
}

func (r *pgScenarioRepository) GetByProjectID(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID) (*models.Scenario, error) {
	return r.getOne(ctx, querier, getScenarioByProjectQuery, projectID)
}

func (r *pgScenarioRepository) getOne(ctx context.Context, querier interfaces.DBTX, query string, id uuid.UUID) (*models.Scenario, error) {
	var s models.Scenario
	if err := pgxscan.Get(ctx, querier, &s, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrScenarioNotFound
		}
		r.logger.Error("Failed to get scenario", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сценария %s: %w", id, err)
	}
	return &s, nil
}
