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

var _ interfaces.AttemptRepository = (*pgAttemptRepository)(nil)

type pgAttemptRepository struct {
	logger *zap.Logger
}

// NewPgAttemptRepository создает репозиторий попыток прохождения сценариев.
func NewPgAttemptRepository(logger *zap.Logger) interfaces.AttemptRepository {
	return &pgAttemptRepository{logger: logger.Named("PgAttemptRepo")}
}

const attemptColumns = `id, scenario_id, user_id, score, max_score, path_taken, choices_made, status, started_at, completed_at`

const createAttemptQuery = `
INSERT INTO scenario_attempts (` + attemptColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const getAttemptByIDQuery = `SELECT ` + attemptColumns + ` FROM scenario_attempts WHERE id = $1`

const updateAttemptQuery = `
UPDATE scenario_attempts
SET score = $2, path_taken = $3, choices_made = $4, status = $5, completed_at = $6
WHERE id = $1`

const getAttemptResultQuery = `
SELECT a.id AS attempt_id, a.scenario_id, s.project_id, a.user_id,
       s.title AS scenario_title, s.topic, s.difficulty, s.decision_points,
       a.score, a.max_score, a.path_taken, a.choices_made, a.status, a.started_at, a.completed_at
FROM scenario_attempts a
JOIN scenarios s ON s.id = a.scenario_id
WHERE a.id = $1`

// Лучшая попытка на пользователя; время берется у нее же, а не у самой быстрой
const leaderboardQuery = `
SELECT best.user_id, best.best_score, best.max_score, best.best_percentage,
       best.fastest_time_seconds, counts.attempts
FROM (
    SELECT DISTINCT ON (user_id)
           user_id,
           score AS best_score,
           max_score,
           CASE WHEN max_score > 0 THEN score::float8 * 100 / max_score ELSE 0 END AS best_percentage,
           EXTRACT(EPOCH FROM (completed_at - started_at))::float8 AS fastest_time_seconds
    FROM scenario_attempts
    WHERE scenario_id = $1 AND status = 'completed'
    ORDER BY user_id,
             CASE WHEN max_score > 0 THEN score::float8 * 100 / max_score ELSE 0 END DESC,
             completed_at - started_at ASC
) best
JOIN (
    SELECT user_id, COUNT(*)::int AS attempts
    FROM scenario_attempts
    WHERE scenario_id = $1 AND status = 'completed'
    GROUP BY user_id
) counts ON counts.user_id = best.user_id
ORDER BY best.best_percentage DESC, best.fastest_time_seconds ASC
LIMIT $2`

const listAttemptsByUserQuery = `
SELECT a.id AS attempt_id, a.scenario_id, s.title AS scenario_title,
       a.score, a.max_score, a.status, a.started_at, a.completed_at
FROM scenario_attempts a
JOIN scenarios s ON s.id = a.scenario_id
WHERE a.user_id = $1
ORDER BY a.completed_at DESC NULLS LAST, a.started_at DESC
LIMIT $2`

func (r *pgAttemptRepository) Create(ctx context.Context, querier interfaces.DBTX, a *models.ScenarioAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now().UTC()
	}
	if a.PathTaken == nil {
		a.PathTaken = []uuid.UUID{}
	}
	if a.ChoicesMade == nil {
		a.ChoicesMade = []models.ChoiceRecord{}
	}
	_, err := querier.Exec(ctx, createAttemptQuery,
		a.ID, a.ScenarioID, a.UserID, a.Score, a.MaxScore, a.PathTaken, a.ChoicesMade, a.Status, a.StartedAt, a.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create attempt",
			zap.String("scenarioID", a.ScenarioID.String()),
			zap.String("userID", a.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("ошибка создания попытки: %w", err)
	}
	return nil
}

func (r *pgAttemptRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.ScenarioAttempt, error) {
	var a models.ScenarioAttempt
	if err := pgxscan.Get(ctx, querier, &a, getAttemptByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrAttemptNotFound
		}
		r.logger.Error("Failed to get attempt", zap.String("attemptID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения попытки %s: %w", id, err)
	}
	return &a, nil
}

func (r *pgAttemptRepository) Update(ctx context.Context, querier interfaces.DBTX, a *models.ScenarioAttempt) error {
	tag, err := querier.Exec(ctx, updateAttemptQuery, a.ID, a.Score, a.PathTaken, a.ChoicesMade, a.Status, a.CompletedAt)
	if err != nil {
		r.logger.Error("Failed to update attempt", zap.String("attemptID", a.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления попытки %s: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAttemptNotFound
	}
	return nil
}

func (r *pgAttemptRepository) GetResult(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.AttemptResult, error) {
	var res models.AttemptResult
	if err := pgxscan.Get(ctx, querier, &res, getAttemptResultQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrAttemptNotFound
		}
		r.logger.Error("Failed to get attempt result", zap.String("attemptID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения результатов попытки %s: %w", id, err)
	}
	return &res, nil
}

func (r *pgAttemptRepository) Leaderboard(ctx context.Context, querier interfaces.DBTX, scenarioID uuid.UUID, limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := pgxscan.Select(ctx, querier, &entries, leaderboardQuery, scenarioID, limit); err != nil {
		r.logger.Error("Failed to load leaderboard", zap.String("scenarioID", scenarioID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения рейтинга сценария %s: %w", scenarioID, err)
	}
	return entries, nil
}

func (r *pgAttemptRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit int) ([]models.AttemptHistoryEntry, error) {
	var entries []models.AttemptHistoryEntry
	if err := pgxscan.Select(ctx, querier, &entries, listAttemptsByUserQuery, userID, limit); err != nil {
		r.logger.Error("Failed to list user attempts", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения истории попыток пользователя %s: %w", userID, err)
	}
	return entries, nil
}
