package database

import (
	"context"
	"fmt"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ interfaces.SceneRepository = (*pgSceneRepository)(nil)

type pgSceneRepository struct {
	logger *zap.Logger
}

// NewPgSceneRepository создает репозиторий сцен.
func NewPgSceneRepository(logger *zap.Logger) interfaces.SceneRepository {
	return &pgSceneRepository{logger: logger.Named("PgSceneRepo")}
}

const sceneColumns = `id, project_id, scene_number, scene_type, layout, eyebrow, title, subtitle, body, narration,
bullets, cards, timeline_items, icon_items, stat_value, stat_label, quote, quote_author, quiz,
bg_type, gradient, asset_url, asset_type, asset_id, asset_keywords,
choices, next_scene_id, choice_quality, outcome_tier, points, feedback, created_at`

const createSceneQuery = `
INSERT INTO scenes (` + sceneColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
        $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`

const getSceneByIDQuery = `SELECT ` + sceneColumns + ` FROM scenes WHERE id = $1`

const listScenesByProjectQuery = `SELECT ` + sceneColumns + ` FROM scenes WHERE project_id = $1 ORDER BY scene_number`

// Фильтр по типам передается массивом через pq.Array
const listScenesByProjectAndTypesQuery = `
SELECT ` + sceneColumns + ` FROM scenes
WHERE project_id = $1 AND scene_type = ANY($2::text[])
ORDER BY scene_number`

const deleteScenesByProjectQuery = `DELETE FROM scenes WHERE project_id = $1`

// CreateBatch inserts all scenes in one batch, preserving order.
func (r *pgSceneRepository) CreateBatch(ctx context.Context, querier interfaces.DBTX, scenes []*models.Scene) error {
	if len(scenes) == 0 {
		return nil
	}
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, s := range scenes {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		batch.Queue(createSceneQuery,
			s.ID, s.ProjectID, s.SceneNumber, s.SceneType, s.Layout, s.Eyebrow, s.Title, s.Subtitle, s.Body, s.Narration,
			s.Bullets, s.Cards, s.TimelineItems, s.IconItems, s.StatValue, s.StatLabel, s.Quote, s.QuoteAuthor, s.Quiz,
			s.BgType, s.Gradient, s.AssetURL, s.AssetType, s.AssetID, s.AssetKeywords,
			s.Choices, s.NextSceneID, s.ChoiceQuality, s.OutcomeTier, s.Points, s.Feedback, s.CreatedAt,
		)
	}

	results := querier.SendBatch(ctx, batch)
	for i := range scenes {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			r.logger.Error("Failed to insert scene",
				zap.String("projectID", scenes[i].ProjectID.String()),
				zap.Int("sceneNumber", scenes[i].SceneNumber),
				zap.Error(err))
			return fmt.Errorf("ошибка создания сцены %d: %w", scenes[i].SceneNumber, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("ошибка завершения пакетной вставки сцен: %w", err)
	}
	r.logger.Debug("Scenes created", zap.String("projectID", scenes[0].ProjectID.String()), zap.Int("count", len(scenes)))
	return nil
}

// GetByID loads a scene.
func (r *pgSceneRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Scene, error) {
	var s models.Scene
	if err := pgxscan.Get(ctx, querier, &s, getSceneByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get scene", zap.String("sceneID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сцены %s: %w", id, err)
	}
	return &s, nil
}

// ListByProject returns scenes of a project ordered by scene number.
func (r *pgSceneRepository) ListByProject(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID) ([]*models.Scene, error) {
	var scenes []*models.Scene
	if err := pgxscan.Select(ctx, querier, &scenes, listScenesByProjectQuery, projectID); err != nil {
		r.logger.Error("Failed to list scenes", zap.String("projectID", projectID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сцен проекта %s: %w", projectID, err)
	}
	return scenes, nil
}

// ListByProjectAndTypes returns scenes of the given types ordered by scene number.
func (r *pgSceneRepository) ListByProjectAndTypes(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID, types []models.SceneType) ([]*models.Scene, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	var scenes []*models.Scene
	if err := pgxscan.Select(ctx, querier, &scenes, listScenesByProjectAndTypesQuery, projectID, pq.Array(names)); err != nil {
		r.logger.Error("Failed to list scenes by type", zap.String("projectID", projectID.String()), zap.Strings("types", names), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сцен проекта %s по типам: %w", projectID, err)
	}
	return scenes, nil
}

// DeleteByProject removes every scene of a project.
func (r *pgSceneRepository) DeleteByProject(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID) (int64, error) {
	tag, err := querier.Exec(ctx, deleteScenesByProjectQuery, projectID)
	if err != nil {
		r.logger.Error("Failed to delete scenes", zap.String("projectID", projectID.String()), zap.Error(err))
		return 0, fmt.Errorf("ошибка удаления сцен проекта %s: %w", projectID, err)
	}
	r.logger.Info("Previous scenes deleted", zap.String("projectID", projectID.String()), zap.Int64("count", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
