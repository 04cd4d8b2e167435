package service

import (
	"context"
	"fmt"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PersistRequest is one generation's output ready to be written.
type PersistRequest struct {
	Project  *models.Project
	Scenes   []*models.Scene
	Scenario *models.Scenario
	// Regenerate replaces the scenes of an existing project instead of creating it.
	Regenerate bool
	// ThumbnailQuery is searched when no image scene asset is available.
	ThumbnailQuery string
	Usage          *AssetUsage
}

// PersistenceCoordinator writes a project and all of its scenes atomically.
type PersistenceCoordinator struct {
	db        interfaces.DBTX
	tx        interfaces.TxManager
	projects  interfaces.ProjectRepository
	scenes    interfaces.SceneRepository
	scenarios interfaces.ScenarioRepository
	assets    *AssetResolver
	logger    *zap.Logger
}

// NewPersistenceCoordinator creates a coordinator. assets may be nil, then no
// extra thumbnail search is made.
func NewPersistenceCoordinator(
	db interfaces.DBTX,
	tx interfaces.TxManager,
	projects interfaces.ProjectRepository,
	scenes interfaces.SceneRepository,
	scenarios interfaces.ScenarioRepository,
	assets *AssetResolver,
	logger *zap.Logger,
) *PersistenceCoordinator {
	return &PersistenceCoordinator{
		db:        db,
		tx:        tx,
		projects:  projects,
		scenes:    scenes,
		scenarios: scenarios,
		assets:    assets,
		logger:    logger.Named("PersistenceCoordinator"),
	}
}

// Persist stores the project, its scenes and optional scenario in one
// transaction. On regeneration the previous scenes are deleted first. Any
// error rolls back everything; thumbnail problems never do.
func (c *PersistenceCoordinator) Persist(ctx context.Context, req PersistRequest) error {
	p := req.Project
	if p == nil {
		return fmt.Errorf("%w: project is required", models.ErrInvalidInput)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for _, s := range req.Scenes {
		s.ProjectID = p.ID
	}
	p.SceneCount = len(req.Scenes)
	// Строка пишется уже завершенной; при откате статус возвращается
	previousStatus := p.Status
	p.Status = models.ProjectStatusCompleted
	p.ThumbnailURL = c.selectThumbnail(ctx, req)

	logFields := []zap.Field{
		zap.String("projectID", p.ID.String()),
		zap.Int("scenes", len(req.Scenes)),
		zap.Bool("regenerate", req.Regenerate),
	}

	err := c.tx.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if req.Regenerate {
			if err := c.projects.Update(ctx, tx, p); err != nil {
				return err
			}
			removed, err := c.scenes.DeleteByProject(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			c.logger.Debug("Previous scenes removed", append(logFields, zap.Int64("removed", removed))...)
		} else if err := c.projects.Create(ctx, tx, p); err != nil {
			return err
		}

		if err := c.scenes.CreateBatch(ctx, tx, req.Scenes); err != nil {
			return err
		}
		if req.Scenario != nil {
			req.Scenario.ProjectID = p.ID
			if err := c.scenarios.Create(ctx, tx, req.Scenario); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.Status = previousStatus
		c.logger.Error("Generation persistence failed, rolled back", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка сохранения проекта %s: %w", p.ID, err)
	}
	c.logger.Info("Generation persisted", logFields...)
	return nil
}

// LoadProject reads a project outside of any transaction.
func (c *PersistenceCoordinator) LoadProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return c.projects.GetByID(ctx, c.db, id)
}

// LoadScenes reads the scenes of a project ordered by scene number.
func (c *PersistenceCoordinator) LoadScenes(ctx context.Context, projectID uuid.UUID) ([]*models.Scene, error) {
	return c.scenes.ListByProject(ctx, c.db, projectID)
}

// selectThumbnail prefers the first image scene, then one more image search,
// then the first video scene.
func (c *PersistenceCoordinator) selectThumbnail(ctx context.Context, req PersistRequest) *string {
	for _, s := range req.Scenes {
		if s.BgType == models.BackgroundImage && s.AssetURL != "" {
			url := s.AssetURL
			return &url
		}
	}

	if c.assets != nil && req.ThumbnailQuery != "" {
		asset, err := c.assets.SearchFirst(ctx, models.BackgroundImage, req.ThumbnailQuery, req.Usage)
		if err != nil {
			c.logger.Warn("Thumbnail search failed", zap.String("query", req.ThumbnailQuery), zap.Error(err))
		} else if asset != nil {
			url := asset.URL
			if asset.ThumbnailURL != "" {
				url = asset.ThumbnailURL
			}
			return &url
		}
	}

	for _, s := range req.Scenes {
		if s.BgType == models.BackgroundVideo && s.AssetURL != "" {
			url := s.AssetURL
			return &url
		}
	}
	c.logger.Debug("No thumbnail available", zap.String("projectID", req.Project.ID.String()))
	return nil
}
