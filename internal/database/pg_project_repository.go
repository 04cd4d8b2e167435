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

var _ interfaces.ProjectRepository = (*pgProjectRepository)(nil)

type pgProjectRepository struct {
	logger *zap.Logger
}

// NewPgProjectRepository создает репозиторий проектов.
func NewPgProjectRepository(logger *zap.Logger) interfaces.ProjectRepository {
	return &pgProjectRepository{logger: logger.Named("PgProjectRepo")}
}

const projectColumns = `id, tenant_id, created_by, name, prompt, course_name, training_type, project_type,
status, scene_count, thumbnail_url, include_quiz, quiz_count, created_at, updated_at`

const createProjectQuery = `
INSERT INTO projects (` + projectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const updateProjectQuery = `
UPDATE projects SET
    name = $2, prompt = $3, course_name = $4, training_type = $5, status = $6,
    scene_count = $7, thumbnail_url = $8, include_quiz = $9, quiz_count = $10, updated_at = $11
WHERE id = $1`

const getProjectByIDQuery = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

const updateProjectStatusQuery = `UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`

// Create inserts a new project row.
func (r *pgProjectRepository) Create(ctx context.Context, querier interfaces.DBTX, p *models.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.ProjectStatusDraft
	}

	_, err := querier.Exec(ctx, createProjectQuery,
		p.ID, p.TenantID, p.CreatedBy, p.Name, p.Prompt, p.CourseName, p.TrainingType, p.ProjectType,
		p.Status, p.SceneCount, p.ThumbnailURL, p.IncludeQuiz, p.QuizCount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create project", zap.String("projectID", p.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания проекта: %w", err)
	}
	r.logger.Debug("Project created", zap.String("projectID", p.ID.String()))
	return nil
}

// Update overwrites generation fields of the project.
func (r *pgProjectRepository) Update(ctx context.Context, querier interfaces.DBTX, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := querier.Exec(ctx, updateProjectQuery,
		p.ID, p.Name, p.Prompt, p.CourseName, p.TrainingType, p.Status,
		p.SceneCount, p.ThumbnailURL, p.IncludeQuiz, p.QuizCount, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update project", zap.String("projectID", p.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка обновления проекта %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

// GetByID loads a project.
func (r *pgProjectRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := pgxscan.Get(ctx, querier, &p, getProjectByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrProjectNotFound
		}
		r.logger.Error("Failed to get project", zap.String("projectID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения проекта %s: %w", id, err)
	}
	return &p, nil
}

// UpdateStatus sets the lifecycle status of a project.
func (r *pgProjectRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.ProjectStatus) error {
	tag, err := querier.Exec(ctx, updateProjectStatusQuery, id, status)
	if err != nil {
		r.logger.Error("Failed to update project status", zap.String("projectID", id.String()), zap.String("status", string(status)), zap.Error(err))
		return fmt.Errorf("ошибка обновления статуса проекта %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}
