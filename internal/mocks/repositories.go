package mocks

import (
	"context"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// ProjectRepository mock.
type ProjectRepository struct {
	mock.Mock
}

// NewProjectRepository creates the mock and asserts its expectations on cleanup.
func NewProjectRepository(t testingT) *ProjectRepository {
	m := &ProjectRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ProjectRepository) Create(ctx context.Context, querier interfaces.DBTX, project *models.Project) error {
	args := m.Called(ctx, querier, project)
	return args.Error(0)
}

func (m *ProjectRepository) Update(ctx context.Context, querier interfaces.DBTX, project *models.Project) error {
	args := m.Called(ctx, querier, project)
	return args.Error(0)
}

func (m *ProjectRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, querier, id)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *ProjectRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.ProjectStatus) error {
	args := m.Called(ctx, querier, id, status)
	return args.Error(0)
}

// SceneRepository mock.
type SceneRepository struct {
	mock.Mock
}

// NewSceneRepository creates the mock and asserts its expectations on cleanup.
func NewSceneRepository(t testingT) *SceneRepository {
	m := &SceneRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SceneRepository) CreateBatch(ctx context.Context, querier interfaces.DBTX, scenes []*models.Scene) error {
	args := m.Called(ctx, querier, scenes)
	return args.Error(0)
}

func (m *SceneRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, querier, id)
	s, _ := args.Get(0).(*models.Scene)
	return s, args.Error(1)
}

func (m *SceneRepository) ListByProject(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID) ([]*models.Scene, error) {
	args := m.Called(ctx, querier, projectID)
	s, _ := args.Get(0).([]*models.Scene)
	return s, args.Error(1)
}

func (m *SceneRepository) ListByProjectAndTypes(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID, types []models.SceneType) ([]*models.Scene, error) {
	args := m.Called(ctx, querier, projectID, types)
	s, _ := args.Get(0).([]*models.Scene)
	return s, args.Error(1)
}

func (m *SceneRepository) DeleteByProject(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID) (int64, error) {
	args := m.Called(ctx, querier, projectID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// ScenarioRepository mock.
type ScenarioRepository struct {
	mock.Mock
}

// NewScenarioRepository creates the mock and asserts its expectations on cleanup.
func NewScenarioRepository(t testingT) *ScenarioRepository {
	m := &ScenarioRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ScenarioRepository) Create(ctx context.Context, querier interfaces.DBTX, scenario *models.Scenario) error {
	args := m.Called(ctx, querier, scenario)
	return args.Error(0)
}

func (m *ScenarioRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Scenario, error) {
	args := m.Called(ctx, querier, id)
	s, _ := args.Get(0).(*models.Scenario)
	return s, args.Error(1)
}

func (m *ScenarioRepository) GetByProjectID(ctx context.Context, querier interfaces.DBTX, projectID uuid.UUID) (*models.Scenario, error) {
	args := m.Called(ctx, querier, projectID)
	s, _ := args.Get(0).(*models.Scenario)
	return s, args.Error(1)
}

// AttemptRepository mock.
type AttemptRepository struct {
	mock.Mock
}

// NewAttemptRepository creates the mock and asserts its expectations on cleanup.
func NewAttemptRepository(t testingT) *AttemptRepository {
	m := &AttemptRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AttemptRepository) Create(ctx context.Context, querier interfaces.DBTX, attempt *models.ScenarioAttempt) error {
	args := m.Called(ctx, querier, attempt)
	return args.Error(0)
}

func (m *AttemptRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.ScenarioAttempt, error) {
	args := m.Called(ctx, querier, id)
	a, _ := args.Get(0).(*models.ScenarioAttempt)
	return a, args.Error(1)
}

func (m *AttemptRepository) Update(ctx context.Context, querier interfaces.DBTX, attempt *models.ScenarioAttempt) error {
	args := m.Called(ctx, querier, attempt)
	return args.Error(0)
}

func (m *AttemptRepository) GetResult(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.AttemptResult, error) {
	args := m.Called(ctx, querier, id)
	r, _ := args.Get(0).(*models.AttemptResult)
	return r, args.Error(1)
}

func (m *AttemptRepository) Leaderboard(ctx context.Context, querier interfaces.DBTX, scenarioID uuid.UUID, limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, querier, scenarioID, limit)
	e, _ := args.Get(0).([]models.LeaderboardEntry)
	return e, args.Error(1)
}

func (m *AttemptRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit int) ([]models.AttemptHistoryEntry, error) {
	args := m.Called(ctx, querier, userID, limit)
	e, _ := args.Get(0).([]models.AttemptHistoryEntry)
	return e, args.Error(1)
}

// TxManager runs the function directly. Rollbacks counts calls whose function failed.
type TxManager struct {
	Calls     int
	Rollbacks int
}

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	m.Calls++
	if err := fn(ctx, nil); err != nil {
		m.Rollbacks++
		return err
	}
	return nil
}

var (
	_ interfaces.ProjectRepository  = (*ProjectRepository)(nil)
	_ interfaces.SceneRepository    = (*SceneRepository)(nil)
	_ interfaces.ScenarioRepository = (*ScenarioRepository)(nil)
	_ interfaces.AttemptRepository  = (*AttemptRepository)(nil)
	_ interfaces.TxManager          = (*TxManager)(nil)
)
