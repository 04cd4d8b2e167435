package service_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenegen-server/internal/mocks"
	"scenegen-server/internal/models"
	"scenegen-server/internal/service"
)

type persistenceFixture struct {
	projects  *mocks.ProjectRepository
	scenes    *mocks.SceneRepository
	scenarios *mocks.ScenarioRepository
	searcher  *mocks.StockMediaSearcher
	tx        *mocks.TxManager
	store     *service.PersistenceCoordinator
}

func newPersistenceFixture(t *testing.T) *persistenceFixture {
	f := &persistenceFixture{
		projects:  mocks.NewProjectRepository(t),
		scenes:    mocks.NewSceneRepository(t),
		scenarios: mocks.NewScenarioRepository(t),
		searcher:  mocks.NewStockMediaSearcher(t),
		tx:        &mocks.TxManager{},
	}
	resolver := service.NewAssetResolver(f.searcher, nil, service.AssetResolverConfig{}, zap.NewNop())
	f.store = service.NewPersistenceCoordinator(nil, f.tx, f.projects, f.scenes, f.scenarios, resolver, zap.NewNop())
	return f
}

func videoScene(n int, url string) *models.Scene {
	s := &models.Scene{ID: uuid.New(), SceneNumber: n, SceneType: models.SceneTypeContent, Layout: models.LayoutBullets}
	s.SetAsset(models.BackgroundVideo, &models.Asset{ID: "v", URL: url, Type: models.BackgroundVideo})
	return s
}

func imageScene(n int, url string) *models.Scene {
	s := &models.Scene{ID: uuid.New(), SceneNumber: n, SceneType: models.SceneTypeContent, Layout: models.LayoutSplit}
	s.SetAsset(models.BackgroundImage, &models.Asset{ID: "i", URL: url, Type: models.BackgroundImage})
	return s
}

func TestPersistenceCoordinator_Persist(t *testing.T) {
	ctx := context.Background()

	t.Run("New project is created with its scenes", func(t *testing.T) {
		f := newPersistenceFixture(t)
		project := &models.Project{Name: "Onboarding", ProjectType: models.ProjectTypeVideo}
		scenes := []*models.Scene{videoScene(1, "https://v/1.mp4"), imageScene(2, "https://i/2.jpg"), imageScene(3, "https://i/3.jpg")}

		f.projects.On("Create", mock.Anything, mock.Anything, project).Return(nil).Once()
		f.scenes.On("CreateBatch", mock.Anything, mock.Anything, scenes).Return(nil).Once()

		err := f.store.Persist(ctx, service.PersistRequest{Project: project, Scenes: scenes, ThumbnailQuery: "onboarding"})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, project.ID)
		assert.Equal(t, models.ProjectStatusCompleted, project.Status)
		assert.Equal(t, 3, project.SceneCount)
		require.NotNil(t, project.ThumbnailURL)
		assert.Equal(t, "https://i/2.jpg", *project.ThumbnailURL)
		for _, s := range scenes {
			assert.Equal(t, project.ID, s.ProjectID)
		}
		assert.Equal(t, 1, f.tx.Calls)
		assert.Zero(t, f.tx.Rollbacks)
	})

	t.Run("Regeneration replaces the previous scenes", func(t *testing.T) {
		f := newPersistenceFixture(t)
		project := &models.Project{ID: uuid.New(), Name: "Onboarding"}
		scenes := []*models.Scene{imageScene(1, "https://i/1.jpg")}

		f.projects.On("Update", mock.Anything, mock.Anything, project).Return(nil).Once()
		f.scenes.On("DeleteByProject", mock.Anything, mock.Anything, project.ID).Return(int64(7), nil).Once()
		f.scenes.On("CreateBatch", mock.Anything, mock.Anything, scenes).Return(nil).Once()

		err := f.store.Persist(ctx, service.PersistRequest{Project: project, Scenes: scenes, Regenerate: true})
		require.NoError(t, err)
		f.projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Scenario row is linked to the project", func(t *testing.T) {
		f := newPersistenceFixture(t)
		project := &models.Project{Name: "Conflict", ProjectType: models.ProjectTypeScenario}
		scenario := &models.Scenario{ID: uuid.New(), Title: "Conflict"}
		scenes := []*models.Scene{imageScene(1, "https://i/1.jpg")}

		f.projects.On("Create", mock.Anything, mock.Anything, project).Return(nil).Once()
		f.scenes.On("CreateBatch", mock.Anything, mock.Anything, scenes).Return(nil).Once()
		f.scenarios.On("Create", mock.Anything, mock.Anything, scenario).Return(nil).Once()

		err := f.store.Persist(ctx, service.PersistRequest{Project: project, Scenes: scenes, Scenario: scenario})
		require.NoError(t, err)
		assert.Equal(t, project.ID, scenario.ProjectID)
	})

	t.Run("Scene insert failure rolls back", func(t *testing.T) {
		f := newPersistenceFixture(t)
		project := &models.Project{Name: "Onboarding", Status: models.ProjectStatusDraft}
		scenes := []*models.Scene{imageScene(1, "https://i/1.jpg")}
		dbErr := errors.New("connection reset")

		f.projects.On("Create", mock.Anything, mock.Anything, project).Return(nil).Once()
		f.scenes.On("CreateBatch", mock.Anything, mock.Anything, scenes).Return(dbErr).Once()

		err := f.store.Persist(ctx, service.PersistRequest{Project: project, Scenes: scenes})
		assert.ErrorIs(t, err, dbErr)
		assert.Equal(t, 1, f.tx.Rollbacks)
		assert.Equal(t, models.ProjectStatusDraft, project.Status)
	})

	t.Run("Missing project is rejected", func(t *testing.T) {
		f := newPersistenceFixture(t)
		err := f.store.Persist(ctx, service.PersistRequest{})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		assert.Zero(t, f.tx.Calls)
	})
}

func TestPersistenceCoordinator_Thumbnail(t *testing.T) {
	ctx := context.Background()

	t.Run("Image search is tried before video scenes", func(t *testing.T) {
		f := newPersistenceFixture(t)
		project := &models.Project{Name: "Sales"}
		scenes := []*models.Scene{videoScene(1, "https://v/1.mp4")}

		f.searcher.On("Search", mock.Anything, "sales", models.BackgroundImage, 15).
			Return([]models.Asset{{ID: "p1", URL: "https://i/full.jpg", ThumbnailURL: "https://i/small.jpg", Type: models.BackgroundImage}}, nil).Once()
		f.projects.On("Create", mock.Anything, mock.Anything, project).Return(nil).Once()
		f.scenes.On("CreateBatch", mock.Anything, mock.Anything, scenes).Return(nil).Once()

		err := f.store.Persist(ctx, service.PersistRequest{
			Project: project, Scenes: scenes, ThumbnailQuery: "sales",
			Usage: service.NewAssetUsage(rand.New(rand.NewSource(1))),
		})
		require.NoError(t, err)
		require.NotNil(t, project.ThumbnailURL)
		assert.Equal(t, "https://i/small.jpg", *project.ThumbnailURL)
	})

	t.Run("Video scene when the search finds nothing", func(t *testing.T) {
		f := newPersistenceFixture(t)
		project := &models.Project{Name: "Sales"}
		scenes := []*models.Scene{videoScene(1, "https://v/1.mp4")}

		f.searcher.On("Search", mock.Anything, "sales", models.BackgroundImage, 15).Return(nil, errors.New("boom")).Once()
		f.projects.On("Create", mock.Anything, mock.Anything, project).Return(nil).Once()
		f.scenes.On("CreateBatch", mock.Anything, mock.Anything, scenes).Return(nil).Once()

		err := f.store.Persist(ctx, service.PersistRequest{Project: project, Scenes: scenes, ThumbnailQuery: "sales"})
		require.NoError(t, err)
		require.NotNil(t, project.ThumbnailURL)
		assert.Equal(t, "https://v/1.mp4", *project.ThumbnailURL)
	})

	t.Run("No thumbnail at all", func(t *testing.T) {
		f := newPersistenceFixture(t)
		project := &models.Project{Name: "Sales"}
		scene := &models.Scene{ID: uuid.New(), SceneNumber: 1}
		scene.SetGradient(service.GradientAt(0))
		scenes := []*models.Scene{scene}

		f.projects.On("Create", mock.Anything, mock.Anything, project).Return(nil).Once()
		f.scenes.On("CreateBatch", mock.Anything, mock.Anything, scenes).Return(nil).Once()

		err := f.store.Persist(ctx, service.PersistRequest{Project: project, Scenes: scenes})
		require.NoError(t, err)
		assert.Nil(t, project.ThumbnailURL)
	})
}
