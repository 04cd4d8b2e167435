package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenegen-server/internal/mocks"
	"scenegen-server/internal/models"
	"scenegen-server/internal/service"
)

type scenarioFixture struct {
	store     *memStore
	content   *mocks.StructuredContentClient
	events    *mocks.GenerationEventPublisher
	scenarios *service.ScenarioService
	attempts  *service.AttemptService
}

func newScenarioFixture(t *testing.T) *scenarioFixture {
	f := &scenarioFixture{
		store:   newMemStore(),
		content: mocks.NewStructuredContentClient(t),
		events:  mocks.NewGenerationEventPublisher(t),
	}
	tx := &mocks.TxManager{}
	persistence := service.NewPersistenceCoordinator(nil, tx,
		memProjects{f.store}, memScenes{f.store}, memScenarios{f.store}, nil, zap.NewNop())
	f.scenarios = service.NewScenarioService(f.content, persistence, nil, memScenarios{f.store},
		service.DefaultScoring(), time.Second, f.events, zap.NewNop())
	f.attempts = service.NewAttemptService(nil, tx, memScenarios{f.store}, memScenes{f.store}, memAttempts{f.store}, zap.NewNop())
	return f
}

// generate создает сценарий из трех решений на резервном контенте.
func (f *scenarioFixture) generate(t *testing.T) *models.GenerationResult {
	f.content.On("Synthesize", mock.Anything, promptNamed("scenario")).Return(nil, errors.New("ai down")).Once()
	f.events.On("PublishGenerationCompleted", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := f.scenarios.GenerateScenario(context.Background(), models.GenerateScenarioRequest{
		TenantID: uuid.New(), UserID: uuid.New(), Topic: "Data Privacy", Industry: "Healthcare", DecisionPoints: 3,
	})
	require.NoError(t, err)
	return res
}

func decisionsOf(scenes []*models.Scene) []*models.Scene {
	var out []*models.Scene
	for _, s := range scenes {
		if s.SceneType == models.SceneTypeScenarioDecision {
			out = append(out, s)
		}
	}
	return out
}

func choiceWithQuality(t *testing.T, decision *models.Scene, q models.ChoiceQuality) models.Choice {
	for _, ch := range decision.Choices {
		if ch.Quality == q {
			return ch
		}
	}
	t.Fatalf("decision %s has no %s choice", decision.ID, q)
	return models.Choice{}
}

func finalFor(scenes []*models.Scene, tier models.OutcomeTier) *models.Scene {
	for _, s := range scenes {
		if s.SceneType == models.SceneTypeFinalOutcome && s.OutcomeTier == tier {
			return s
		}
	}
	return nil
}

func TestScenarioService_GenerateScenario(t *testing.T) {
	ctx := context.Background()

	t.Run("Synthesized narrative becomes a persisted tree", func(t *testing.T) {
		f := newScenarioFixture(t)
		narrative := service.FallbackScenarioContent(models.GenerateScenarioRequest{Topic: "Harassment", Industry: "Retail", DecisionPoints: 4})
		narrative.Title = "The Break Room Incident"
		raw, err := json.Marshal(narrative)
		require.NoError(t, err)

		f.content.On("Synthesize", mock.Anything, promptNamed("scenario")).Return(json.RawMessage(raw), nil).Once()
		f.events.On("PublishGenerationCompleted", mock.Anything, mock.MatchedBy(func(e models.GenerationCompletedEvent) bool {
			return e.Kind == models.ProjectTypeScenario && e.SceneCount == 1+2*4+3 && !e.Regenerated
		})).Return(nil).Once()

		res, err := f.scenarios.GenerateScenario(ctx, models.GenerateScenarioRequest{
			TenantID: uuid.New(), UserID: uuid.New(), Topic: "Harassment", Industry: "Retail", DecisionPoints: 2,
		})
		require.NoError(t, err)

		assert.Len(t, res.Scenes, 1+2*4+3)
		assert.Equal(t, "The Break Room Incident", res.Scenario.Title)
		assert.Equal(t, "The Break Room Incident", res.Project.CourseName)
		assert.Equal(t, models.ProjectTypeScenario, res.Project.ProjectType)
		assert.Equal(t, models.ProjectStatusCompleted, res.Project.Status)
		assert.Equal(t, models.DifficultyIntermediate, res.Scenario.Difficulty)
		assert.Equal(t, 20, res.Scenario.MaxScore)
		assert.Equal(t, res.Project.ID, res.Scenario.ProjectID)
		assert.Len(t, f.store.scenes, len(res.Scenes))
	})

	t.Run("Unusable narrative falls back and still completes", func(t *testing.T) {
		f := newScenarioFixture(t)
		f.content.On("Synthesize", mock.Anything, promptNamed("scenario")).Return(`{"title":"x","decisions":[]}`, nil).Once()
		f.events.On("PublishGenerationCompleted", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		res, err := f.scenarios.GenerateScenario(ctx, models.GenerateScenarioRequest{Topic: "Fire Drills", DecisionPoints: 1})
		require.NoError(t, err)
		assert.Equal(t, "Fire Drills Training Scenario", res.Scenario.Title)
		assert.Equal(t, "General", res.Scenario.Industry)
		assert.Len(t, res.Scenes, 1+4+3)
	})

	t.Run("Invalid request makes no calls", func(t *testing.T) {
		f := newScenarioFixture(t)
		_, err := f.scenarios.GenerateScenario(ctx, models.GenerateScenarioRequest{Topic: "X", DecisionPoints: 11})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestScenarioService_GetScenario(t *testing.T) {
	ctx := context.Background()
	f := newScenarioFixture(t)
	res := f.generate(t)

	got, err := f.scenarios.GetScenario(ctx, res.Project.ID)
	require.NoError(t, err)
	require.Len(t, got.Scenes, 16)
	for i, s := range got.Scenes {
		assert.Equal(t, i+1, s.SceneNumber)
	}
	assert.Equal(t, res.Scenario.ID, got.Scenario.ID)

	video := models.Project{ID: uuid.New(), ProjectType: models.ProjectTypeVideo}
	f.store.projects[video.ID] = video
	_, err = f.scenarios.GetScenario(ctx, video.ID)
	assert.ErrorIs(t, err, models.ErrNotScenario)

	_, err = f.scenarios.GetScenario(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}

func TestAttemptService_Traversal(t *testing.T) {
	ctx := context.Background()
	f := newScenarioFixture(t)
	res := f.generate(t)
	user := uuid.New()
	decisions := decisionsOf(res.Scenes)
	require.Len(t, decisions, 3)

	attempt, err := f.attempts.StartAttempt(ctx, res.Scenario.ID, user)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptInProgress, attempt.Status)
	assert.Equal(t, 30, attempt.MaxScore)
	assert.Equal(t, []uuid.UUID{res.Scenes[0].ID}, attempt.PathTaken)

	for i, d := range decisions {
		choice := choiceWithQuality(t, d, models.QualityOptimal)
		outcome, err := f.attempts.RecordChoice(ctx, attempt.ID, user, d.ID, choice.ID)
		require.NoError(t, err)

		assert.Equal(t, choice.TargetSceneID, outcome.TargetSceneID)
		assert.Equal(t, 10, outcome.Points)
		assert.Equal(t, 10*(i+1), outcome.Score)
		if i < len(decisions)-1 {
			assert.Nil(t, outcome.FinalOutcomeSceneID)
		} else {
			require.NotNil(t, outcome.FinalOutcomeSceneID)
			assert.Equal(t, finalFor(res.Scenes, models.TierGood).ID, *outcome.FinalOutcomeSceneID)
			assert.Equal(t, models.TierGood, outcome.Tier)
		}
	}

	t.Run("A decision is answered once", func(t *testing.T) {
		choice := choiceWithQuality(t, decisions[0], models.QualityPoor)
		_, err := f.attempts.RecordChoice(ctx, attempt.ID, user, decisions[0].ID, choice.ID)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Other learners cannot touch the attempt", func(t *testing.T) {
		_, err := f.attempts.CompleteAttempt(ctx, attempt.ID, uuid.New())
		assert.ErrorIs(t, err, models.ErrForbidden)
		_, err = f.attempts.GetResults(ctx, attempt.ID, uuid.New())
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	completed, err := f.attempts.CompleteAttempt(ctx, attempt.ID, user)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	_, err = f.attempts.CompleteAttempt(ctx, attempt.ID, user)
	assert.ErrorIs(t, err, models.ErrAttemptCompleted)
	_, err = f.attempts.RecordChoice(ctx, attempt.ID, user, decisions[1].ID, "choice_2_a")
	assert.ErrorIs(t, err, models.ErrAttemptCompleted)

	result, err := f.attempts.GetResults(ctx, attempt.ID, user)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Score)
	assert.Equal(t, 30, result.MaxScore)
	assert.Equal(t, models.TierGood, result.Tier)
	assert.Len(t, result.PathTaken, 1+2*3)
	assert.Len(t, result.ChoicesMade, 3)
	assert.Equal(t, res.Scenario.Title, result.ScenarioTitle)

	history, err := f.attempts.GetUserHistory(ctx, user)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, attempt.ID, history[0].AttemptID)

	board, err := f.attempts.GetLeaderboard(ctx, res.Scenario.ID, 0)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, user, board[0].UserID)
	assert.Equal(t, 100.0, board[0].BestPercentage)
}

func TestAttemptService_PoorPath(t *testing.T) {
	ctx := context.Background()
	f := newScenarioFixture(t)
	res := f.generate(t)
	user := uuid.New()

	attempt, err := f.attempts.StartAttempt(ctx, res.Scenario.ID, user)
	require.NoError(t, err)

	var last *models.ChoiceOutcome
	for _, d := range decisionsOf(res.Scenes) {
		choice := choiceWithQuality(t, d, models.QualityPoor)
		last, err = f.attempts.RecordChoice(ctx, attempt.ID, user, d.ID, choice.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 6, last.Score)
	assert.Equal(t, models.TierPoor, last.Tier)
	require.NotNil(t, last.FinalOutcomeSceneID)
	assert.Equal(t, finalFor(res.Scenes, models.TierPoor).ID, *last.FinalOutcomeSceneID)
}

func TestAttemptService_RecordChoiceErrors(t *testing.T) {
	ctx := context.Background()
	f := newScenarioFixture(t)
	res := f.generate(t)
	user := uuid.New()
	attempt, err := f.attempts.StartAttempt(ctx, res.Scenario.ID, user)
	require.NoError(t, err)
	decision := decisionsOf(res.Scenes)[0]

	_, err = f.attempts.RecordChoice(ctx, attempt.ID, user, decision.ID, "choice_9_z")
	assert.ErrorIs(t, err, models.ErrChoiceNotFound)

	_, err = f.attempts.RecordChoice(ctx, attempt.ID, user, res.Scenes[0].ID, "choice_1_a")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.attempts.RecordChoice(ctx, uuid.New(), user, decision.ID, "choice_1_a")
	assert.ErrorIs(t, err, models.ErrAttemptNotFound)

	_, err = f.attempts.StartAttempt(ctx, uuid.New(), user)
	assert.ErrorIs(t, err, models.ErrScenarioNotFound)
}

func TestAttemptService_DecisionsAreAnsweredInOrder(t *testing.T) {
	ctx := context.Background()
	f := newScenarioFixture(t)
	res := f.generate(t)
	user := uuid.New()
	decisions := decisionsOf(res.Scenes)
	require.Len(t, decisions, 3)

	attempt, err := f.attempts.StartAttempt(ctx, res.Scenario.ID, user)
	require.NoError(t, err)

	last := choiceWithQuality(t, decisions[2], models.QualityOptimal)
	_, err = f.attempts.RecordChoice(ctx, attempt.ID, user, decisions[2].ID, last.ID)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	first := choiceWithQuality(t, decisions[0], models.QualityOptimal)
	outcome, err := f.attempts.RecordChoice(ctx, attempt.ID, user, decisions[0].ID, first.ID)
	require.NoError(t, err)
	assert.Nil(t, outcome.FinalOutcomeSceneID)
	assert.Empty(t, outcome.Tier)

	_, err = f.attempts.RecordChoice(ctx, attempt.ID, user, decisions[2].ID, last.ID)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	stored := f.store.attempts[attempt.ID]
	assert.Equal(t, 10, stored.Score)
	assert.Len(t, stored.ChoicesMade, 1)
}

func TestAttemptService_GetLeaderboardLimits(t *testing.T) {
	ctx := context.Background()
	scenarioID := uuid.New()

	tests := []struct {
		name      string
		requested int
		applied   int
	}{
		{"default", 0, 10},
		{"negative", -5, 10},
		{"custom", 25, 25},
		{"capped", 500, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenarios := mocks.NewScenarioRepository(t)
			attempts := mocks.NewAttemptRepository(t)
			scenarios.On("GetByID", mock.Anything, mock.Anything, scenarioID).Return(&models.Scenario{ID: scenarioID}, nil).Once()
			attempts.On("Leaderboard", mock.Anything, mock.Anything, scenarioID, tt.applied).Return(nil, nil).Once()
			svc := service.NewAttemptService(nil, &mocks.TxManager{}, scenarios, mocks.NewSceneRepository(t), attempts, zap.NewNop())

			entries, err := svc.GetLeaderboard(ctx, scenarioID, tt.requested)
			require.NoError(t, err)
			assert.NotNil(t, entries)
			assert.Empty(t, entries)
		})
	}
}
