package service

import (
	"context"
	"fmt"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	userHistoryLimit        = 50
)

// AttemptService tracks learners' traversals of branching scenarios.
type AttemptService struct {
	db        interfaces.DBTX
	tx        interfaces.TxManager
	scenarios interfaces.ScenarioRepository
	scenes    interfaces.SceneRepository
	attempts  interfaces.AttemptRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttemptService creates the service.
func NewAttemptService(
	db interfaces.DBTX,
	tx interfaces.TxManager,
	scenarios interfaces.ScenarioRepository,
	scenes interfaces.SceneRepository,
	attempts interfaces.AttemptRepository,
	logger *zap.Logger,
) *AttemptService {
	return &AttemptService{
		db:        db,
		tx:        tx,
		scenarios: scenarios,
		scenes:    scenes,
		attempts:  attempts,
		logger:    logger.Named("AttemptService"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartAttempt opens an in-progress attempt positioned at the intro scene.
func (s *AttemptService) StartAttempt(ctx context.Context, scenarioID, userID uuid.UUID) (*models.ScenarioAttempt, error) {
	scenario, err := s.scenarios.GetByID(ctx, s.db, scenarioID)
	if err != nil {
		return nil, err
	}
	intro, err := s.scenes.ListByProjectAndTypes(ctx, s.db, scenario.ProjectID, []models.SceneType{models.SceneTypeIntro})
	if err != nil {
		return nil, err
	}

	attempt := &models.ScenarioAttempt{
		ID:          uuid.New(),
		ScenarioID:  scenario.ID,
		UserID:      userID,
		MaxScore:    scenario.MaxScore,
		PathTaken:   []uuid.UUID{},
		ChoicesMade: []models.ChoiceRecord{},
		Status:      models.AttemptInProgress,
		StartedAt:   s.now(),
	}
	if len(intro) > 0 {
		attempt.PathTaken = append(attempt.PathTaken, intro[0].ID)
	}
	if err := s.attempts.Create(ctx, s.db, attempt); err != nil {
		return nil, err
	}
	s.logger.Info("Attempt started",
		zap.String("attemptID", attempt.ID.String()),
		zap.String("scenarioID", scenarioID.String()),
		zap.String("userID", userID.String()))
	return attempt, nil
}

// RecordChoice applies a choice made at a decision scene and returns where the
// learner goes next. At the last decision the final outcome for the attempt's
// tier is resolved as well.
func (s *AttemptService) RecordChoice(ctx context.Context, attemptID, userID, sceneID uuid.UUID, choiceID string) (*models.ChoiceOutcome, error) {
	logFields := []zap.Field{
		zap.String("attemptID", attemptID.String()),
		zap.String("sceneID", sceneID.String()),
		zap.String("choiceID", choiceID),
	}

	var outcome *models.ChoiceOutcome
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		attempt, err := s.loadOwnAttempt(ctx, tx, attemptID, userID)
		if err != nil {
			return err
		}
		if attempt.Status == models.AttemptCompleted {
			return models.ErrAttemptCompleted
		}
		for _, rec := range attempt.ChoicesMade {
			if rec.SceneID == sceneID {
				return fmt.Errorf("%w: decision already answered", models.ErrInvalidInput)
			}
		}

		scenario, err := s.scenarios.GetByID(ctx, tx, attempt.ScenarioID)
		if err != nil {
			return err
		}
		decision, err := s.scenes.GetByID(ctx, tx, sceneID)
		if err != nil {
			return err
		}
		if decision.ProjectID != scenario.ProjectID || decision.SceneType != models.SceneTypeScenarioDecision {
			return fmt.Errorf("%w: scene is not a decision of this scenario", models.ErrInvalidInput)
		}

		var choice *models.Choice
		for i := range decision.Choices {
			if decision.Choices[i].ID == choiceID {
				choice = &decision.Choices[i]
				break
			}
		}
		if choice == nil {
			return models.ErrChoiceNotFound
		}

		expected, err := s.pendingDecision(ctx, tx, scenario, attempt)
		if err != nil {
			return err
		}
		if expected == nil || *expected != sceneID {
			return fmt.Errorf("%w: scene is not the next decision of the attempt", models.ErrInvalidInput)
		}

		if n := len(attempt.PathTaken); n == 0 || attempt.PathTaken[n-1] != sceneID {
			attempt.PathTaken = append(attempt.PathTaken, sceneID)
		}
		attempt.PathTaken = append(attempt.PathTaken, choice.TargetSceneID)
		attempt.ChoicesMade = append(attempt.ChoicesMade, models.ChoiceRecord{
			SceneID:   sceneID,
			ChoiceID:  choice.ID,
			Quality:   choice.Quality,
			Points:    choice.Points,
			Timestamp: s.now(),
		})
		attempt.Score += choice.Points

		outcome = &models.ChoiceOutcome{
			TargetSceneID: choice.TargetSceneID,
			Quality:       choice.Quality,
			Points:        choice.Points,
			Score:         attempt.Score,
		}

		if len(attempt.ChoicesMade) == scenario.DecisionPoints {
			tier := TierForChoices(attempt.ChoicesMade)
			outcome.Tier = tier
			finals, err := s.scenes.ListByProjectAndTypes(ctx, tx, scenario.ProjectID, []models.SceneType{models.SceneTypeFinalOutcome})
			if err != nil {
				return err
			}
			for _, f := range finals {
				if f.OutcomeTier == tier {
					id := f.ID
					outcome.FinalOutcomeSceneID = &id
					break
				}
			}
		}
		return s.attempts.Update(ctx, tx, attempt)
	})
	if err != nil {
		s.logger.Warn("Failed to record choice", append(logFields, zap.Error(err))...)
		return nil, err
	}
	s.logger.Debug("Choice recorded", append(logFields,
		zap.String("quality", string(outcome.Quality)),
		zap.Int("score", outcome.Score))...)
	return outcome, nil
}

// CompleteAttempt closes the attempt. An attempt is closed exactly once.
func (s *AttemptService) CompleteAttempt(ctx context.Context, attemptID, userID uuid.UUID) (*models.ScenarioAttempt, error) {
	var attempt *models.ScenarioAttempt
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		attempt, err = s.loadOwnAttempt(ctx, tx, attemptID, userID)
		if err != nil {
			return err
		}
		if attempt.Status == models.AttemptCompleted {
			return models.ErrAttemptCompleted
		}
		completedAt := s.now()
		attempt.Status = models.AttemptCompleted
		attempt.CompletedAt = &completedAt
		return s.attempts.Update(ctx, tx, attempt)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Attempt completed",
		zap.String("attemptID", attemptID.String()),
		zap.Int("score", attempt.Score),
		zap.Int("maxScore", attempt.MaxScore))
	return attempt, nil
}

// GetResults joins the attempt with its scenario and derives the tier.
func (s *AttemptService) GetResults(ctx context.Context, attemptID, userID uuid.UUID) (*models.AttemptResult, error) {
	res, err := s.attempts.GetResult(ctx, s.db, attemptID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, models.ErrForbidden
	}
	res.Tier = TierForChoices(res.ChoicesMade)
	return res, nil
}

// GetLeaderboard ranks learners by best percentage, then by fastest completion.
func (s *AttemptService) GetLeaderboard(ctx context.Context, scenarioID uuid.UUID, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if _, err := s.scenarios.GetByID(ctx, s.db, scenarioID); err != nil {
		return nil, err
	}
	entries, err := s.attempts.Leaderboard(ctx, s.db, scenarioID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

// GetUserHistory lists the learner's recent attempts.
func (s *AttemptService) GetUserHistory(ctx context.Context, userID uuid.UUID) ([]models.AttemptHistoryEntry, error) {
	entries, err := s.attempts.ListByUser(ctx, s.db, userID, userHistoryLimit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.AttemptHistoryEntry{}
	}
	return entries, nil
}

// pendingDecision returns the decision the attempt stands before: the intro's
// forward reference at the start, then the forward reference of the last
// consequence reached. Nil means no decision is left.
func (s *AttemptService) pendingDecision(ctx context.Context, querier interfaces.DBTX, scenario *models.Scenario, attempt *models.ScenarioAttempt) (*uuid.UUID, error) {
	if n := len(attempt.PathTaken); n > 0 {
		last, err := s.scenes.GetByID(ctx, querier, attempt.PathTaken[n-1])
		if err != nil {
			return nil, err
		}
		return last.NextSceneID, nil
	}
	intro, err := s.scenes.ListByProjectAndTypes(ctx, querier, scenario.ProjectID, []models.SceneType{models.SceneTypeIntro})
	if err != nil {
		return nil, err
	}
	if len(intro) == 0 {
		return nil, nil
	}
	return intro[0].NextSceneID, nil
}

func (s *AttemptService) loadOwnAttempt(ctx context.Context, querier interfaces.DBTX, attemptID, userID uuid.UUID) (*models.ScenarioAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, querier, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, models.ErrForbidden
	}
	return attempt, nil
}
