package service_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"
)

// memStore is an in-memory stand-in for the Postgres repositories. It keeps
// copies so that callers cannot mutate stored rows through their pointers.
type memStore struct {
	mu        sync.Mutex
	projects  map[uuid.UUID]models.Project
	scenes    map[uuid.UUID]models.Scene
	scenarios map[uuid.UUID]models.Scenario
	attempts  map[uuid.UUID]models.ScenarioAttempt
}

func newMemStore() *memStore {
	return &memStore{
		projects:  map[uuid.UUID]models.Project{},
		scenes:    map[uuid.UUID]models.Scene{},
		scenarios: map[uuid.UUID]models.Scenario{},
		attempts:  map[uuid.UUID]models.ScenarioAttempt{},
	}
}

type memProjects struct{ s *memStore }
type memScenes struct{ s *memStore }
type memScenarios struct{ s *memStore }
type memAttempts struct{ s *memStore }

var (
	_ interfaces.ProjectRepository  = memProjects{}
	_ interfaces.SceneRepository    = memScenes{}
	_ interfaces.ScenarioRepository = memScenarios{}
	_ interfaces.AttemptRepository  = memAttempts{}
)

func (r memProjects) Create(_ context.Context, _ interfaces.DBTX, p *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.projects[p.ID] = *p
	return nil
}

func (r memProjects) Update(_ context.Context, _ interfaces.DBTX, p *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; !ok {
		return models.ErrProjectNotFound
	}
	r.s.projects[p.ID] = *p
	return nil
}

func (r memProjects) GetByID(_ context.Context, _ interfaces.DBTX, id uuid.UUID) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	return &p, nil
}

func (r memProjects) UpdateStatus(_ context.Context, _ interfaces.DBTX, id uuid.UUID, status models.ProjectStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return models.ErrProjectNotFound
	}
	p.Status = status
	r.s.projects[id] = p
	return nil
}

func (r memScenes) CreateBatch(_ context.Context, _ interfaces.DBTX, scenes []*models.Scene) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sc := range scenes {
		r.s.scenes[sc.ID] = *sc
	}
	return nil
}

func (r memScenes) GetByID(_ context.Context, _ interfaces.DBTX, id uuid.UUID) (*models.Scene, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scenes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &sc, nil
}

func (r memScenes) ListByProject(ctx context.Context, q interfaces.DBTX, projectID uuid.UUID) ([]*models.Scene, error) {
	return r.ListByProjectAndTypes(ctx, q, projectID, nil)
}

func (r memScenes) ListByProjectAndTypes(_ context.Context, _ interfaces.DBTX, projectID uuid.UUID, types []models.SceneType) ([]*models.Scene, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[models.SceneType]bool{}
	for _, t := range types {
		want[t] = true
	}
	var out []*models.Scene
	for _, sc := range r.s.scenes {
		if sc.ProjectID != projectID || (len(want) > 0 && !want[sc.SceneType]) {
			continue
		}
		copied := sc
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SceneNumber < out[j].SceneNumber })
	return out, nil
}

func (r memScenes) DeleteByProject(_ context.Context, _ interfaces.DBTX, projectID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sc := range r.s.scenes {
		if sc.ProjectID == projectID {
			delete(r.s.scenes, id)
			n++
		}
	}
	return n, nil
}

func (r memScenarios) Create(_ context.Context, _ interfaces.DBTX, sc *models.Scenario) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.scenarios[sc.ID] = *sc
	return nil
}

func (r memScenarios) GetByID(_ context.Context, _ interfaces.DBTX, id uuid.UUID) (*models.Scenario, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scenarios[id]
	if !ok {
		return nil, models.ErrScenarioNotFound
	}
	return &sc, nil
}

func (r memScenarios) GetByProjectID(_ context.Context, _ interfaces.DBTX, projectID uuid.UUID) (*models.Scenario, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sc := range r.s.scenarios {
		if sc.ProjectID == projectID {
			copied := sc
			return &copied, nil
		}
	}
	return nil, models.ErrScenarioNotFound
}

func (r memAttempts) Create(_ context.Context, _ interfaces.DBTX, a *models.ScenarioAttempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.attempts[a.ID] = cloneAttempt(*a)
	return nil
}

func (r memAttempts) GetByID(_ context.Context, _ interfaces.DBTX, id uuid.UUID) (*models.ScenarioAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attempts[id]
	if !ok {
		return nil, models.ErrAttemptNotFound
	}
	a = cloneAttempt(a)
	return &a, nil
}

func (r memAttempts) Update(_ context.Context, _ interfaces.DBTX, a *models.ScenarioAttempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.attempts[a.ID]; !ok {
		return models.ErrAttemptNotFound
	}
	r.s.attempts[a.ID] = cloneAttempt(*a)
	return nil
}

func (r memAttempts) GetResult(_ context.Context, _ interfaces.DBTX, id uuid.UUID) (*models.AttemptResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attempts[id]
	if !ok {
		return nil, models.ErrAttemptNotFound
	}
	sc := r.s.scenarios[a.ScenarioID]
	return &models.AttemptResult{
		AttemptID:      a.ID,
		ScenarioID:     a.ScenarioID,
		ProjectID:      sc.ProjectID,
		UserID:         a.UserID,
		ScenarioTitle:  sc.Title,
		Topic:          sc.Topic,
		Difficulty:     sc.Difficulty,
		DecisionPoints: sc.DecisionPoints,
		Score:          a.Score,
		MaxScore:       a.MaxScore,
		PathTaken:      append([]uuid.UUID(nil), a.PathTaken...),
		ChoicesMade:    append([]models.ChoiceRecord(nil), a.ChoicesMade...),
		Status:         a.Status,
		StartedAt:      a.StartedAt,
		CompletedAt:    a.CompletedAt,
	}, nil
}

// Leaderboard здесь упрощен: только лучший процент по пользователю.
func (r memAttempts) Leaderboard(_ context.Context, _ interfaces.DBTX, scenarioID uuid.UUID, limit int) ([]models.LeaderboardEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byUser := map[uuid.UUID]*models.LeaderboardEntry{}
	for _, a := range r.s.attempts {
		if a.ScenarioID != scenarioID || a.Status != models.AttemptCompleted {
			continue
		}
		e, ok := byUser[a.UserID]
		if !ok {
			e = &models.LeaderboardEntry{UserID: a.UserID, MaxScore: a.MaxScore}
			byUser[a.UserID] = e
		}
		e.Attempts++
		if p := a.Percentage(); p > e.BestPercentage || e.Attempts == 1 {
			e.BestPercentage = p
			e.BestScore = a.Score
		}
	}
	out := make([]models.LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BestPercentage > out[j].BestPercentage })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memAttempts) ListByUser(_ context.Context, _ interfaces.DBTX, userID uuid.UUID, limit int) ([]models.AttemptHistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.AttemptHistoryEntry
	for _, a := range r.s.attempts {
		if a.UserID != userID {
			continue
		}
		out = append(out, models.AttemptHistoryEntry{
			AttemptID:     a.ID,
			ScenarioID:    a.ScenarioID,
			ScenarioTitle: r.s.scenarios[a.ScenarioID].Title,
			Score:         a.Score,
			MaxScore:      a.MaxScore,
			Status:        a.Status,
			StartedAt:     a.StartedAt,
			CompletedAt:   a.CompletedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneAttempt(a models.ScenarioAttempt) models.ScenarioAttempt {
	a.PathTaken = append([]uuid.UUID(nil), a.PathTaken...)
	a.ChoicesMade = append([]models.ChoiceRecord(nil), a.ChoicesMade...)
	return a
}
