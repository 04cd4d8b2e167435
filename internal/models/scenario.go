package models

import (
	"time"

	"github.com/google/uuid"
)

// ChoiceQuality grades a choice at a decision point.
type ChoiceQuality string

const (
	QualityOptimal    ChoiceQuality = "optimal"
	QualitySuboptimal ChoiceQuality = "suboptimal"
	QualityPoor       ChoiceQuality = "poor"
)

// Qualities lists choice qualities from best to worst.
var Qualities = []ChoiceQuality{QualityOptimal, QualitySuboptimal, QualityPoor}

// OutcomeTier is the aggregate performance tier of a final outcome scene.
type OutcomeTier string

const (
	TierGood    OutcomeTier = "good"
	TierNeutral OutcomeTier = "neutral"
	TierPoor    OutcomeTier = "poor"
)

// Tiers lists final outcome tiers from best to worst.
var Tiers = []OutcomeTier{TierGood, TierNeutral, TierPoor}

// TierFor maps a choice quality to the outcome tier it reflects.
func TierFor(q ChoiceQuality) OutcomeTier {
	switch q {
	case QualityOptimal:
		return TierGood
	case QualitySuboptimal:
		return TierNeutral
	default:
		return TierPoor
	}
}

// Difficulty of a branching scenario.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Choice is embedded in a scenario_decision scene.
type Choice struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	Quality       ChoiceQuality `json:"quality"`
	TargetSceneID uuid.UUID     `json:"target_scene_id"`
	Points        int           `json:"points"`
	Reasoning     string        `json:"reasoning"`
}

// Scenario holds branching scenario metadata for a project.
type Scenario struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ProjectID      uuid.UUID  `db:"project_id" json:"project_id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	Difficulty     Difficulty `db:"difficulty" json:"difficulty"`
	DecisionPoints int        `db:"decision_points" json:"decision_points"`
	Industry       string     `db:"industry" json:"industry"`
	Topic          string     `db:"topic" json:"topic"`
	MaxScore       int        `db:"max_score" json:"max_score"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// AttemptStatus of a learner's traversal.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// ChoiceRecord is one entry of an attempt's choice history.
type ChoiceRecord struct {
	SceneID   uuid.UUID     `json:"scene_id"`
	ChoiceID  string        `json:"choice_id"`
	Quality   ChoiceQuality `json:"quality"`
	Points    int           `json:"points"`
	Timestamp time.Time     `json:"timestamp"`
}

// ScenarioAttempt is one learner's traversal of a scenario.
type ScenarioAttempt struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	ScenarioID  uuid.UUID      `db:"scenario_id" json:"scenario_id"`
	UserID      uuid.UUID      `db:"user_id" json:"user_id"`
	Score       int            `db:"score" json:"score"`
	MaxScore    int            `db:"max_score" json:"max_score"`
	PathTaken   []uuid.UUID    `db:"path_taken" json:"path_taken"`
	ChoicesMade []ChoiceRecord `db:"choices_made" json:"choices_made"`
	Status      AttemptStatus  `db:"status" json:"status"`
	StartedAt   time.Time      `db:"started_at" json:"started_at"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// Percentage of the max score reached.
func (a *ScenarioAttempt) Percentage() float64 {
	if a.MaxScore <= 0 {
		return 0
	}
	return float64(a.Score) * 100 / float64(a.MaxScore)
}

// AttemptResult is an attempt joined with scenario metadata.
type AttemptResult struct {
	AttemptID      uuid.UUID      `db:"attempt_id" json:"attempt_id"`
	ScenarioID     uuid.UUID      `db:"scenario_id" json:"scenario_id"`
	ProjectID      uuid.UUID      `db:"project_id" json:"project_id"`
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	ScenarioTitle  string         `db:"scenario_title" json:"scenario_title"`
	Topic          string         `db:"topic" json:"topic"`
	Difficulty     Difficulty     `db:"difficulty" json:"difficulty"`
	DecisionPoints int            `db:"decision_points" json:"decision_points"`
	Score          int            `db:"score" json:"score"`
	MaxScore       int            `db:"max_score" json:"max_score"`
	PathTaken      []uuid.UUID    `db:"path_taken" json:"path_taken"`
	ChoicesMade    []ChoiceRecord `db:"choices_made" json:"choices_made"`
	Status         AttemptStatus  `db:"status" json:"status"`
	StartedAt      time.Time      `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	Tier           OutcomeTier    `db:"-" json:"tier,omitempty"`
}

// LeaderboardEntry is a learner's best result on a scenario.
type LeaderboardEntry struct {
	UserID             uuid.UUID `db:"user_id" json:"user_id"`
	BestScore          int       `db:"best_score" json:"best_score"`
	MaxScore           int       `db:"max_score" json:"max_score"`
	BestPercentage     float64   `db:"best_percentage" json:"best_percentage"`
	FastestTimeSeconds float64   `db:"fastest_time_seconds" json:"fastest_time_seconds"`
	Attempts           int       `db:"attempts" json:"attempts"`
}

// AttemptHistoryEntry is a learner's attempt with the scenario title.
type AttemptHistoryEntry struct {
	AttemptID     uuid.UUID     `db:"attempt_id" json:"attempt_id"`
	ScenarioID    uuid.UUID     `db:"scenario_id" json:"scenario_id"`
	ScenarioTitle string        `db:"scenario_title" json:"scenario_title"`
	Score         int           `db:"score" json:"score"`
	MaxScore      int           `db:"max_score" json:"max_score"`
	Status        AttemptStatus `db:"status" json:"status"`
	StartedAt     time.Time     `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
}
