package models

import (
	"time"

	"github.com/google/uuid"
)

// SceneType enumerates the kinds of scenes stored in the scenes table.
type SceneType string

const (
	SceneTypeIntro            SceneType = "intro"
	SceneTypeChapter          SceneType = "chapter"
	SceneTypeContent          SceneType = "content"
	SceneTypeClosing          SceneType = "closing"
	SceneTypeQuiz             SceneType = "quiz"
	SceneTypeScenarioDecision SceneType = "scenario_decision"
	SceneTypeConsequence      SceneType = "consequence"
	SceneTypeFinalOutcome     SceneType = "final_outcome"
)

// Layout is the visual arrangement template of a scene.
type Layout string

const (
	LayoutHeadline Layout = "headline"
	LayoutChapter  Layout = "chapter"
	LayoutBullets  Layout = "bullets"
	LayoutFullText Layout = "fulltext"
	LayoutStat     Layout = "stat"
	LayoutQuote    Layout = "quote"
	LayoutCards2   Layout = "cards2"
	LayoutCards4   Layout = "cards4"
	LayoutTimeline Layout = "timeline"
	LayoutIconList Layout = "iconlist"
	LayoutSplit    Layout = "split"
	LayoutQuiz     Layout = "quiz"
	LayoutDecision Layout = "decision"
	LayoutOutcome  Layout = "outcome"
)

// BackgroundType is the background medium of a scene. Mutually exclusive.
type BackgroundType string

const (
	BackgroundVideo    BackgroundType = "video"
	BackgroundImage    BackgroundType = "image"
	BackgroundGradient BackgroundType = "gradient"
)

// Asset is a stock media item bound to a scene background.
type Asset struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnail_url"`
	Type         BackgroundType `json:"type"`
}

// Card is an entry of a two- or four-card layout.
type Card struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// TimelineItem is one step of a timeline layout.
type TimelineItem struct {
	Year  string `json:"year"`
	Event string `json:"event"`
}

// IconItem is one row of an icon list layout.
type IconItem struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// QuizQuestion is the payload of a quiz scene.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// Scene is a single persisted scene of a project.
// Exactly one of Gradient and AssetURL is populated for a scene with a background.
type Scene struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	ProjectID     uuid.UUID      `db:"project_id" json:"project_id"`
	SceneNumber   int            `db:"scene_number" json:"scene_number"`
	SceneType     SceneType      `db:"scene_type" json:"scene_type"`
	Layout        Layout         `db:"layout" json:"layout"`
	Eyebrow       string         `db:"eyebrow" json:"eyebrow,omitempty"`
	Title         string         `db:"title" json:"title"`
	Subtitle      string         `db:"subtitle" json:"subtitle,omitempty"`
	Body          string         `db:"body" json:"body,omitempty"`
	Narration     string         `db:"narration" json:"narration,omitempty"`
	Bullets       []string       `db:"bullets" json:"bullets,omitempty"`
	Cards         []Card         `db:"cards" json:"cards,omitempty"`
	TimelineItems []TimelineItem `db:"timeline_items" json:"timeline_items,omitempty"`
	IconItems     []IconItem     `db:"icon_items" json:"icon_items,omitempty"`
	StatValue     string         `db:"stat_value" json:"stat_value,omitempty"`
	StatLabel     string         `db:"stat_label" json:"stat_label,omitempty"`
	Quote         string         `db:"quote" json:"quote,omitempty"`
	QuoteAuthor   string         `db:"quote_author" json:"quote_author,omitempty"`
	Quiz          *QuizQuestion  `db:"quiz" json:"quiz,omitempty"`
	BgType        BackgroundType `db:"bg_type" json:"bg_type"`
	Gradient      string         `db:"gradient" json:"gradient,omitempty"`
	AssetURL      string         `db:"asset_url" json:"asset_url,omitempty"`
	AssetType     string         `db:"asset_type" json:"asset_type,omitempty"`
	AssetID       string         `db:"asset_id" json:"asset_id,omitempty"`
	AssetKeywords string         `db:"asset_keywords" json:"asset_keywords,omitempty"`
	Choices       []Choice       `db:"choices" json:"choices,omitempty"`
	NextSceneID   *uuid.UUID     `db:"next_scene_id" json:"next_scene_id,omitempty"`
	ChoiceQuality ChoiceQuality  `db:"choice_quality" json:"choice_quality,omitempty"`
	OutcomeTier   OutcomeTier    `db:"outcome_tier" json:"outcome_tier,omitempty"`
	Points        int            `db:"points" json:"points"`
	Feedback      string         `db:"feedback" json:"feedback,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// SetGradient binds a gradient background and clears any asset.
func (s *Scene) SetGradient(gradient string) {
	s.BgType = BackgroundGradient
	s.Gradient = gradient
	s.AssetURL, s.AssetType, s.AssetID = "", "", ""
}

// SetAsset binds a stock asset background and clears any gradient.
// A nil asset leaves the scene without imagery but keeps the requested medium.
func (s *Scene) SetAsset(medium BackgroundType, asset *Asset) {
	s.BgType = medium
	s.Gradient = ""
	if asset == nil {
		s.AssetURL, s.AssetType, s.AssetID = "", "", ""
		return
	}
	s.AssetURL = asset.URL
	s.AssetType = string(asset.Type)
	s.AssetID = asset.ID
}

// NarrationText is the text spoken for the scene.
func (s *Scene) NarrationText() string {
	switch {
	case s.Narration != "":
		return s.Narration
	case s.Body != "":
		return s.Body
	default:
		return s.Title
	}
}
