package service

import (
	"fmt"
	"strings"

	"scenegen-server/internal/models"

	"github.com/google/uuid"
)

// ScoringConfig holds the points awarded per choice quality.
type ScoringConfig struct {
	Optimal    int
	Suboptimal int
	Poor       int
}

// DefaultScoring is 10/5/2: a poor choice still earns something.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{Optimal: 10, Suboptimal: 5, Poor: 2}
}

// Validate requires strictly ordered point values.
func (c ScoringConfig) Validate() error {
	if !(c.Optimal > c.Suboptimal && c.Suboptimal > c.Poor) {
		return fmt.Errorf("%w: points must be ordered optimal > suboptimal > poor", models.ErrInvalidInput)
	}
	return nil
}

// PointsFor returns the points for a choice quality.
func (c ScoringConfig) PointsFor(q models.ChoiceQuality) int {
	switch q {
	case models.QualityOptimal:
		return c.Optimal
	case models.QualitySuboptimal:
		return c.Suboptimal
	default:
		return c.Poor
	}
}

// NarrativeBlock is the text of one scenario scene.
type NarrativeBlock struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Narration string `json:"narration"`
	Feedback  string `json:"feedback,omitempty"`
}

// ChoiceContent is one option at a decision point with its consequence.
type ChoiceContent struct {
	Text        string               `json:"text"`
	Quality     models.ChoiceQuality `json:"quality"`
	Reasoning   string               `json:"reasoning"`
	Consequence NarrativeBlock       `json:"consequence"`
}

// DecisionContent is a decision point.
type DecisionContent struct {
	NarrativeBlock
	Choices []ChoiceContent `json:"choices"`
}

// ScenarioContent is the narrative of a branching scenario. The tree shape is
// not part of it; BuildScenarioTree derives it.
type ScenarioContent struct {
	Title       string                                `json:"title"`
	Description string                                `json:"description"`
	Intro       NarrativeBlock                        `json:"intro"`
	Decisions   []DecisionContent                     `json:"decisions"`
	Outcomes    map[models.OutcomeTier]NarrativeBlock `json:"outcomes"`
}

// Normalize trims extra decisions and checks the content can fill a tree with
// decisionPoints decisions.
func (c *ScenarioContent) Normalize(decisionPoints int) error {
	if strings.TrimSpace(c.Intro.Title) == "" && strings.TrimSpace(c.Intro.Body) == "" {
		return fmt.Errorf("%w: intro is empty", models.ErrInvalidInput)
	}
	if len(c.Decisions) < decisionPoints {
		return fmt.Errorf("%w: expected %d decisions, got %d", models.ErrInvalidInput, decisionPoints, len(c.Decisions))
	}
	c.Decisions = c.Decisions[:decisionPoints]

	for i, d := range c.Decisions {
		if strings.TrimSpace(d.Body) == "" && strings.TrimSpace(d.Title) == "" {
			return fmt.Errorf("%w: decision %d is empty", models.ErrInvalidInput, i+1)
		}
		if len(d.Choices) != len(models.Qualities) {
			return fmt.Errorf("%w: decision %d has %d choices", models.ErrInvalidInput, i+1, len(d.Choices))
		}
		seen := make(map[models.ChoiceQuality]bool, len(models.Qualities))
		for _, ch := range d.Choices {
			if strings.TrimSpace(ch.Text) == "" {
				return fmt.Errorf("%w: decision %d has an empty choice", models.ErrInvalidInput, i+1)
			}
			switch ch.Quality {
			case models.QualityOptimal, models.QualitySuboptimal, models.QualityPoor:
			default:
				return fmt.Errorf("%w: decision %d has unknown quality %q", models.ErrInvalidInput, i+1, ch.Quality)
			}
			if seen[ch.Quality] {
				return fmt.Errorf("%w: decision %d repeats quality %q", models.ErrInvalidInput, i+1, ch.Quality)
			}
			seen[ch.Quality] = true
		}
	}

	for _, tier := range models.Tiers {
		if strings.TrimSpace(c.Outcomes[tier].Title) == "" {
			return fmt.Errorf("%w: missing %s outcome", models.ErrInvalidInput, tier)
		}
	}
	if strings.TrimSpace(c.Title) == "" {
		c.Title = c.Intro.Title
	}
	return nil
}

var qualityGradients = map[models.ChoiceQuality]string{
	models.QualityOptimal:    gradient("#065f46", "#047857"),
	models.QualitySuboptimal: gradient("#92400e", "#b45309"),
	models.QualityPoor:       gradient("#7f1d1d", "#991b1b"),
}

var tierQuality = map[models.OutcomeTier]models.ChoiceQuality{
	models.TierGood:    models.QualityOptimal,
	models.TierNeutral: models.QualitySuboptimal,
	models.TierPoor:    models.QualityPoor,
}

// ScenarioTree is a built decision tree. Scenes are ordered by scene number.
type ScenarioTree struct {
	Scenes       []*models.Scene
	Intro        *models.Scene
	Decisions    []*models.Scene
	Consequences [][]*models.Scene // per decision, in choice order
	Finals       map[models.OutcomeTier]*models.Scene
	MaxScore     int
}

// BuildScenarioTree lays out every node first and wires edges in a second
// pass, once every scene id is known. The consequences of the last decision
// have no forward edge; the final outcome is chosen by tier at runtime.
func BuildScenarioTree(content *ScenarioContent, scoring ScoringConfig) *ScenarioTree {
	tree := &ScenarioTree{Finals: make(map[models.OutcomeTier]*models.Scene, len(models.Tiers))}
	number := 0
	add := func(s *models.Scene) *models.Scene {
		number++
		s.ID = uuid.New()
		s.SceneNumber = number
		tree.Scenes = append(tree.Scenes, s)
		return s
	}

	// 1: арена узлов без связей
	tree.Intro = add(&models.Scene{
		SceneType: models.SceneTypeIntro,
		Layout:    models.LayoutFullText,
		Title:     content.Intro.Title,
		Body:      content.Intro.Body,
		Narration: content.Intro.Narration,
	})
	tree.Intro.SetGradient(GradientAt(0))

	for i, d := range content.Decisions {
		decision := add(&models.Scene{
			SceneType: models.SceneTypeScenarioDecision,
			Layout:    models.LayoutDecision,
			Eyebrow:   fmt.Sprintf("Decision %d", i+1),
			Title:     d.Title,
			Body:      d.Body,
			Narration: d.Narration,
		})
		decision.SetGradient(GradientAt(i + 1))
		tree.Decisions = append(tree.Decisions, decision)

		consequences := make([]*models.Scene, 0, len(d.Choices))
		for _, ch := range d.Choices {
			feedback := ch.Consequence.Feedback
			if feedback == "" {
				feedback = ch.Reasoning
			}
			c := add(&models.Scene{
				SceneType:     models.SceneTypeConsequence,
				Layout:        models.LayoutOutcome,
				Title:         ch.Consequence.Title,
				Body:          ch.Consequence.Body,
				Narration:     ch.Consequence.Narration,
				ChoiceQuality: ch.Quality,
				Points:        scoring.PointsFor(ch.Quality),
				Feedback:      feedback,
			})
			c.SetGradient(qualityGradients[ch.Quality])
			consequences = append(consequences, c)
		}
		tree.Consequences = append(tree.Consequences, consequences)
	}

	for _, tier := range models.Tiers {
		o := content.Outcomes[tier]
		final := add(&models.Scene{
			SceneType:   models.SceneTypeFinalOutcome,
			Layout:      models.LayoutOutcome,
			Title:       o.Title,
			Body:        o.Body,
			Narration:   o.Narration,
			OutcomeTier: tier,
		})
		final.SetGradient(qualityGradients[tierQuality[tier]])
		tree.Finals[tier] = final
	}

	// 2: связи
	if len(tree.Decisions) > 0 {
		next := tree.Decisions[0].ID
		tree.Intro.NextSceneID = &next
	}
	for i, d := range content.Decisions {
		decision := tree.Decisions[i]
		best := 0
		for j, ch := range d.Choices {
			points := scoring.PointsFor(ch.Quality)
			decision.Choices = append(decision.Choices, models.Choice{
				ID:            fmt.Sprintf("choice_%d_%c", i+1, 'a'+j),
				Text:          ch.Text,
				Quality:       ch.Quality,
				TargetSceneID: tree.Consequences[i][j].ID,
				Points:        points,
				Reasoning:     ch.Reasoning,
			})
			if points > best {
				best = points
			}
		}
		decision.Points = best
		tree.MaxScore += best

		if i+1 < len(tree.Decisions) {
			for _, c := range tree.Consequences[i] {
				next := tree.Decisions[i+1].ID
				c.NextSceneID = &next
			}
		}
	}
	return tree
}

// TierForChoices picks the tier the choices predominantly reflect. Ties go to
// the lower tier, except a three-way tie which is neutral.
func TierForChoices(records []models.ChoiceRecord) models.OutcomeTier {
	counts := make(map[models.OutcomeTier]int, len(models.Tiers))
	for _, r := range records {
		counts[models.TierFor(r.Quality)]++
	}
	good, neutral, poor := counts[models.TierGood], counts[models.TierNeutral], counts[models.TierPoor]
	if good == neutral && neutral == poor {
		return models.TierNeutral
	}

	best := models.TierGood
	for _, tier := range models.Tiers {
		if counts[tier] >= counts[best] {
			best = tier
		}
	}
	return best
}

// FallbackScenarioContent writes a complete scenario without any external call.
func FallbackScenarioContent(req models.GenerateScenarioRequest) *ScenarioContent {
	topic := req.Topic
	content := &ScenarioContent{
		Title:       topic + " Training Scenario",
		Description: fmt.Sprintf("An interactive %s scenario on %s with %d decision points.", strings.ToLower(req.Industry), topic, req.DecisionPoints),
		Intro: NarrativeBlock{
			Title: topic + " Training Scenario",
			Body: fmt.Sprintf("You are about to experience a realistic workplace scenario that will test your knowledge and decision-making skills regarding %s. "+
				"Pay attention to each situation and choose the response that best aligns with company policies and best practices.", topic),
			Narration: fmt.Sprintf("Welcome to this interactive training scenario on %s. You'll face %d key decisions. Choose wisely!", topic, req.DecisionPoints),
		},
		Outcomes: map[models.OutcomeTier]NarrativeBlock{
			models.TierGood: {
				Title:     "Outstanding Performance",
				Body:      fmt.Sprintf("Your decisions consistently reflected best practice in %s. Your team can rely on your judgement.", topic),
				Narration: "Excellent work. You handled every situation like a professional.",
			},
			models.TierNeutral: {
				Title:     "Room for Improvement",
				Body:      fmt.Sprintf("You resolved the situations, but some decisions skipped important %s steps. Review the feedback to strengthen your approach.", topic),
				Narration: "You got through it. Review the feedback to sharpen your decisions.",
			},
			models.TierPoor: {
				Title:     "Needs Review",
				Body:      fmt.Sprintf("Several decisions put people or the organisation at risk. Revisit the %s guidelines and try the scenario again.", topic),
				Narration: "This scenario did not go well. Review the guidelines and try again.",
			},
		},
	}

	for i := 0; i < req.DecisionPoints; i++ {
		choices := fallbackChoices(topic)
		// оптимальный вариант не всегда первый
		shift := i % len(choices)
		choices = append(choices[shift:], choices[:shift]...)
		content.Decisions = append(content.Decisions, DecisionContent{
			NarrativeBlock: NarrativeBlock{
				Title:     fmt.Sprintf("Decision Point %d", i+1),
				Body:      fmt.Sprintf("A situation involving %s comes up in your %s workplace and needs your response. What do you do?", topic, strings.ToLower(req.Industry)),
				Narration: "Consider your options carefully before you decide.",
			},
			Choices: choices,
		})
	}
	return content
}

func fallbackChoices(topic string) []ChoiceContent {
	return []ChoiceContent{
		{
			Text:      fmt.Sprintf("Follow the established %s procedure and involve the right people", topic),
			Quality:   models.QualityOptimal,
			Reasoning: "This follows best practice and addresses the issue completely.",
			Consequence: NarrativeBlock{
				Title:     "Excellent Choice!",
				Body:      "The situation is resolved quickly and everyone involved knows what happened and why.",
				Narration: "Well done. Following the procedure kept everyone safe and informed.",
			},
		},
		{
			Text:      "Handle it yourself without consulting anyone",
			Quality:   models.QualitySuboptimal,
			Reasoning: "It addresses the immediate issue but skips important steps.",
			Consequence: NarrativeBlock{
				Title:     "Partially Effective",
				Body:      "The immediate problem is handled, but nobody else is aware and the root cause remains.",
				Narration: "That worked for now, but skipping steps leaves gaps.",
			},
		},
		{
			Text:      "Ignore the situation and hope it resolves itself",
			Quality:   models.QualityPoor,
			Reasoning: "Ignoring the issue increases the risk for everyone.",
			Consequence: NarrativeBlock{
				Title:     "Poor Choice",
				Body:      "The situation escalates and becomes much harder to fix.",
				Narration: "Ignoring problems rarely makes them go away.",
			},
		},
	}
}
