package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SceneContent is the layout-specific payload of a content scene.
// Synthesized and fallback content produce the same variants, so callers never
// need to know which path built the value.
type SceneContent interface {
	Layout() Layout
	Validate() error
	Apply(scene *Scene)
}

// BulletsContent: intro sentence, three bullets.
type BulletsContent struct {
	Body      string   `json:"body"`
	Bullets   []string `json:"bullets"`
	Narration string   `json:"narration"`
}

// FullTextContent: a single paragraph.
type FullTextContent struct {
	Body      string `json:"body"`
	Narration string `json:"narration"`
}

// StatContent: a headline statistic.
type StatContent struct {
	StatValue string `json:"statValue"`
	StatLabel string `json:"statLabel"`
	Narration string `json:"narration"`
}

// QuoteContent: a quotation with attribution.
type QuoteContent struct {
	Quote       string `json:"quote"`
	QuoteAuthor string `json:"quoteAuthor"`
	Narration   string `json:"narration"`
}

// TwoCardContent: do / don't cards.
type TwoCardContent struct {
	Cards     []Card `json:"cards"`
	Narration string `json:"narration"`
}

// FourCardContent: four step cards.
type FourCardContent struct {
	Cards     []Card `json:"cards"`
	Narration string `json:"narration"`
}

// TimelineContent: ordered steps.
type TimelineContent struct {
	TimelineItems []TimelineItem `json:"timelineItems"`
	Narration     string         `json:"narration"`
}

// IconListContent: icon rows.
type IconListContent struct {
	IconItems []IconItem `json:"iconItems"`
	Narration string     `json:"narration"`
}

// SplitContent: text beside an image.
type SplitContent struct {
	Body      string `json:"body"`
	Narration string `json:"narration"`
}

func (c *BulletsContent) Layout() Layout  { return LayoutBullets }
func (c *FullTextContent) Layout() Layout { return LayoutFullText }
func (c *StatContent) Layout() Layout     { return LayoutStat }
func (c *QuoteContent) Layout() Layout    { return LayoutQuote }
func (c *TwoCardContent) Layout() Layout  { return LayoutCards2 }
func (c *FourCardContent) Layout() Layout { return LayoutCards4 }
func (c *TimelineContent) Layout() Layout { return LayoutTimeline }
func (c *IconListContent) Layout() Layout { return LayoutIconList }
func (c *SplitContent) Layout() Layout    { return LayoutSplit }

func (c *BulletsContent) Validate() error {
	if err := requireText("body", c.Body, "narration", c.Narration); err != nil {
		return err
	}
	if len(c.Bullets) < 3 {
		return fmt.Errorf("%w: bullets expects 3 items, got %d", ErrInvalidInput, len(c.Bullets))
	}
	for i, b := range c.Bullets {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("%w: bullet %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

func (c *FullTextContent) Validate() error {
	return requireText("body", c.Body, "narration", c.Narration)
}

func (c *StatContent) Validate() error {
	return requireText("statValue", c.StatValue, "statLabel", c.StatLabel, "narration", c.Narration)
}

func (c *QuoteContent) Validate() error {
	return requireText("quote", c.Quote, "quoteAuthor", c.QuoteAuthor, "narration", c.Narration)
}

func (c *TwoCardContent) Validate() error {
	if err := requireText("narration", c.Narration); err != nil {
		return err
	}
	return validateCards(c.Cards, 2)
}

func (c *FourCardContent) Validate() error {
	if err := requireText("narration", c.Narration); err != nil {
		return err
	}
	return validateCards(c.Cards, 4)
}

func (c *TimelineContent) Validate() error {
	if err := requireText("narration", c.Narration); err != nil {
		return err
	}
	if len(c.TimelineItems) < 3 {
		return fmt.Errorf("%w: timeline expects at least 3 items, got %d", ErrInvalidInput, len(c.TimelineItems))
	}
	for i, item := range c.TimelineItems {
		if strings.TrimSpace(item.Year) == "" || strings.TrimSpace(item.Event) == "" {
			return fmt.Errorf("%w: timeline item %d is incomplete", ErrInvalidInput, i)
		}
	}
	return nil
}

func (c *IconListContent) Validate() error {
	if err := requireText("narration", c.Narration); err != nil {
		return err
	}
	if len(c.IconItems) < 3 {
		return fmt.Errorf("%w: iconlist expects at least 3 items, got %d", ErrInvalidInput, len(c.IconItems))
	}
	for i, item := range c.IconItems {
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("%w: icon item %d has no title", ErrInvalidInput, i)
		}
	}
	return nil
}

func (c *SplitContent) Validate() error {
	return requireText("body", c.Body, "narration", c.Narration)
}

func (c *BulletsContent) Apply(s *Scene) {
	s.Body = c.Body
	s.Bullets = append([]string(nil), c.Bullets[:3]...)
	s.Narration = c.Narration
}

func (c *FullTextContent) Apply(s *Scene) {
	s.Body = c.Body
	s.Narration = c.Narration
}

func (c *StatContent) Apply(s *Scene) {
	s.StatValue = c.StatValue
	s.StatLabel = c.StatLabel
	s.Narration = c.Narration
}

func (c *QuoteContent) Apply(s *Scene) {
	s.Quote = c.Quote
	s.QuoteAuthor = c.QuoteAuthor
	s.Narration = c.Narration
}

func (c *TwoCardContent) Apply(s *Scene) {
	s.Cards = append([]Card(nil), c.Cards[:2]...)
	s.Narration = c.Narration
}

func (c *FourCardContent) Apply(s *Scene) {
	s.Cards = append([]Card(nil), c.Cards[:4]...)
	s.Narration = c.Narration
}

func (c *TimelineContent) Apply(s *Scene) {
	s.TimelineItems = append([]TimelineItem(nil), c.TimelineItems...)
	s.Narration = c.Narration
}

func (c *IconListContent) Apply(s *Scene) {
	s.IconItems = append([]IconItem(nil), c.IconItems...)
	s.Narration = c.Narration
}

func (c *SplitContent) Apply(s *Scene) {
	s.Body = c.Body
	s.Narration = c.Narration
}

// NewContent returns an empty content value for the layout.
func NewContent(layout Layout) (SceneContent, error) {
	switch layout {
	case LayoutBullets:
		return &BulletsContent{}, nil
	case LayoutFullText:
		return &FullTextContent{}, nil
	case LayoutStat:
		return &StatContent{}, nil
	case LayoutQuote:
		return &QuoteContent{}, nil
	case LayoutCards2:
		return &TwoCardContent{}, nil
	case LayoutCards4:
		return &FourCardContent{}, nil
	case LayoutTimeline:
		return &TimelineContent{}, nil
	case LayoutIconList:
		return &IconListContent{}, nil
	case LayoutSplit:
		return &SplitContent{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported content layout %q", ErrInvalidInput, layout)
	}
}

// DecodeContent parses a JSON object into the variant for layout and validates it.
func DecodeContent(layout Layout, data []byte) (SceneContent, error) {
	content, err := NewContent(layout)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, content); err != nil {
		return nil, fmt.Errorf("decode %s content: %w", layout, err)
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}
	return content, nil
}

func requireText(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: field %s is required", ErrInvalidInput, pairs[i])
		}
	}
	return nil
}

func validateCards(cards []Card, want int) error {
	if len(cards) < want {
		return fmt.Errorf("%w: expected %d cards, got %d", ErrInvalidInput, want, len(cards))
	}
	for i, card := range cards[:want] {
		if strings.TrimSpace(card.Title) == "" {
			return fmt.Errorf("%w: card %d has no title", ErrInvalidInput, i)
		}
	}
	return nil
}
