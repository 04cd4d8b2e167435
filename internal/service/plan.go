package service

import (
	"fmt"

	"scenegen-server/internal/models"
)

// Slot is a planned position in the linear scene sequence.
type Slot struct {
	Number        int
	Type          models.SceneType
	Topic         string
	Subtopic      string
	ChapterIndex  int // 0-based, for chapter and content slots
	SubtopicIndex int // 0-based within the chapter
	Layout        models.Layout
	Background    models.BackgroundType
	Gradient      string
}

// Eyebrow is the small label shown above the slot title.
func (s Slot) Eyebrow() string {
	switch s.Type {
	case models.SceneTypeChapter:
		return fmt.Sprintf("Chapter %d", s.ChapterIndex+1)
	case models.SceneTypeContent:
		return fmt.Sprintf("%d.%d", s.ChapterIndex+1, s.SubtopicIndex+1)
	default:
		return ""
	}
}

// BuildScenePlan expands topics into intro, chapter, content and closing slots.
// When the expansion exceeds sceneCount the content is cut from the end; a
// chapter left without content is dropped with it. The intro is always kept
// and the closing is kept whenever the budget allows three slots.
func BuildScenePlan(courseName string, topics []models.Topic, sceneCount int) ([]Slot, error) {
	if len(topics) == 0 {
		return nil, models.ErrNoTopics
	}
	if sceneCount < 1 {
		return nil, fmt.Errorf("%w: scene count must be positive", models.ErrInvalidInput)
	}

	var body []Slot
	for ti, topic := range topics {
		if len(topic.Subtopics) == 0 {
			continue
		}
		body = append(body, Slot{Type: models.SceneTypeChapter, Topic: topic.Name, ChapterIndex: ti})
		for si, sub := range topic.Subtopics {
			body = append(body, Slot{
				Type:          models.SceneTypeContent,
				Topic:         topic.Name,
				Subtopic:      sub,
				ChapterIndex:  ti,
				SubtopicIndex: si,
			})
		}
	}
	if len(body) == 0 {
		return nil, models.ErrNoTopics
	}

	withClosing := sceneCount >= 3
	budget := sceneCount - 1
	if withClosing {
		budget--
	}
	if len(body) > budget {
		body = body[:budget]
		// не оставляем главу без контента
		for len(body) > 0 && body[len(body)-1].Type == models.SceneTypeChapter {
			body = body[:len(body)-1]
		}
	}

	slots := make([]Slot, 0, len(body)+2)
	slots = append(slots, Slot{Type: models.SceneTypeIntro, Topic: courseName})
	slots = append(slots, body...)
	if withClosing {
		slots = append(slots, Slot{Type: models.SceneTypeClosing, Topic: courseName})
	}
	for i := range slots {
		slots[i].Number = i + 1
	}
	return slots, nil
}

// ChapterCount returns the number of chapter slots in the plan.
func ChapterCount(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if s.Type == models.SceneTypeChapter {
			n++
		}
	}
	return n
}
