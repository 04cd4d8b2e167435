package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenegen-server/internal/models"
)

func planTopics() []models.Topic {
	return []models.Topic{
		{Name: "Safety Basics", Subtopics: []string{"Hazards", "Equipment", "Reporting"}},
		{Name: "Emergencies", Subtopics: []string{"Evacuation"}},
	}
}

func slotTypes(slots []Slot) []models.SceneType {
	types := make([]models.SceneType, 0, len(slots))
	for _, s := range slots {
		types = append(types, s.Type)
	}
	return types
}

func TestBuildScenePlan(t *testing.T) {
	t.Run("Full expansion fits the budget", func(t *testing.T) {
		slots, err := BuildScenePlan("Workplace Safety", planTopics(), 20)
		require.NoError(t, err)

		assert.Equal(t, []models.SceneType{
			models.SceneTypeIntro,
			models.SceneTypeChapter, models.SceneTypeContent, models.SceneTypeContent, models.SceneTypeContent,
			models.SceneTypeChapter, models.SceneTypeContent,
			models.SceneTypeClosing,
		}, slotTypes(slots))
		for i, s := range slots {
			assert.Equal(t, i+1, s.Number)
		}
		assert.Equal(t, "Workplace Safety", slots[0].Topic)
		assert.Equal(t, "Equipment", slots[3].Subtopic)
		assert.Equal(t, "1.2", slots[3].Eyebrow())
		assert.Equal(t, "Chapter 2", slots[5].Eyebrow())
		assert.Equal(t, 2, ChapterCount(slots))
	})

	t.Run("Budget of four keeps intro and closing", func(t *testing.T) {
		slots, err := BuildScenePlan("Workplace Safety", planTopics(), 4)
		require.NoError(t, err)

		assert.Equal(t, []models.SceneType{
			models.SceneTypeIntro, models.SceneTypeChapter, models.SceneTypeContent, models.SceneTypeClosing,
		}, slotTypes(slots))
		assert.Equal(t, "Hazards", slots[2].Subtopic)
	})

	t.Run("Orphaned chapter is dropped", func(t *testing.T) {
		// intro + 4 тела + closing: вторая глава осталась бы пустой
		slots, err := BuildScenePlan("Workplace Safety", planTopics(), 7)
		require.NoError(t, err)

		assert.Len(t, slots, 6)
		assert.Equal(t, 1, ChapterCount(slots))
		assert.Equal(t, models.SceneTypeClosing, slots[len(slots)-1].Type)
	})

	t.Run("Tiny budgets keep the intro", func(t *testing.T) {
		slots, err := BuildScenePlan("Course", planTopics(), 1)
		require.NoError(t, err)
		assert.Equal(t, []models.SceneType{models.SceneTypeIntro}, slotTypes(slots))

		slots, err = BuildScenePlan("Course", planTopics(), 2)
		require.NoError(t, err)
		assert.Equal(t, []models.SceneType{models.SceneTypeIntro}, slotTypes(slots))

		slots, err = BuildScenePlan("Course", planTopics(), 3)
		require.NoError(t, err)
		assert.Equal(t, []models.SceneType{models.SceneTypeIntro, models.SceneTypeClosing}, slotTypes(slots))
	})

	t.Run("No topics", func(t *testing.T) {
		_, err := BuildScenePlan("Course", nil, 10)
		assert.ErrorIs(t, err, models.ErrNoTopics)

		_, err = BuildScenePlan("Course", []models.Topic{{Name: "Empty"}}, 10)
		assert.ErrorIs(t, err, models.ErrNoTopics)
	})

	t.Run("Non-positive count", func(t *testing.T) {
		_, err := BuildScenePlan("Course", planTopics(), 0)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestAssignLayouts(t *testing.T) {
	topics := []models.Topic{
		{Name: "One", Subtopics: []string{"a", "b", "c", "d"}},
		{Name: "Two", Subtopics: []string{"e", "f", "g"}},
		{Name: "Three", Subtopics: []string{"h", "i"}},
	}

	content, partial := 0, 0
	for seed := int64(1); seed <= 200; seed++ {
		slots, err := BuildScenePlan("Course", topics, 30)
		require.NoError(t, err)
		AssignLayouts(slots, rand.New(rand.NewSource(seed)))

		chapter := 0
		var prevContent models.Layout
		for i, s := range slots {
			require.NotEmpty(t, s.Layout, "seed %d slot %d", seed, i)
			require.NotEmpty(t, s.Background, "seed %d slot %d", seed, i)

			switch s.Type {
			case models.SceneTypeIntro, models.SceneTypeClosing:
				assert.Equal(t, models.LayoutHeadline, s.Layout)
				assert.Equal(t, models.BackgroundVideo, s.Background)
			case models.SceneTypeChapter:
				assert.Equal(t, models.LayoutChapter, s.Layout)
				assert.Equal(t, GradientAt(chapter), s.Gradient)
				chapter++
			case models.SceneTypeContent:
				assert.NotEqual(t, prevContent, s.Layout, "seed %d slot %d repeats layout", seed, i)
				prevContent = s.Layout
				assert.NotEqual(t, slots[i-1].Background, s.Background, "seed %d slot %d repeats medium", seed, i)
				if next := slots[i+1]; next.Type != models.SceneTypeContent {
					assert.NotEqual(t, next.Background, s.Background, "seed %d slot %d clashes with next", seed, i)
				}
				content++
				switch s.Layout {
				case models.LayoutSplit, models.LayoutIconList, models.LayoutCards4:
					assert.Equal(t, models.BackgroundImage, s.Background)
					partial++
				}
				if s.Background == models.BackgroundGradient {
					assert.NotEmpty(t, s.Gradient)
				}
			}
		}
	}

	share := float64(partial) / float64(content)
	assert.GreaterOrEqual(t, share, 0.3, "partial-image share")
	assert.LessOrEqual(t, share, 0.5, "partial-image share")
}

func TestGradientAt(t *testing.T) {
	assert.Equal(t, Gradients[0], GradientAt(0))
	assert.Equal(t, Gradients[1], GradientAt(len(Gradients)+1))
	assert.Equal(t, Gradients[2], GradientAt(-2))
	assert.Contains(t, GradientAt(3), "linear-gradient(135deg")
}

func TestFallbackContent(t *testing.T) {
	layouts := []models.Layout{
		models.LayoutBullets, models.LayoutFullText, models.LayoutStat, models.LayoutQuote,
		models.LayoutCards2, models.LayoutCards4, models.LayoutTimeline, models.LayoutIconList, models.LayoutSplit,
	}
	for _, layout := range layouts {
		t.Run(string(layout), func(t *testing.T) {
			content := FallbackContent(layout, "Fire Safety", "Extinguishers", 5)
			assert.Equal(t, layout, content.Layout())
			assert.NoError(t, content.Validate())

			scene := &models.Scene{}
			content.Apply(scene)
			assert.Equal(t, "Let's look at Extinguishers, a key part of Fire Safety.", scene.Narration)
		})
	}

	unknown := FallbackContent(models.LayoutHeadline, "Fire Safety", "", 0)
	assert.Equal(t, models.LayoutFullText, unknown.Layout())
	assert.NoError(t, unknown.Validate())
}

func TestFallbackTopics(t *testing.T) {
	topics := FallbackTopics("Cybersecurity", 0)
	require.Len(t, topics, 4)
	assert.Equal(t, "Understanding Cybersecurity", topics[0].Name)
	for _, topic := range topics {
		assert.Len(t, topic.Subtopics, 3)
	}

	assert.Len(t, FallbackTopics("Cybersecurity", 2), 2)
	assert.Len(t, FallbackTopics("Cybersecurity", 9), 4)
}
