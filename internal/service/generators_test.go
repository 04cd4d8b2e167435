package service_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenegen-server/internal/mocks"
	"scenegen-server/internal/models"
	"scenegen-server/internal/service"
)

func promptNamed(name string) interface{} {
	return mock.MatchedBy(func(p service.Prompt) bool { return p.Name == name })
}

func TestSceneSynthesizer_SynthesizeAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Synthesized content is applied", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("scene_stat")).
			Return(`{"statValue":"42%","statLabel":"fewer incidents","narration":"Forty-two percent fewer incidents."}`, nil).Once()
		resolver := service.NewAssetResolver(mocks.NewStockMediaSearcher(t), nil, service.AssetResolverConfig{}, zap.NewNop())
		synth := service.NewSceneSynthesizer(content, resolver, time.Second, zap.NewNop())

		slots := []service.Slot{{
			Number: 1, Type: models.SceneTypeContent, Topic: "Safety", Subtopic: "Incidents",
			Layout: models.LayoutStat, Background: models.BackgroundGradient, Gradient: service.GradientAt(3),
		}}
		scenes := synth.SynthesizeAll(ctx, "Safety 101", slots, service.NewAssetUsage(rand.New(rand.NewSource(1))))

		require.Len(t, scenes, 1)
		assert.Equal(t, "42%", scenes[0].StatValue)
		assert.Equal(t, "fewer incidents", scenes[0].StatLabel)
		assert.Equal(t, "Incidents", scenes[0].Title)
		assert.Equal(t, "1.1", scenes[0].Eyebrow)
		assert.Equal(t, models.BackgroundGradient, scenes[0].BgType)
		assert.Equal(t, service.GradientAt(3), scenes[0].Gradient)
		assert.Empty(t, scenes[0].AssetURL)
	})

	t.Run("Wrong shape falls back to the same layout", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("scene_bullets")).Return(`{"body":"only body"}`, nil).Once()
		resolver := service.NewAssetResolver(mocks.NewStockMediaSearcher(t), nil, service.AssetResolverConfig{}, zap.NewNop())
		synth := service.NewSceneSynthesizer(content, resolver, time.Second, zap.NewNop())

		slots := []service.Slot{{
			Number: 4, Type: models.SceneTypeContent, Topic: "Safety", Subtopic: "Ladders",
			Layout: models.LayoutBullets, Background: models.BackgroundGradient, Gradient: service.GradientAt(0),
		}}
		scenes := synth.SynthesizeAll(ctx, "Safety 101", slots, service.NewAssetUsage(rand.New(rand.NewSource(1))))

		require.Len(t, scenes, 1)
		assert.Len(t, scenes[0].Bullets, 3)
		assert.Equal(t, "Let's look at Ladders, a key part of Safety.", scenes[0].Narration)
	})

	t.Run("Every external failure still yields a complete sequence", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
		searcher := mocks.NewStockMediaSearcher(t)
		searcher.On("Search", mock.Anything, mock.Anything, mock.Anything, 15).Return(nil, errors.New("stock down"))
		resolver := service.NewAssetResolver(searcher, nil, service.AssetResolverConfig{}, zap.NewNop())
		synth := service.NewSceneSynthesizer(content, resolver, time.Second, zap.NewNop())

		slots, err := service.BuildScenePlan("Safety 101", []models.Topic{
			{Name: "Hazards", Subtopics: []string{"Slips", "Fire", "Chemicals"}},
			{Name: "Response", Subtopics: []string{"Alarms", "First Aid"}},
		}, 20)
		require.NoError(t, err)
		service.AssignLayouts(slots, rand.New(rand.NewSource(42)))

		scenes := synth.SynthesizeAll(ctx, "Safety 101", slots, service.NewAssetUsage(rand.New(rand.NewSource(42))))
		require.Len(t, scenes, len(slots))

		for i, scene := range scenes {
			assert.Equal(t, slots[i].Number, scene.SceneNumber)
			assert.Equal(t, slots[i].Layout, scene.Layout)
			assert.Equal(t, slots[i].Background, scene.BgType)
			assert.False(t, scene.Gradient != "" && scene.AssetURL != "", "scene %d has two backgrounds", i)
			if scene.AssetID != "" {
				assert.True(t, service.IsCuratedAsset(scene.AssetID))
			}
			if scene.SceneType == models.SceneTypeContent {
				assert.NotEmpty(t, scene.Narration)
			}
		}
		assert.Equal(t, "Safety 101", scenes[0].Title)
		assert.Equal(t, "2 Chapters • Professional Training", scenes[0].Subtitle)
		assert.Equal(t, "Training Complete!", scenes[len(scenes)-1].Title)
	})
}

func TestTopicGenerator_GenerateTopics(t *testing.T) {
	ctx := context.Background()

	t.Run("Parses and trims topics", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("topics")).Return(`{"topics":[
			{"name":" Phishing ","subtopics":["Spotting links"," ","Reporting"]},
			{"name":"","subtopics":["ignored"]},
			{"name":"Passwords","subtopics":["Managers"]},
			{"name":"Extra","subtopics":["Cut"]}
		]}`, nil).Once()
		gen := service.NewTopicGenerator(content, time.Second, zap.NewNop())

		topics := gen.GenerateTopics(ctx, "Cybersecurity", "Security Basics", "compliance", 2)
		assert.Equal(t, []models.Topic{
			{Name: "Phishing", Subtopics: []string{"Spotting links", "Reporting"}},
			{Name: "Passwords", Subtopics: []string{"Managers"}},
		}, topics)
	})

	t.Run("Bare array is accepted", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("topics")).Return(`[{"name":"One","subtopics":["a"]}]`, nil).Once()
		gen := service.NewTopicGenerator(content, time.Second, zap.NewNop())

		topics := gen.GenerateTopics(ctx, "Anything", "", "", 4)
		require.Len(t, topics, 1)
		assert.Equal(t, "One", topics[0].Name)
	})

	t.Run("Failure yields the fallback outline", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("topics")).Return(nil, service.ErrMalformedResponse).Once()
		gen := service.NewTopicGenerator(content, time.Second, zap.NewNop())

		topics := gen.GenerateTopics(ctx, "Cybersecurity", "", "", 0)
		assert.Equal(t, service.FallbackTopics("Cybersecurity", 4), topics)
	})

	t.Run("Unusable topics yield the fallback outline", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("topics")).Return(`{"topics":[{"name":"Empty","subtopics":[]}]}`, nil).Once()
		gen := service.NewTopicGenerator(content, time.Second, zap.NewNop())

		topics := gen.GenerateTopics(ctx, "Cybersecurity", "", "", 3)
		assert.Equal(t, service.FallbackTopics("Cybersecurity", 3), topics)
	})
}

func TestTopicsPrompt(t *testing.T) {
	p := service.TopicsPrompt("Cybersecurity", "Security Basics", "", 5, time.Minute)
	assert.Equal(t, "topics", p.Name)
	assert.Equal(t, time.Minute, p.Timeout)
	assert.True(t, strings.Contains(p.User, "Return exactly 5 main topics"))
	assert.Contains(t, p.User, "Training type: compliance")
}

func TestQuizGenerator_GenerateQuizScenes(t *testing.T) {
	ctx := context.Background()
	topics := []models.Topic{{Name: "Phishing", Subtopics: []string{"Links"}}}

	t.Run("Valid questions become quiz scenes", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("quiz")).Return(`{"questions":[
			{"question":"What is phishing?","options":["A scam","A sport"],"correct_index":0,"explanation":"It is a scam."},
			{"question":"Bad index","options":["x","y"],"correct_index":5},
			{"question":"Report to?","options":["IT","Nobody","Friends"],"correct_index":0},
			{"question":"Third valid","options":["a","b"],"correct_index":1}
		]}`, nil).Once()
		gen := service.NewQuizGenerator(content, time.Second, 1000, zap.NewNop())

		scenes := gen.GenerateQuizScenes(ctx, "Security Basics", topics, 2)
		require.Len(t, scenes, 2)
		for i, s := range scenes {
			assert.Equal(t, 1000+i, s.SceneNumber)
			assert.Equal(t, models.SceneTypeQuiz, s.SceneType)
			assert.Equal(t, models.LayoutQuiz, s.Layout)
			assert.Equal(t, service.GradientAt(i), s.Gradient)
			require.NotNil(t, s.Quiz)
		}
		assert.Equal(t, "Question 2", scenes[1].Eyebrow)
		assert.Equal(t, "Report to?", scenes[1].Title)
		assert.Equal(t, "It is a scam.", scenes[0].Quiz.Explanation)
	})

	t.Run("Failure produces no quiz", func(t *testing.T) {
		content := mocks.NewStructuredContentClient(t)
		content.On("Synthesize", mock.Anything, promptNamed("quiz")).Return(nil, errors.New("down")).Once()
		gen := service.NewQuizGenerator(content, time.Second, 1000, zap.NewNop())

		assert.Empty(t, gen.GenerateQuizScenes(ctx, "Security Basics", topics, 3))
	})

	t.Run("Zero count makes no call", func(t *testing.T) {
		gen := service.NewQuizGenerator(mocks.NewStructuredContentClient(t), time.Second, 1000, zap.NewNop())
		assert.Nil(t, gen.GenerateQuizScenes(ctx, "Security Basics", topics, 0))
	})
}
