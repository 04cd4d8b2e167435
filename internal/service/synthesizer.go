package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scenegen-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SceneSynthesizer turns planned slots into fully populated scenes.
type SceneSynthesizer struct {
	content      StructuredContentClient
	assets       *AssetResolver
	sceneTimeout time.Duration
	logger       *zap.Logger
}

// NewSceneSynthesizer creates a synthesizer.
func NewSceneSynthesizer(content StructuredContentClient, assets *AssetResolver, sceneTimeout time.Duration, logger *zap.Logger) *SceneSynthesizer {
	return &SceneSynthesizer{
		content:      content,
		assets:       assets,
		sceneTimeout: sceneTimeout,
		logger:       logger.Named("SceneSynthesizer"),
	}
}

// SynthesizeAll builds one scene per slot, strictly in order. External failures
// are absorbed: content falls back per layout and assets may stay unbound.
func (s *SceneSynthesizer) SynthesizeAll(ctx context.Context, courseName string, slots []Slot, usage *AssetUsage) []*models.Scene {
	chapters := ChapterCount(slots)
	scenes := make([]*models.Scene, 0, len(slots))
	for i, slot := range slots {
		s.logger.Debug("Synthesizing scene",
			zap.Int("scene", i+1),
			zap.Int("total", len(slots)),
			zap.String("type", string(slot.Type)),
			zap.String("layout", string(slot.Layout)))
		scenes = append(scenes, s.synthesizeSlot(ctx, courseName, chapters, slot, usage))
	}
	return scenes
}

func (s *SceneSynthesizer) synthesizeSlot(ctx context.Context, courseName string, chapters int, slot Slot, usage *AssetUsage) *models.Scene {
	scene := &models.Scene{
		ID:          uuid.New(),
		SceneNumber: slot.Number,
		SceneType:   slot.Type,
		Layout:      slot.Layout,
		Eyebrow:     slot.Eyebrow(),
	}

	switch slot.Type {
	case models.SceneTypeIntro:
		scene.Title = slot.Topic
		scene.Subtitle = fmt.Sprintf("%d Chapters • Professional Training", chapters)
		scene.Body = "Master essential skills through engaging, practical learning."
		scene.AssetKeywords = slot.Topic + " corporate professional team success modern office"
	case models.SceneTypeChapter:
		scene.Title = slot.Topic
		scene.Subtitle = "Key concepts and practical applications"
	case models.SceneTypeContent:
		scene.Title = slot.Subtopic
		scene.AssetKeywords = slot.Subtopic + " professional workplace business"
		s.contentFor(ctx, courseName, slot).Apply(scene)
	case models.SceneTypeClosing:
		scene.Title = "Training Complete!"
		scene.Subtitle = "Congratulations on Your Achievement"
		scene.Body = fmt.Sprintf("You completed all %d chapters. Apply what you learned!", chapters)
		scene.AssetKeywords = "success achievement celebration team applause business happy"
	}

	s.bindBackground(ctx, scene, slot, usage)
	return scene
}

// contentFor returns synthesized content, or fallback content of the same layout.
func (s *SceneSynthesizer) contentFor(ctx context.Context, courseName string, slot Slot) models.SceneContent {
	logFields := []zap.Field{
		zap.Int("sceneNumber", slot.Number),
		zap.String("subtopic", slot.Subtopic),
		zap.String("layout", string(slot.Layout)),
	}

	raw, err := s.content.Synthesize(ctx, ScenePrompt(slot, courseName, s.sceneTimeout))
	if err != nil {
		reason := "ai_error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		} else if errors.Is(err, ErrMalformedResponse) {
			reason = "malformed"
		}
		s.logger.Warn("Scene content synthesis failed, using fallback", append(logFields, zap.Error(err))...)
		contentFallbacksTotal.WithLabelValues(string(slot.Layout), reason).Inc()
		return FallbackContent(slot.Layout, slot.Topic, slot.Subtopic, slot.Number)
	}

	content, err := models.DecodeContent(slot.Layout, raw)
	if err != nil {
		s.logger.Warn("Synthesized content has wrong shape, using fallback", append(logFields, zap.Error(err))...)
		contentFallbacksTotal.WithLabelValues(string(slot.Layout), "invalid").Inc()
		return FallbackContent(slot.Layout, slot.Topic, slot.Subtopic, slot.Number)
	}
	s.logger.Debug("Scene content synthesized", logFields...)
	return content
}

func (s *SceneSynthesizer) bindBackground(ctx context.Context, scene *models.Scene, slot Slot, usage *AssetUsage) {
	if slot.Background == models.BackgroundGradient {
		g := slot.Gradient
		if g == "" {
			g = GradientAt(slot.Number)
		}
		scene.SetGradient(g)
		return
	}
	asset := s.assets.Resolve(ctx, slot.Background, scene.AssetKeywords, usage)
	if asset == nil {
		s.logger.Warn("Scene left without background asset",
			zap.Int("sceneNumber", slot.Number),
			zap.String("media", string(slot.Background)))
	}
	scene.SetAsset(slot.Background, asset)
}
