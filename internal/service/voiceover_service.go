package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"
	"scenegen-server/internal/speech"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoiceoverService synthesizes narration audio for the scenes of a project.
type VoiceoverService struct {
	store  *PersistenceCoordinator
	speech interfaces.SpeechSynthesizer
	delay  time.Duration
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewVoiceoverService creates the service. delay is waited between calls.
func NewVoiceoverService(store *PersistenceCoordinator, synth interfaces.SpeechSynthesizer, delay time.Duration, logger *zap.Logger) *VoiceoverService {
	return &VoiceoverService{
		store:  store,
		speech: synth,
		delay:  delay,
		logger: logger.Named("VoiceoverService"),
		sleep:  sleepCtx,
	}
}

// ListVoices returns the voice catalog.
func (s *VoiceoverService) ListVoices() []models.Voice {
	return append([]models.Voice(nil), speech.Voices...)
}

// GenerateVoiceovers narrates each scene in order, one call at a time. A
// failed scene is skipped; cancellation stops the run and returns what is done.
func (s *VoiceoverService) GenerateVoiceovers(ctx context.Context, projectID uuid.UUID, voiceID string) ([]models.VoiceoverClip, error) {
	if voiceID == "" {
		voiceID = speech.DefaultVoiceID
	}
	if _, ok := speech.LookupVoice(voiceID); !ok {
		return nil, fmt.Errorf("%w: unknown voice %q", models.ErrInvalidInput, voiceID)
	}
	if _, err := s.store.LoadProject(ctx, projectID); err != nil {
		return nil, err
	}
	scenes, err := s.store.LoadScenes(ctx, projectID)
	if err != nil {
		return nil, err
	}

	clips := make([]models.VoiceoverClip, 0, len(scenes))
	called := false
	for _, scene := range scenes {
		text := strings.TrimSpace(scene.NarrationText())
		if text == "" {
			continue
		}
		if called {
			if err := s.sleep(ctx, s.delay); err != nil {
				s.logger.Warn("Voice-over run interrupted", zap.String("projectID", projectID.String()), zap.Error(err))
				break
			}
		}
		called = true

		audio, duration, err := s.speech.Synthesize(ctx, text, voiceID)
		if err != nil {
			s.logger.Warn("Voice-over failed for scene, skipping",
				zap.String("sceneID", scene.ID.String()),
				zap.Int("sceneNumber", scene.SceneNumber),
				zap.Error(err))
			continue
		}
		if duration <= 0 {
			duration = speech.EstimateDuration(text)
		}
		clips = append(clips, models.VoiceoverClip{
			SceneID:     scene.ID,
			SceneNumber: scene.SceneNumber,
			Audio:       audio,
			Duration:    duration,
		})
	}
	s.logger.Info("Voice-overs generated",
		zap.String("projectID", projectID.String()),
		zap.Int("clips", len(clips)),
		zap.Int("scenes", len(scenes)))
	return clips, nil
}
