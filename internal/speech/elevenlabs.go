package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	"go.uber.org/zap"
)

// ErrSpeechFailed wraps any failure of the speech synthesis service.
var ErrSpeechFailed = errors.New("speech synthesis failed")

const wordsPerMinute = 150

// Voices is the curated voice catalog.
var Voices = []models.Voice{
	{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Description: "Deep, professional male voice"},
	{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Description: "Soft, friendly female voice"},
	{ID: "VR6AewLTigWG4xSOukaG", Name: "Raj", Description: "Warm, confident male voice"},
	{ID: "TxGEqnHWrfWFTfGW9XjX", Name: "Josh", Description: "Young, energetic male voice"},
	{ID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Description: "Well-rounded male voice"},
	{ID: "MF3mGyEYCl7XYWbV9V6O", Name: "Elli", Description: "Emotional, expressive female voice"},
}

// DefaultVoiceID is used when the caller does not pick a voice.
const DefaultVoiceID = "pNInz6obpgDQGcFmaJgB"

// LookupVoice finds a voice by id.
func LookupVoice(id string) (models.Voice, bool) {
	for _, v := range Voices {
		if v.ID == id {
			return v, true
		}
	}
	return models.Voice{}, false
}

// EstimateDuration approximates spoken duration at 150 words per minute.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	return time.Duration(words) * time.Minute / wordsPerMinute
}

// Config holds ElevenLabs client settings.
type Config struct {
	BaseURL string
	APIKey  string
	ModelID string
	Timeout time.Duration
}

var _ interfaces.SpeechSynthesizer = (*ElevenLabsClient)(nil)

// ElevenLabsClient calls the text-to-speech endpoint.
type ElevenLabsClient struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewElevenLabsClient creates a client.
func NewElevenLabsClient(cfg Config, logger *zap.Logger) *ElevenLabsClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_monolingual_v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ElevenLabsClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("ElevenLabsClient"),
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns MP3 audio and the estimated spoken duration.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, time.Duration, error) {
	if c.cfg.APIKey == "" {
		return nil, 0, fmt.Errorf("%w: api key is not configured", ErrSpeechFailed)
	}
	log := c.logger.With(zap.String("voiceID", voiceID), zap.Int("chars", len(text)))

	payload, err := json.Marshal(ttsRequest{
		Text:          text,
		ModelID:       c.cfg.ModelID,
		VoiceSettings: voiceSettings{Stability: 0.6, SimilarityBoost: 0.75},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpointURL := fmt.Sprintf("%s/v1/text-to-speech/%s", c.cfg.BaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: create request: %v", ErrSpeechFailed, err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to execute ElevenLabs request", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: %v", ErrSpeechFailed, err)
	}
	defer resp.Body.Close()

	audio, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("ElevenLabs returned non-OK status", zap.Int("status_code", resp.StatusCode), zap.ByteString("response_body", audio))
		return nil, 0, fmt.Errorf("%w: status %d", ErrSpeechFailed, resp.StatusCode)
	}
	if readErr != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", ErrSpeechFailed, readErr)
	}

	log.Debug("Speech synthesized", zap.Int("bytes", len(audio)))
	return audio, EstimateDuration(text), nil
}
