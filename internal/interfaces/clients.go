package interfaces

import (
	"context"
	"time"

	"scenegen-server/internal/models"
)

// StockMediaSearcher queries a stock media service by keywords.
type StockMediaSearcher interface {
	Search(ctx context.Context, query string, media models.BackgroundType, perPage int) ([]models.Asset, error)
}

// AssetCache stores stock search result pages.
type AssetCache interface {
	Get(ctx context.Context, media models.BackgroundType, query string) ([]models.Asset, bool, error)
	Set(ctx context.Context, media models.BackgroundType, query string, assets []models.Asset) error
}

// SpeechSynthesizer turns text into audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (audio []byte, estimated time.Duration, err error)
}

// GenerationEventPublisher announces finished generations.
type GenerationEventPublisher interface {
	PublishGenerationCompleted(ctx context.Context, event models.GenerationCompletedEvent) error
}
