package mocks

import (
	"context"
	"encoding/json"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"
	"scenegen-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// StockMediaSearcher mock.
type StockMediaSearcher struct {
	mock.Mock
}

// NewStockMediaSearcher creates the mock and asserts its expectations on cleanup.
func NewStockMediaSearcher(t testingT) *StockMediaSearcher {
	m := &StockMediaSearcher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *StockMediaSearcher) Search(ctx context.Context, query string, media models.BackgroundType, perPage int) ([]models.Asset, error) {
	args := m.Called(ctx, query, media, perPage)
	a, _ := args.Get(0).([]models.Asset)
	return a, args.Error(1)
}

// AssetCache mock.
type AssetCache struct {
	mock.Mock
}

// NewAssetCache creates the mock and asserts its expectations on cleanup.
func NewAssetCache(t testingT) *AssetCache {
	m := &AssetCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AssetCache) Get(ctx context.Context, media models.BackgroundType, query string) ([]models.Asset, bool, error) {
	args := m.Called(ctx, media, query)
	a, _ := args.Get(0).([]models.Asset)
	return a, args.Bool(1), args.Error(2)
}

func (m *AssetCache) Set(ctx context.Context, media models.BackgroundType, query string, assets []models.Asset) error {
	args := m.Called(ctx, media, query, assets)
	return args.Error(0)
}

// SpeechSynthesizer mock.
type SpeechSynthesizer struct {
	mock.Mock
}

// NewSpeechSynthesizer creates the mock and asserts its expectations on cleanup.
func NewSpeechSynthesizer(t testingT) *SpeechSynthesizer {
	m := &SpeechSynthesizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SpeechSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, time.Duration, error) {
	args := m.Called(ctx, text, voiceID)
	audio, _ := args.Get(0).([]byte)
	d, _ := args.Get(1).(time.Duration)
	return audio, d, args.Error(2)
}

// GenerationEventPublisher mock.
type GenerationEventPublisher struct {
	mock.Mock
}

// NewGenerationEventPublisher creates the mock and asserts its expectations on cleanup.
func NewGenerationEventPublisher(t testingT) *GenerationEventPublisher {
	m := &GenerationEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *GenerationEventPublisher) PublishGenerationCompleted(ctx context.Context, event models.GenerationCompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// AIClient mock.
type AIClient struct {
	mock.Mock
}

// NewAIClient creates the mock and asserts its expectations on cleanup.
func NewAIClient(t testingT) *AIClient {
	m := &AIClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AIClient) GenerateText(ctx context.Context, systemPrompt, userInput string, params service.GenerationParams) (string, service.UsageInfo, error) {
	args := m.Called(ctx, systemPrompt, userInput, params)
	usage, _ := args.Get(1).(service.UsageInfo)
	return args.String(0), usage, args.Error(2)
}

// StructuredContentClient mock.
type StructuredContentClient struct {
	mock.Mock
}

// NewStructuredContentClient creates the mock and asserts its expectations on cleanup.
func NewStructuredContentClient(t testingT) *StructuredContentClient {
	m := &StructuredContentClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *StructuredContentClient) Synthesize(ctx context.Context, prompt service.Prompt) (json.RawMessage, error) {
	args := m.Called(ctx, prompt)
	var raw json.RawMessage
	switch v := args.Get(0).(type) {
	case json.RawMessage:
		raw = v
	case string:
		raw = json.RawMessage(v)
	case []byte:
		raw = v
	}
	return raw, args.Error(1)
}

var (
	_ interfaces.StockMediaSearcher       = (*StockMediaSearcher)(nil)
	_ interfaces.AssetCache               = (*AssetCache)(nil)
	_ interfaces.SpeechSynthesizer        = (*SpeechSynthesizer)(nil)
	_ interfaces.GenerationEventPublisher = (*GenerationEventPublisher)(nil)
	_ service.AIClient                    = (*AIClient)(nil)
	_ service.StructuredContentClient     = (*StructuredContentClient)(nil)
)
