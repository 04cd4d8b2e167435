package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scenegen-server/internal/models"

	"go.uber.org/zap"
)

const defaultChapterCount = 4

// TopicGenerator decomposes a subject into chapters and subtopics.
type TopicGenerator struct {
	content StructuredContentClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewTopicGenerator creates a topic generator.
func NewTopicGenerator(content StructuredContentClient, timeout time.Duration, logger *zap.Logger) *TopicGenerator {
	return &TopicGenerator{content: content, timeout: timeout, logger: logger.Named("TopicGenerator")}
}

type topicsPayload struct {
	Topics []models.Topic `json:"topics"`
}

// GenerateTopics never fails: any problem yields the fallback outline.
func (g *TopicGenerator) GenerateTopics(ctx context.Context, subject, courseName, trainingType string, chapterCount int) []models.Topic {
	if chapterCount <= 0 {
		chapterCount = defaultChapterCount
	}
	logFields := []zap.Field{zap.String("subject", subject), zap.Int("chapterCount", chapterCount)}

	raw, err := g.content.Synthesize(ctx, TopicsPrompt(subject, courseName, trainingType, chapterCount, g.timeout))
	if err != nil {
		g.logger.Warn("Topic generation failed, using fallback topics", append(logFields, zap.Error(err))...)
		return FallbackTopics(subject, chapterCount)
	}
	topics, err := decodeTopics(raw)
	if err != nil {
		g.logger.Warn("Generated topics are unusable, using fallback topics", append(logFields, zap.Error(err))...)
		return FallbackTopics(subject, chapterCount)
	}
	if len(topics) > chapterCount {
		topics = topics[:chapterCount]
	}
	g.logger.Info("Topics generated", append(logFields, zap.Int("topics", len(topics)))...)
	return topics
}

// decodeTopics accepts {"topics":[...]} or a bare array and drops empty entries.
func decodeTopics(raw json.RawMessage) ([]models.Topic, error) {
	var topics []models.Topic
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &topics); err != nil {
			return nil, err
		}
	} else {
		var payload topicsPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		topics = payload.Topics
	}

	clean := make([]models.Topic, 0, len(topics))
	for _, t := range topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		subs := make([]string, 0, len(t.Subtopics))
		for _, s := range t.Subtopics {
			if s = strings.TrimSpace(s); s != "" {
				subs = append(subs, s)
			}
		}
		if len(subs) == 0 {
			continue
		}
		clean = append(clean, models.Topic{Name: name, Subtopics: subs})
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no usable topics", models.ErrNoTopics)
	}
	return clean, nil
}
