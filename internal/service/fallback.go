package service

import (
	"fmt"

	"scenegen-server/internal/models"
)

const defaultFallbackBody = "Essential knowledge for professional success."

var fallbackStats = []models.StatContent{
	{StatValue: "87%", StatLabel: "report improved outcomes"},
	{StatValue: "3.5x", StatLabel: "faster results"},
	{StatValue: "94%", StatLabel: "find this valuable"},
}

// FallbackContent builds content for a layout without any external call.
// The result always passes Validate for the same layout.
func FallbackContent(layout models.Layout, topic, subtopic string, index int) models.SceneContent {
	subject := subtopic
	if subject == "" {
		subject = topic
	}
	narration := fmt.Sprintf("Let's look at %s, a key part of %s.", subject, topic)
	if subtopic == "" || topic == subtopic {
		narration = fmt.Sprintf("Let's look at %s.", subject)
	}

	switch layout {
	case models.LayoutBullets:
		return &models.BulletsContent{
			Body: "Essential points to understand:",
			Bullets: []string{
				"First key principle for success",
				"Critical implementation factor",
				"Industry best practice",
			},
			Narration: narration,
		}
	case models.LayoutStat:
		stat := fallbackStats[absIndex(index)%len(fallbackStats)]
		stat.Narration = narration
		return &stat
	case models.LayoutQuote:
		return &models.QuoteContent{
			Quote:       "Excellence is a continuous journey of improvement.",
			QuoteAuthor: "Industry Expert",
			Narration:   narration,
		}
	case models.LayoutCards2:
		return &models.TwoCardContent{
			Cards: []models.Card{
				{Icon: "✅", Title: "Do This", Desc: "Follow best practices"},
				{Icon: "❌", Title: "Avoid This", Desc: "Common mistakes"},
			},
			Narration: narration,
		}
	case models.LayoutCards4:
		return &models.FourCardContent{
			Cards: []models.Card{
				{Icon: "🎯", Title: "Focus", Desc: "Clear objectives"},
				{Icon: "📊", Title: "Measure", Desc: "Track metrics"},
				{Icon: "🔄", Title: "Adapt", Desc: "Adjust approach"},
				{Icon: "🚀", Title: "Execute", Desc: "Take action"},
			},
			Narration: narration,
		}
	case models.LayoutTimeline:
		return &models.TimelineContent{
			TimelineItems: []models.TimelineItem{
				{Year: "Step 1", Event: "Understand the fundamentals"},
				{Year: "Step 2", Event: "Plan your approach"},
				{Year: "Step 3", Event: "Apply in daily work"},
				{Year: "Step 4", Event: "Review and improve"},
			},
			Narration: narration,
		}
	case models.LayoutIconList:
		return &models.IconListContent{
			IconItems: []models.IconItem{
				{Icon: "💡", Title: "Insight", Desc: "Know the key concepts"},
				{Icon: "🛡️", Title: "Prevention", Desc: "Avoid common pitfalls"},
				{Icon: "🤝", Title: "Collaboration", Desc: "Involve your team"},
				{Icon: "📈", Title: "Growth", Desc: "Keep improving"},
			},
			Narration: narration,
		}
	case models.LayoutSplit:
		return &models.SplitContent{Body: defaultFallbackBody, Narration: narration}
	default:
		return &models.FullTextContent{Body: defaultFallbackBody, Narration: narration}
	}
}

// FallbackTopics is the outline used when topic generation fails.
func FallbackTopics(subject string, chapterCount int) []models.Topic {
	topics := []models.Topic{
		{Name: "Understanding " + subject, Subtopics: []string{"Key Concepts", "Why It Matters", "Core Principles"}},
		{Name: "Best Practices", Subtopics: []string{"Guidelines", "Common Mistakes", "Expert Tips"}},
		{Name: "Implementation", Subtopics: []string{"Getting Started", "Daily Application", "Measuring Success"}},
		{Name: "Advanced Topics", Subtopics: []string{"Complex Scenarios", "Case Studies", "Future Trends"}},
	}
	if chapterCount > 0 && chapterCount < len(topics) {
		topics = topics[:chapterCount]
	}
	return topics
}

func absIndex(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
