package service

import (
	"fmt"
	"strings"
	"time"

	"scenegen-server/internal/models"
)

const jsonOnlyInstruction = "IMPORTANT: Return ONLY valid JSON, no markdown, no other text."

const designerSystemPrompt = "You are an expert instructional designer creating professional corporate training content. You always answer with valid JSON only."

// layoutInstructions names the fields each content layout must return.
var layoutInstructions = map[models.Layout]string{
	models.LayoutBullets: `Generate 3 specific, actionable bullet points.
Return JSON: {"body": "intro sentence", "bullets": ["point1", "point2", "point3"], "narration": "script"}`,
	models.LayoutFullText: `Write one comprehensive paragraph.
Return JSON: {"body": "detailed paragraph", "narration": "script"}`,
	models.LayoutStat: `Generate a realistic, relevant statistic.
Return JSON: {"statValue": "87%", "statLabel": "description", "narration": "script"}`,
	models.LayoutQuote: `Generate an impactful quote.
Return JSON: {"quote": "quote text", "quoteAuthor": "Author Name", "narration": "script"}`,
	models.LayoutCards2: `Generate a do/don't comparison.
Return JSON: {"cards": [{"icon":"✅","title":"Do","desc":"..."},{"icon":"❌","title":"Don't","desc":"..."}], "narration": "script"}`,
	models.LayoutCards4: `Generate exactly 4 actionable steps.
Return JSON: {"cards": [{"icon":"🎯","title":"Step","desc":"..."}], "narration": "script"}`,
	models.LayoutTimeline: `Generate a 4-step progression.
Return JSON: {"timelineItems": [{"year":"Step 1","event":"..."}], "narration": "script"}`,
	models.LayoutIconList: `Generate 4 key insights.
Return JSON: {"iconItems": [{"icon":"💡","title":"...","desc":"..."}], "narration": "script"}`,
	models.LayoutSplit: `Write descriptive content shown beside an image.
Return JSON: {"body": "paragraph", "narration": "script"}`,
}

// ScenePrompt builds the layout-specific instruction for a content slot.
func ScenePrompt(slot Slot, courseName string, timeout time.Duration) Prompt {
	instruction, ok := layoutInstructions[slot.Layout]
	if !ok {
		instruction = layoutInstructions[models.LayoutFullText]
	}
	user := fmt.Sprintf("Generate content for a training scene about %q in the topic %q for %s.\n%s\n%s",
		slot.Subtopic, slot.Topic, courseName, instruction, jsonOnlyInstruction)
	return Prompt{
		Name:        "scene_" + string(slot.Layout),
		System:      designerSystemPrompt,
		User:        user,
		Timeout:     timeout,
		Temperature: float64Ptr(0.7),
		MaxTokens:   intPtr(1000),
	}
}

// TopicsPrompt asks for a course outline.
func TopicsPrompt(subject, courseName, trainingType string, chapterCount int, timeout time.Duration) Prompt {
	if trainingType == "" {
		trainingType = "compliance"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Create a training course outline for: %s\n", subject)
	if courseName != "" {
		fmt.Fprintf(&b, "Course name: %s\n", courseName)
	}
	fmt.Fprintf(&b, "Training type: %s\n\n", trainingType)
	fmt.Fprintf(&b, "Return exactly %d main topics with 3 subtopics each.\n", chapterCount)
	b.WriteString(`Return JSON: {"topics":[{"name":"Topic","subtopics":["Sub1","Sub2","Sub3"]}]}` + "\n")
	b.WriteString(jsonOnlyInstruction)
	return Prompt{
		Name:      "topics",
		System:    designerSystemPrompt,
		User:      b.String(),
		Timeout:   timeout,
		MaxTokens: intPtr(1500),
	}
}

// QuizPrompt asks for multiple-choice questions covering the course topics.
func QuizPrompt(courseName string, topics []models.Topic, count int, timeout time.Duration) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d multiple-choice quiz questions for the training course %q.\n", count, courseName)
	b.WriteString("The course covers:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, strings.Join(t.Subtopics, ", "))
	}
	b.WriteString("Each question has exactly 4 options and one correct answer.\n")
	b.WriteString(`Return JSON: {"questions":[{"question":"...","options":["A","B","C","D"],"correct_index":0,"explanation":"..."}]}` + "\n")
	b.WriteString(jsonOnlyInstruction)
	return Prompt{
		Name:      "quiz",
		System:    designerSystemPrompt,
		User:      b.String(),
		Timeout:   timeout,
		MaxTokens: intPtr(2000),
	}
}

var difficultyGuidance = map[models.Difficulty]string{
	models.DifficultyBeginner:     "Clear right and wrong choices. Obvious consequences. Educational tone.",
	models.DifficultyIntermediate: "More nuanced choices. Realistic workplace complexity. Some choices have trade-offs.",
	models.DifficultyAdvanced:     "Subtle differences between choices. Complex ethical dilemmas. Multiple valid approaches.",
}

// ScenarioPrompt asks for the narrative of a branching scenario. The tree
// structure itself is built by the engine, the model only writes the text.
func ScenarioPrompt(req models.GenerateScenarioRequest, timeout time.Duration) Prompt {
	var b strings.Builder
	b.WriteString("Create a scenario-based training experience for corporate employees.\n\n")
	fmt.Fprintf(&b, "Topic: %s\nIndustry: %s\nDifficulty: %s\nDecision Points: %d\n\n",
		req.Topic, req.Industry, req.Difficulty, req.DecisionPoints)
	fmt.Fprintf(&b, "Difficulty guidance: %s\n\n", difficultyGuidance[req.Difficulty])
	fmt.Fprintf(&b, "Write a realistic workplace story with %d sequential decision points. ", req.DecisionPoints)
	b.WriteString("Each decision has exactly 3 choices: one optimal, one suboptimal and one poor. ")
	b.WriteString("Each choice has a consequence scene explaining its result. ")
	b.WriteString("Finish with 3 final outcomes for good, neutral and poor overall performance.\n\n")
	b.WriteString(`Return JSON:
{"title":"...","description":"...",
 "intro":{"title":"...","body":"...","narration":"..."},
 "decisions":[{"title":"...","body":"...","narration":"...",
   "choices":[{"text":"...","quality":"optimal","reasoning":"...",
     "consequence":{"title":"...","body":"...","narration":"...","feedback":"..."}}]}],
 "outcomes":{"good":{"title":"...","body":"...","narration":"..."},
   "neutral":{"title":"...","body":"...","narration":"..."},
   "poor":{"title":"...","body":"...","narration":"..."}}}
`)
	b.WriteString(jsonOnlyInstruction)
	return Prompt{
		Name:        "scenario",
		System:      designerSystemPrompt,
		User:        b.String(),
		Timeout:     timeout,
		Temperature: float64Ptr(0.7),
		MaxTokens:   intPtr(8000),
	}
}
