package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/usnaveen/TubeFocus-Backend/internal/genai"
)

// Categories is the closed intent taxonomy, in prompt order.
var Categories = []string{
	"Skill Acquisition",
	"Academic Study",
	"Professional Task",
	"Research",
	"Entertainment",
	"News & Current Events",
	"Health & Wellness",
}

// DefaultCategory is used when classification is impossible.
const DefaultCategory = "Skill Acquisition"

var mentionPattern = regexp.MustCompile(`@([\w&/ ]+)`)

// Classifier resolves a goal string to an intent category.
type Classifier interface {
	Classify(ctx context.Context, goal string) (string, error)
}

type classifier struct {
	gen    genai.Generator
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewClassifier builds a classifier. The generator may be nil, in which
// case unpinned goals get the default category.
func NewClassifier(gen genai.Generator, logger *zap.Logger) Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &classifier{
		gen:    gen,
		logger: logger,
		cache:  make(map[string]string),
	}
}

// Classify never fails: any classification problem degrades to the
// default category. Results are cached per goal.
func (c *classifier) Classify(ctx context.Context, goal string) (string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return DefaultCategory, nil
	}

	if cat, ok := ParseMention(goal); ok {
		return cat, nil
	}

	c.mu.Lock()
	cached, ok := c.cache[goal]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	cat := c.classifyLLM(ctx, goal)

	c.mu.Lock()
	c.cache[goal] = cat
	c.mu.Unlock()
	return cat, nil
}

// ParseMention extracts an inline @category pin from the goal. The mention
// must match a taxonomy entry, case-insensitively.
func ParseMention(goal string) (string, bool) {
	m := mentionPattern.FindStringSubmatch(goal)
	if m == nil {
		return "", false
	}
	want := strings.ToLower(strings.TrimSpace(m[1]))
	for _, cat := range Categories {
		if strings.ToLower(cat) == want {
			return cat, true
		}
	}
	return "", false
}

func (c *classifier) classifyLLM(ctx context.Context, goal string) string {
	if c.gen == nil {
		return DefaultCategory
	}

	out, err := c.gen.Generate(ctx, buildPrompt(goal))
	if err != nil {
		c.logger.Warn("intent classification failed, using default",
			zap.Error(err))
		return DefaultCategory
	}

	answer := strings.ToLower(strings.TrimSpace(genai.CleanJSON(out)))
	for _, cat := range Categories {
		if strings.Contains(answer, strings.ToLower(cat)) {
			return cat
		}
	}
	c.logger.Warn("intent classification returned no known category",
		zap.String("answer", answer))
	return DefaultCategory
}

func buildPrompt(goal string) string {
	var b strings.Builder
	b.WriteString("Classify this learning goal into exactly one category.\n\nCategories:\n")
	for _, cat := range Categories {
		fmt.Fprintf(&b, "- %s\n", cat)
	}
	fmt.Fprintf(&b, "\nGoal: %s\n\nRespond with the category name only.", goal)
	return b.String()
}
