package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usnaveen/TubeFocus-Backend/internal/coach"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestCoachMessenger_Compose(t *testing.T) {
	gen := &fakeGenerator{reply: "  Those tutorials drifted off course; back to generics?  "}
	m := NewCoachMessenger(gen)

	msg, err := m.Compose(context.Background(), coach.PromptContext{
		Goal:         "learn Go generics",
		Condition:    coach.ConditionDecliningRelevance,
		Severity:     coach.SeverityFirm,
		Detail:       "mean score dropped 20 points",
		VideoCount:   7,
		AverageScore: 55,
		RecentTitles: []string{"Top 10 Fails", "Go Generics Deep Dive"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Those tutorials drifted off course; back to generics?", msg)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "learn Go generics")
	assert.Contains(t, prompt, "drifting away from the goal")
	assert.Contains(t, prompt, "Top 10 Fails")
	assert.Contains(t, prompt, "refocus")
}

func TestCoachMessenger_Compose_ClosingPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: "Solid session."}
	m := NewCoachMessenger(gen)

	_, err := m.Compose(context.Background(), coach.PromptContext{
		Goal:    "learn Go generics",
		Closing: true,
	})
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "session just ended")
}

func TestCoachMessenger_Compose_PropagatesErrors(t *testing.T) {
	m := NewCoachMessenger(&fakeGenerator{err: errors.New("down")})

	_, err := m.Compose(context.Background(), coach.PromptContext{Goal: "g"})
	assert.Error(t, err)
}
