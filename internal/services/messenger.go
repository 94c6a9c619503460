package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/usnaveen/TubeFocus-Backend/internal/coach"
	"github.com/usnaveen/TubeFocus-Backend/internal/genai"
)

// coachMessenger phrases coach interventions with the generative model.
type coachMessenger struct {
	gen genai.Generator
}

// NewCoachMessenger adapts a text generator to the coach's Messenger
// interface.
func NewCoachMessenger(gen genai.Generator) coach.Messenger {
	return &coachMessenger{gen: gen}
}

func (m *coachMessenger) Compose(ctx context.Context, pc coach.PromptContext) (string, error) {
	out, err := m.gen.Generate(ctx, buildCoachPrompt(pc))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func buildCoachPrompt(pc coach.PromptContext) string {
	var b strings.Builder
	b.WriteString("You are a focus coach for someone watching YouTube with a stated goal.\n")
	fmt.Fprintf(&b, "Goal: %s\n", pc.Goal)
	fmt.Fprintf(&b, "Videos watched this session: %d (average relevance %.0f/100)\n",
		pc.VideoCount, pc.AverageScore)
	if len(pc.RecentTitles) > 0 {
		fmt.Fprintf(&b, "Recent videos: %s\n", strings.Join(pc.RecentTitles, "; "))
	}

	if pc.Closing {
		b.WriteString("\nThe session just ended. Write a one or two sentence wrap-up of how it went.")
		return b.String()
	}

	fmt.Fprintf(&b, "\nObservation: %s (%s)\n", describeCondition(pc.Condition), pc.Detail)
	switch pc.Severity {
	case coach.SeverityPositive:
		b.WriteString("Write one encouraging sentence celebrating that they are back on track.")
	case coach.SeverityGentle:
		b.WriteString("Write one gentle, non-judgmental sentence nudging them back toward the goal.")
	default:
		b.WriteString("Write one direct but kind sentence telling them to refocus on the goal.")
	}
	b.WriteString(" Plain text only, no quotes, second person.")
	return b.String()
}

func describeCondition(c coach.ConditionType) string {
	switch c {
	case coach.ConditionDecliningRelevance:
		return "recent videos are drifting away from the goal"
	case coach.ConditionExcessiveVolume:
		return "they are watching too many videos this session"
	case coach.ConditionNoBreakTaken:
		return "they have gone a long time without a break"
	case coach.ConditionBackOnTrack:
		return "they recovered and are watching relevant videos again"
	default:
		return string(c)
	}
}
