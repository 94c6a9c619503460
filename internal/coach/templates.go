package coach

import "fmt"

// FallbackMessage returns the deterministic template for a condition, used
// whenever the text-generation collaborator is unavailable. Templates are
// intentionally plain; the collaborator exists to do better than these.
func FallbackMessage(pc PromptContext) string {
	if pc.Closing {
		if pc.VideoCount == 0 {
			return fmt.Sprintf("Session ended. You set out to %q but didn't watch anything this time.", pc.Goal)
		}
		return fmt.Sprintf("Session ended. You watched %d videos toward %q with an average relevance of %.0f.",
			pc.VideoCount, pc.Goal, pc.AverageScore)
	}

	switch pc.Condition {
	case ConditionDecliningRelevance:
		if pc.Severity == SeverityGentle {
			return fmt.Sprintf("Your recent videos are drifting from %q. Maybe steer back when you're ready.", pc.Goal)
		}
		return fmt.Sprintf("Your recent videos have drifted away from %q. Time to refocus.", pc.Goal)
	case ConditionExcessiveVolume:
		if pc.Severity == SeverityGentle {
			return fmt.Sprintf("That's %d videos this session. A lighter pace might serve %q better.", pc.VideoCount, pc.Goal)
		}
		return fmt.Sprintf("You've watched %d videos this session. Consider wrapping up or picking the one that matters for %q.",
			pc.VideoCount, pc.Goal)
	case ConditionNoBreakTaken:
		if pc.Severity == SeverityGentle {
			return "You've been at this a while. A short break wouldn't hurt."
		}
		return "You've been watching for a long stretch without a break. Step away for a few minutes."
	case ConditionBackOnTrack:
		return fmt.Sprintf("Nice recovery. Your last few videos are right on %q. Keep it up.", pc.Goal)
	default:
		return fmt.Sprintf("Quick check-in: is what you're watching helping with %q?", pc.Goal)
	}
}
