package coach

import (
	"fmt"
	"time"
)

// Mode is a coach configuration profile controlling intervention sensitivity.
type Mode string

const (
	// ModeStrict intervenes on the first occurrence of a condition.
	ModeStrict Mode = "strict"
	// ModeBalanced tolerates a few occurrences before intervening.
	ModeBalanced Mode = "balanced"
	// ModeRelaxed uses gentle messages only and a high tolerance.
	ModeRelaxed Mode = "relaxed"
	// ModeCustom uses the caller-supplied profile from Config.Custom.
	ModeCustom Mode = "custom"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeBalanced, ModeRelaxed, ModeCustom:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, s)
	}
}

// Profile holds the tunable detection thresholds for one coach mode.
//
// Thresholds are configuration, not invariants: the defaults below follow
// the shipped behavior but every field can be overridden for ModeCustom.
type Profile struct {
	// Window is the number of recent scored events compared against the
	// prior window for declining relevance.
	Window int

	// DeclineThreshold is the minimum drop in mean score (points) between
	// the prior and recent windows for DecliningRelevance to fire.
	DeclineThreshold float64

	// GoodScore is the minimum score considered on-goal, used by
	// BackOnTrack.
	GoodScore int

	// VolumeLimit is the session video count above which ExcessiveVolume
	// fires.
	VolumeLimit int

	// BreakAfter is how long a session may run without a recorded break
	// before NoBreakTaken fires.
	BreakAfter time.Duration

	// Tolerance is how many detections of a condition are tolerated
	// before an intervention fires. 1 means the first detection fires.
	Tolerance int

	// GentleOnly forces gentle severity for negative interventions.
	GentleOnly bool
}

// Config holds the coach-wide settings plus the custom-mode profile.
type Config struct {
	// Cooldown is the minimum time between interventions for a session.
	Cooldown time.Duration

	// MaxEvents caps per-session watch history; oldest events drop first.
	MaxEvents int

	// MaxSessions caps concurrently tracked sessions; the least recently
	// active session is evicted when exceeded.
	MaxSessions int

	// MessageTimeout bounds the text-generation collaborator call.
	MessageTimeout time.Duration

	// Custom is the profile used by ModeCustom.
	Custom Profile
}

// DefaultConfig returns the shipped coach configuration.
func DefaultConfig() *Config {
	return &Config{
		Cooldown:       2 * time.Minute,
		MaxEvents:      200,
		MaxSessions:    1024,
		MessageTimeout: 10 * time.Second,
		Custom: Profile{
			Window:           3,
			DeclineThreshold: 15,
			GoodScore:        70,
			VolumeLimit:      10,
			BreakAfter:       60 * time.Minute,
			Tolerance:        2,
		},
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Cooldown <= 0 {
		return fmt.Errorf("%w: cooldown must be positive", ErrInvalidConfiguration)
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("%w: max events must be positive", ErrInvalidConfiguration)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: max sessions must be positive", ErrInvalidConfiguration)
	}
	if c.Custom.Window < 2 || c.Custom.Tolerance < 1 {
		return fmt.Errorf("%w: custom profile window must be >= 2 and tolerance >= 1", ErrInvalidConfiguration)
	}
	return nil
}

// Profile returns the detection profile for a mode.
func (c *Config) Profile(m Mode) Profile {
	switch m {
	case ModeStrict:
		return Profile{
			Window:           3,
			DeclineThreshold: 15,
			GoodScore:        70,
			VolumeLimit:      6,
			BreakAfter:       45 * time.Minute,
			Tolerance:        1,
		}
	case ModeRelaxed:
		return Profile{
			Window:           4,
			DeclineThreshold: 20,
			GoodScore:        70,
			VolumeLimit:      16,
			BreakAfter:       75 * time.Minute,
			Tolerance:        5,
			GentleOnly:       true,
		}
	case ModeCustom:
		return c.Custom
	default: // ModeBalanced
		return Profile{
			Window:           3,
			DeclineThreshold: 15,
			GoodScore:        70,
			VolumeLimit:      10,
			BreakAfter:       60 * time.Minute,
			Tolerance:        3,
		}
	}
}
