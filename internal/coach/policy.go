package coach

import (
	"context"
	"time"
)

// Messenger phrases intervention messages. Implementations call an external
// text-generation service; the policy substitutes a deterministic template
// whenever Compose fails or times out.
type Messenger interface {
	Compose(ctx context.Context, pc PromptContext) (string, error)
}

// PromptContext carries everything the text-generation collaborator needs
// to phrase a message. It is built from a snapshot, never live state.
type PromptContext struct {
	Goal         string
	Mode         Mode
	Condition    ConditionType
	Severity     Severity
	Detail       string
	VideoCount   int
	AverageScore float64
	RecentTitles []string

	// Closing requests a session wrap-up message instead of an
	// intervention.
	Closing bool
}

// Policy applies the cooldown state machine and per-mode tolerance rules.
//
// The state machine is Idle -> CooldownActive -> Idle: a committed decision
// records the intervention timestamp, and any evaluation within Cooldown of
// that timestamp returns no intervention regardless of detected conditions.
type Policy struct {
	cfg *Config
}

// NewPolicy creates a policy over the given configuration.
func NewPolicy(cfg *Config) *Policy {
	return &Policy{cfg: cfg}
}

// Decision is the deterministic outcome of one evaluation, computed under
// the session's lock. Message synthesis happens afterwards, without the
// lock, using the embedded prompt context.
type Decision struct {
	Condition  DetectedCondition
	Conditions []ConditionType
	At         time.Time
	Prompt     PromptContext
}

// Decide applies tolerance and cooldown rules, mutating the session's
// policy bookkeeping (occurrence counts, flags, cooldown timestamp).
// It returns nil when no intervention should fire now.
//
// Callers must invoke Decide while holding the session's exclusive lock so
// the cooldown commit and the read of detected conditions are atomic.
func (p *Policy) Decide(s *SessionState, conds []DetectedCondition, now time.Time) *Decision {
	if len(conds) == 0 {
		return nil
	}

	var back *DetectedCondition
	for i := range conds {
		c := conds[i]
		if c.Type == ConditionBackOnTrack {
			back = &conds[i]
			continue
		}
		s.Occurrences[c.Type]++
	}

	if back != nil {
		// Positive reinforcement preempts the negative conditions and
		// resets their tolerance counters so an old flag cannot
		// resurface immediately after recovery.
		for k := range s.Occurrences {
			delete(s.Occurrences, k)
		}
		s.BackOnTrackSent = true
		if p.coolingDown(s, now) {
			return nil
		}
		return p.commit(s, *back, conds, now)
	}

	if p.coolingDown(s, now) {
		return nil
	}

	prof := p.cfg.Profile(s.Mode)
	for _, c := range conds {
		if s.Occurrences[c.Type] < prof.Tolerance {
			continue
		}
		s.Occurrences[c.Type] = 0
		s.Flags++
		s.BackOnTrackSent = false // new flag episode re-arms the positive
		return p.commit(s, c, conds, now)
	}
	return nil
}

// coolingDown reports whether the cooldown window is still open.
func (p *Policy) coolingDown(s *SessionState, now time.Time) bool {
	if s.LastIntervention == nil {
		return false
	}
	return now.Sub(*s.LastIntervention) < p.cfg.Cooldown
}

// commit transitions to CooldownActive and builds the decision.
func (p *Policy) commit(s *SessionState, c DetectedCondition, conds []DetectedCondition, now time.Time) *Decision {
	t := now
	s.LastIntervention = &t
	s.Interventions++

	types := make([]ConditionType, len(conds))
	for i, dc := range conds {
		types[i] = dc.Type
	}

	return &Decision{
		Condition:  c,
		Conditions: types,
		At:         now,
		Prompt: PromptContext{
			Goal:         s.Goal,
			Mode:         s.Mode,
			Condition:    c.Type,
			Severity:     c.Severity,
			Detail:       c.Detail,
			VideoCount:   len(s.Events),
			AverageScore: s.AverageScore(),
			RecentTitles: recentTitles(s, 5),
		},
	}
}

func recentTitles(s *SessionState, n int) []string {
	start := len(s.Events) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, n)
	for _, ev := range s.Events[start:] {
		out = append(out, ev.Title)
	}
	return out
}
