package coach

import (
	"time"
)

// WatchEvent is a single observed video within a session.
// Events are immutable once recorded.
type WatchEvent struct {
	// VideoID is the YouTube video identifier.
	VideoID string `json:"video_id"`

	// Title is the video title at watch time.
	Title string `json:"title"`

	// Score is the 0-100 relevance score against the session goal.
	// Meaningless when Unscored is true.
	Score int `json:"score"`

	// Unscored marks events recorded while the scoring collaborator was
	// unavailable. Unscored events count toward volume but are excluded
	// from averages and score-based conditions.
	Unscored bool `json:"unscored,omitempty"`

	// Timestamp is when the watch was reported.
	Timestamp time.Time `json:"timestamp"`

	// Duration is the optional watch duration.
	Duration time.Duration `json:"duration,omitempty"`
}

// ConditionType identifies a behavioral pattern detected from recent
// session history.
type ConditionType string

const (
	// ConditionDecliningRelevance fires when the mean score of the most
	// recent window drops below the prior window by the configured delta.
	ConditionDecliningRelevance ConditionType = "declining_relevance"
	// ConditionExcessiveVolume fires when the session exceeds the per-mode
	// video count limit.
	ConditionExcessiveVolume ConditionType = "excessive_volume"
	// ConditionNoBreakTaken fires when the session has run past the break
	// interval without a recorded break.
	ConditionNoBreakTaken ConditionType = "no_break_taken"
	// ConditionBackOnTrack fires when two consecutive good scores follow a
	// previously flagged condition. It suppresses negative interventions.
	ConditionBackOnTrack ConditionType = "back_on_track"
)

// Severity grades how forcefully an intervention is delivered.
type Severity string

const (
	SeverityGentle   Severity = "gentle"
	SeverityFirm     Severity = "firm"
	SeverityPositive Severity = "positive"
)

// DetectedCondition is one detector finding. Ephemeral: recomputed per
// evaluation, never stored.
type DetectedCondition struct {
	Type       ConditionType `json:"type"`
	Severity   Severity      `json:"severity"`
	Confidence float64       `json:"confidence"`
	Detail     string        `json:"detail,omitempty"`
}

// Intervention is a coaching message surfaced to the user.
type Intervention struct {
	// Message is the user-facing text.
	Message string `json:"message"`

	// Severity is the delivery tone.
	Severity Severity `json:"severity"`

	// Conditions lists the condition types detected at emission time,
	// most severe first. The first entry triggered the message.
	Conditions []ConditionType `json:"conditions"`

	// Timestamp is when the intervention was committed; it anchors the
	// session cooldown.
	Timestamp time.Time `json:"timestamp"`

	// Fallback is true when the templated message was used because the
	// text-generation collaborator failed or timed out.
	Fallback bool `json:"fallback,omitempty"`
}

// SessionState is the complete state of one monitored session.
//
// All mutation goes through the Store; other components only ever see
// snapshots.
type SessionState struct {
	// ID is the session identifier.
	ID string `json:"id"`

	// Goal is the user's stated goal for this session.
	Goal string `json:"goal"`

	// Mode is the coach mode governing intervention sensitivity.
	Mode Mode `json:"mode"`

	// Events is the chronological watch history, capped at the configured
	// maximum (oldest dropped first).
	Events []WatchEvent `json:"events"`

	// StartedAt is the session start time.
	StartedAt time.Time `json:"started_at"`

	// LastActivity is the last time the session was touched; drives
	// least-recently-active eviction.
	LastActivity time.Time `json:"last_activity"`

	// LastBreak is the most recent recorded break marker, if any.
	LastBreak *time.Time `json:"last_break,omitempty"`

	// LastIntervention anchors the cooldown window, nil before the first
	// intervention.
	LastIntervention *time.Time `json:"last_intervention,omitempty"`

	// Interventions counts messages emitted during the session.
	Interventions int `json:"interventions"`

	// Occurrences counts consecutive detections per negative condition,
	// compared against the mode's tolerance. Reset when the condition
	// fires or when the user gets back on track.
	Occurrences map[ConditionType]int `json:"occurrences,omitempty"`

	// Flags counts negative interventions emitted over the whole session.
	// BackOnTrack only fires after at least one flag.
	Flags int `json:"flags"`

	// BackOnTrackSent records that positive reinforcement was already
	// given for the current flag episode. Re-armed by the next negative
	// intervention.
	BackOnTrackSent bool `json:"back_on_track_sent,omitempty"`
}

// Clone returns a deep copy safe to read outside the store's lock.
func (s *SessionState) Clone() SessionState {
	out := *s
	out.Events = make([]WatchEvent, len(s.Events))
	copy(out.Events, s.Events)
	if s.LastBreak != nil {
		t := *s.LastBreak
		out.LastBreak = &t
	}
	if s.LastIntervention != nil {
		t := *s.LastIntervention
		out.LastIntervention = &t
	}
	out.Occurrences = make(map[ConditionType]int, len(s.Occurrences))
	for k, v := range s.Occurrences {
		out.Occurrences[k] = v
	}
	return out
}

// ScoredScores returns the scores of all scored events in order.
func (s *SessionState) ScoredScores() []float64 {
	out := make([]float64, 0, len(s.Events))
	for _, ev := range s.Events {
		if !ev.Unscored {
			out = append(out, float64(ev.Score))
		}
	}
	return out
}

// AverageScore returns the mean over scored events, 0 if none.
func (s *SessionState) AverageScore() float64 {
	scores := s.ScoredScores()
	if len(scores) == 0 {
		return 0
	}
	return mean(scores)
}

// SessionStats is the read-only view returned by Service.Stats.
type SessionStats struct {
	SessionID        string          `json:"session_id"`
	Goal             string          `json:"goal"`
	Mode             Mode            `json:"mode"`
	VideoCount       int             `json:"video_count"`
	AverageScore     float64         `json:"average_score"`
	ActiveConditions []ConditionType `json:"active_conditions"`
}

// SessionSummary is computed when a session ends, just before eviction.
type SessionSummary struct {
	SessionID      string        `json:"session_id"`
	Goal           string        `json:"goal"`
	Mode           Mode          `json:"mode"`
	VideoCount     int           `json:"video_count"`
	AverageScore   float64       `json:"average_score"`
	Duration       time.Duration `json:"duration"`
	Interventions  int           `json:"interventions"`
	ClosingMessage string        `json:"closing_message"`
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
