package coach

import (
	"fmt"
	"time"
)

// Detect classifies the session's recent behavior against a mode profile.
//
// Detect is pure: it never mutates state and never errors on well-formed
// input. An empty event list yields no conditions. The returned slice is
// ordered most severe first; BackOnTrack, when present, is last and is used
// by the policy to suppress the negative conditions.
func Detect(s *SessionState, p Profile, now time.Time) []DetectedCondition {
	if len(s.Events) == 0 {
		return nil
	}

	var out []DetectedCondition
	negSeverity := SeverityFirm
	if p.GentleOnly {
		negSeverity = SeverityGentle
	}

	if c, ok := detectDecline(s, p); ok {
		c.Severity = negSeverity
		out = append(out, c)
	}
	if c, ok := detectVolume(s, p); ok {
		c.Severity = negSeverity
		out = append(out, c)
	}
	if c, ok := detectNoBreak(s, p, now); ok {
		c.Severity = negSeverity
		out = append(out, c)
	}
	if c, ok := detectBackOnTrack(s, p); ok {
		out = append(out, c)
	}
	return out
}

// detectDecline compares the mean of the last Window scored events against
// the mean of the window before it. A single moderate outlier does not fire;
// the recent window's mean has to drop by at least DeclineThreshold points.
func detectDecline(s *SessionState, p Profile) (DetectedCondition, bool) {
	scores := s.ScoredScores()
	n := len(scores)
	if n < p.Window+1 {
		return DetectedCondition{}, false
	}

	recent := scores[n-p.Window:]
	lo := n - 2*p.Window
	if lo < 0 {
		lo = 0
	}
	prior := scores[lo : n-p.Window]

	drop := mean(prior) - mean(recent)
	if drop < p.DeclineThreshold {
		return DetectedCondition{}, false
	}

	conf := drop / (2 * p.DeclineThreshold)
	if conf > 1 {
		conf = 1
	}
	return DetectedCondition{
		Type:       ConditionDecliningRelevance,
		Confidence: conf,
		Detail:     fmt.Sprintf("mean score dropped %.1f points (%.1f -> %.1f)", drop, mean(prior), mean(recent)),
	}, true
}

func detectVolume(s *SessionState, p Profile) (DetectedCondition, bool) {
	count := len(s.Events)
	if count <= p.VolumeLimit {
		return DetectedCondition{}, false
	}
	return DetectedCondition{
		Type:       ConditionExcessiveVolume,
		Confidence: 1,
		Detail:     fmt.Sprintf("%d videos this session (limit %d)", count, p.VolumeLimit),
	}, true
}

func detectNoBreak(s *SessionState, p Profile, now time.Time) (DetectedCondition, bool) {
	anchor := s.StartedAt
	if s.LastBreak != nil && s.LastBreak.After(anchor) {
		anchor = *s.LastBreak
	}
	elapsed := now.Sub(anchor)
	if elapsed <= p.BreakAfter {
		return DetectedCondition{}, false
	}
	return DetectedCondition{
		Type:       ConditionNoBreakTaken,
		Confidence: 1,
		Detail:     fmt.Sprintf("%s without a break", elapsed.Round(time.Minute)),
	}, true
}

// detectBackOnTrack requires a prior flagged condition and two consecutive
// good scores, and fires once per flag episode.
func detectBackOnTrack(s *SessionState, p Profile) (DetectedCondition, bool) {
	if s.Flags == 0 || s.BackOnTrackSent {
		return DetectedCondition{}, false
	}
	scores := s.ScoredScores()
	n := len(scores)
	if n < 2 {
		return DetectedCondition{}, false
	}
	good := float64(p.GoodScore)
	if scores[n-1] < good || scores[n-2] < good {
		return DetectedCondition{}, false
	}
	return DetectedCondition{
		Type:       ConditionBackOnTrack,
		Severity:   SeverityPositive,
		Confidence: 1,
		Detail:     fmt.Sprintf("last two scores %.0f and %.0f", scores[n-2], scores[n-1]),
	}, true
}
