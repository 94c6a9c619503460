// Package coach monitors YouTube browsing sessions against a stated goal.
//
// The package combines four pieces: an in-memory session Store that owns all
// session state, a pure pattern Detector that classifies recent behavior, an
// intervention Policy that decides under cooldown and tolerance rules when a
// coaching message should fire, and a Service that orchestrates the three
// per incoming watch event.
//
// Message phrasing is delegated to a Messenger collaborator (typically backed
// by a hosted text-generation model). When the collaborator fails or times
// out, a deterministic per-condition template is used instead so a detected
// condition is never silently dropped.
package coach
