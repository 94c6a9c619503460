// Package audit produces a detailed relevance audit for a single video
// against a goal: a score plus an explanation and a recommendation. Audits
// are cached per video and goal since neither changes.
package audit
