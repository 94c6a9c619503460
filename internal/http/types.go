package http

import (
	"time"

	"github.com/usnaveen/TubeFocus-Backend/internal/audit"
	"github.com/usnaveen/TubeFocus-Backend/internal/coach"
	"github.com/usnaveen/TubeFocus-Backend/internal/librarian"
)

// HealthResponse is the response body for GET /health. Dependencies
// reports which collaborators are wired; "degraded" means one is missing.
type HealthResponse struct {
	Status       string          `json:"status"`
	Dependencies map[string]bool `json:"dependencies"`
}

// ErrorBody is the envelope for every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code plus a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable error codes returned in ErrorDetail.Code.
const (
	CodeInvalidRequest      = "invalid_request"
	CodeUnauthorized        = "unauthorized"
	CodeUnknownSession      = "unknown_session"
	CodeVideoNotFound       = "video_not_found"
	CodeQuotaExceeded       = "quota_exceeded"
	CodeUpstreamUnavailable = "collaborator_unavailable"
	CodeInternal            = "internal"
)

// StartSessionRequest is the body for POST /api/v1/sessions.
type StartSessionRequest struct {
	Goal string `json:"goal"`
	Mode string `json:"mode"`
}

// StartSessionResponse returns the new session and the classified intent.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Goal      string `json:"goal"`
	Mode      string `json:"mode"`
	Intent    string `json:"intent"`
}

// WatchRequest is the body for POST /api/v1/sessions/:id/watch.
type WatchRequest struct {
	// Video is a video ID or any YouTube URL.
	Video string `json:"video"`

	// Duration is the optional watch duration in seconds.
	DurationSeconds int `json:"duration_seconds,omitempty"`
}

// WatchResponse reports the score and any intervention the watch triggered.
type WatchResponse struct {
	VideoID      string              `json:"video_id"`
	Title        string              `json:"title"`
	Score        *int                `json:"score,omitempty"`
	Rationale    string              `json:"rationale,omitempty"`
	Unscored     bool                `json:"unscored,omitempty"`
	Intervention *coach.Intervention `json:"intervention,omitempty"`
}

// StatsResponse is the body for GET /api/v1/sessions/:id/stats.
type StatsResponse struct {
	coach.SessionStats
}

// EndSessionResponse is the body for DELETE /api/v1/sessions/:id.
type EndSessionResponse struct {
	coach.SessionSummary
}

// ScoreRequest is the body for POST /api/v1/score.
type ScoreRequest struct {
	Video string `json:"video"`
	Goal  string `json:"goal"`

	// SessionID, when set, also records the watch with that session's
	// coach and returns any triggered intervention.
	SessionID string `json:"session_id,omitempty"`
}

// ScoreResponse is a relevance score, usually outside any session.
type ScoreResponse struct {
	VideoID      string              `json:"video_id"`
	Title        string              `json:"title"`
	Score        int                 `json:"score"`
	Rationale    string              `json:"rationale"`
	Intent       string              `json:"intent,omitempty"`
	Intervention *coach.Intervention `json:"intervention,omitempty"`
}

// AuditRequest is the body for POST /api/v1/audit.
type AuditRequest struct {
	Video string `json:"video"`
	Goal  string `json:"goal"`
}

// AuditResponse is the body for POST /api/v1/audit.
type AuditResponse struct {
	audit.Result
}

// IndexRequest is the body for POST /api/v1/librarian/index.
type IndexRequest struct {
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Channel   string    `json:"channel,omitempty"`
	Category  string    `json:"category,omitempty"`
	Goal      string    `json:"goal,omitempty"`
	Score     int       `json:"score,omitempty"`
	WatchedAt time.Time `json:"watched_at,omitempty"`
}

// SearchRequest is the body for POST /api/v1/librarian/search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse is the body for POST /api/v1/librarian/search.
type SearchResponse struct {
	Hits []librarian.Hit `json:"hits"`
}
