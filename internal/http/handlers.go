package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/usnaveen/TubeFocus-Backend/internal/coach"
	"github.com/usnaveen/TubeFocus-Backend/internal/librarian"
)

// handleStartSession creates a monitored session and classifies its goal.
func (s *Server) handleStartSession(c echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}
	if req.Mode == "" {
		req.Mode = string(coach.ModeBalanced)
	}

	ctx := c.Request().Context()
	id, err := s.registry.Coach().StartSession(ctx, req.Goal, req.Mode)
	if err != nil {
		return s.fail(c, err)
	}

	// Intent never blocks session creation; it degrades to the default.
	intentCategory, _ := s.registry.Intent().Classify(ctx, req.Goal)

	return c.JSON(http.StatusCreated, StartSessionResponse{
		SessionID: id,
		Goal:      strings.TrimSpace(req.Goal),
		Mode:      req.Mode,
		Intent:    intentCategory,
	})
}

// handleWatch scores a reported video against the session goal, records it
// with the coach, and returns any triggered intervention. A scoring outage
// records the event unscored instead of failing the report.
func (s *Server) handleWatch(c echo.Context) error {
	var req WatchRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}
	if req.Video == "" {
		return s.badRequest(c, "video field is required")
	}

	ctx := c.Request().Context()
	sessionID := c.Param("id")

	stats, err := s.registry.Coach().Stats(ctx, sessionID)
	if err != nil {
		return s.fail(c, err)
	}

	meta, err := s.registry.Videos().Lookup(ctx, req.Video)
	if err != nil {
		return s.fail(c, err)
	}

	resp := WatchResponse{VideoID: meta.VideoID, Title: meta.Title}

	var scorePtr *int
	intentCategory, _ := s.registry.Intent().Classify(ctx, stats.Goal)
	result, err := s.registry.Scorer().Score(ctx, meta, stats.Goal, intentCategory)
	if err != nil {
		s.logger.Warn("scoring failed, recording unscored",
			zap.String("video_id", meta.VideoID),
			zap.Error(err))
		resp.Unscored = true
	} else {
		sc := result.Score
		scorePtr = &sc
		resp.Score = &sc
		resp.Rationale = result.Rationale
	}

	iv, err := s.registry.Coach().ReportWatch(ctx, coach.WatchRequest{
		SessionID: sessionID,
		VideoID:   meta.VideoID,
		Title:     meta.Title,
		Score:     scorePtr,
		Duration:  time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		return s.fail(c, err)
	}
	resp.Intervention = iv

	// The library records every watch; failures only lose searchability.
	if lib := s.registry.Librarian(); lib != nil {
		entry := librarian.Entry{
			VideoID:  meta.VideoID,
			Title:    meta.Title,
			Channel:  meta.ChannelTitle,
			Category: meta.Category,
			Goal:     stats.Goal,
		}
		if scorePtr != nil {
			entry.Score = *scorePtr
		}
		if err := lib.Index(ctx, entry); err != nil {
			s.logger.Warn("library indexing failed",
				zap.String("video_id", meta.VideoID),
				zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBreak(c echo.Context) error {
	if err := s.registry.Coach().RecordBreak(c.Request().Context(), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.registry.Coach().Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, StatsResponse{SessionStats: stats})
}

func (s *Server) handleEndSession(c echo.Context) error {
	summary, err := s.registry.Coach().EndSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, EndSessionResponse{SessionSummary: summary})
}

// handleScore rates one video against an ad-hoc goal, outside any session.
func (s *Server) handleScore(c echo.Context) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}
	if req.Video == "" || strings.TrimSpace(req.Goal) == "" {
		return s.badRequest(c, "video and goal fields are required")
	}

	ctx := c.Request().Context()
	meta, err := s.registry.Videos().Lookup(ctx, req.Video)
	if err != nil {
		return s.fail(c, err)
	}

	intentCategory, _ := s.registry.Intent().Classify(ctx, req.Goal)
	result, err := s.registry.Scorer().Score(ctx, meta, req.Goal, intentCategory)
	if err != nil {
		return s.fail(c, err)
	}

	resp := ScoreResponse{
		VideoID:   meta.VideoID,
		Title:     meta.Title,
		Score:     result.Score,
		Rationale: result.Rationale,
		Intent:    result.Intent,
	}

	if req.SessionID != "" {
		sc := result.Score
		iv, err := s.registry.Coach().ReportWatch(ctx, coach.WatchRequest{
			SessionID: req.SessionID,
			VideoID:   meta.VideoID,
			Title:     meta.Title,
			Score:     &sc,
		})
		if err != nil {
			return s.fail(c, err)
		}
		resp.Intervention = iv
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAudit(c echo.Context) error {
	var req AuditRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}
	if req.Video == "" || strings.TrimSpace(req.Goal) == "" {
		return s.badRequest(c, "video and goal fields are required")
	}

	result, err := s.registry.Auditor().Audit(c.Request().Context(), req.Video, req.Goal)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, AuditResponse{Result: result})
}

func (s *Server) handleLibrarianIndex(c echo.Context) error {
	var req IndexRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}

	err := s.registry.Librarian().Index(c.Request().Context(), librarian.Entry{
		VideoID:   req.VideoID,
		Title:     req.Title,
		Channel:   req.Channel,
		Category:  req.Category,
		Goal:      req.Goal,
		Score:     req.Score,
		WatchedAt: req.WatchedAt,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleLibrarianSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid request body")
	}

	hits, err := s.registry.Librarian().Search(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		return s.fail(c, err)
	}
	if hits == nil {
		hits = []librarian.Hit{}
	}
	return c.JSON(http.StatusOK, SearchResponse{Hits: hits})
}

func (s *Server) handleLibrarianStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.Librarian().Stats())
}
