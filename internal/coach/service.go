package coach

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/usnaveen/TubeFocus-Backend/internal/coach"

// Service orchestrates the session store, the pattern detector and the
// intervention policy behind a single API.
type Service interface {
	// StartSession creates a session for a goal and mode.
	StartSession(ctx context.Context, goal, mode string) (string, error)

	// ReportWatch records a watch event, evaluates the session and returns
	// an intervention when one fires, nil otherwise.
	ReportWatch(ctx context.Context, req WatchRequest) (*Intervention, error)

	// RecordBreak marks a break, resetting the no-break timer.
	RecordBreak(ctx context.Context, sessionID string) error

	// Stats returns current session statistics without mutating anything.
	Stats(ctx context.Context, sessionID string) (SessionStats, error)

	// EndSession computes the final summary and evicts the session.
	EndSession(ctx context.Context, sessionID string) (SessionSummary, error)
}

// WatchRequest is one reported video watch.
type WatchRequest struct {
	SessionID string
	VideoID   string
	Title     string

	// Score is nil when the scoring collaborator was unavailable; the
	// event is then recorded as unscored.
	Score *int

	// Timestamp defaults to the current time when zero.
	Timestamp time.Time

	Duration time.Duration
}

type service struct {
	store     *Store
	policy    *Policy
	messenger Messenger
	cfg       *Config
	logger    *zap.Logger

	eventsTotal        metric.Int64Counter
	interventionsTotal metric.Int64Counter
	fallbacksTotal     metric.Int64Counter
}

// Option configures the Service.
type Option func(*service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *service) { s.logger = l }
}

// WithMessenger sets the message collaborator. When unset, every
// intervention uses the deterministic templates.
func WithMessenger(m Messenger) Option {
	return func(s *service) { s.messenger = m }
}

// NewService validates the configuration and wires the coach.
func NewService(cfg *Config, opts ...Option) (Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &service{
		store:  NewStore(cfg.MaxEvents, cfg.MaxSessions),
		policy: NewPolicy(cfg),
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if s.eventsTotal, err = meter.Int64Counter("coach_watch_events_total",
		metric.WithDescription("Watch events recorded")); err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}
	if s.interventionsTotal, err = meter.Int64Counter("coach_interventions_total",
		metric.WithDescription("Interventions emitted")); err != nil {
		return nil, fmt.Errorf("create interventions counter: %w", err)
	}
	if s.fallbacksTotal, err = meter.Int64Counter("coach_message_fallbacks_total",
		metric.WithDescription("Interventions that used the templated fallback message")); err != nil {
		return nil, fmt.Errorf("create fallbacks counter: %w", err)
	}

	return s, nil
}

func (s *service) StartSession(ctx context.Context, goal, mode string) (string, error) {
	id, err := s.store.Create(goal, mode)
	if err != nil {
		return "", err
	}
	s.logger.Info("session started",
		zap.String("session_id", id),
		zap.String("mode", mode))
	return id, nil
}

func (s *service) ReportWatch(ctx context.Context, req WatchRequest) (*Intervention, error) {
	if req.Score != nil && (*req.Score < 0 || *req.Score > 100) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidScore, *req.Score)
	}

	now := timeNow()
	ev := WatchEvent{
		VideoID:   req.VideoID,
		Title:     req.Title,
		Timestamp: req.Timestamp,
		Duration:  req.Duration,
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now
	}
	if req.Score != nil {
		ev.Score = *req.Score
	} else {
		ev.Unscored = true
	}

	// Append, detect and decide run under the session's exclusive lock so
	// concurrent reports for the same session serialize and the cooldown
	// commit is atomic with the evaluation.
	var decision *Decision
	err := s.store.Update(req.SessionID, func(st *SessionState) error {
		appendEvent(st, ev, s.cfg.MaxEvents)
		conds := Detect(st, s.cfg.Profile(st.Mode), now)
		decision = s.policy.Decide(st, conds, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.eventsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("unscored", ev.Unscored)))

	if decision == nil {
		return nil, nil
	}
	return s.deliver(ctx, req.SessionID, decision), nil
}

// deliver synthesizes the intervention message outside the session lock.
func (s *service) deliver(ctx context.Context, sessionID string, d *Decision) *Intervention {
	iv := &Intervention{
		Severity:   d.Condition.Severity,
		Conditions: d.Conditions,
		Timestamp:  d.At,
	}

	iv.Message, iv.Fallback = s.compose(ctx, d.Prompt)

	s.interventionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("condition", string(d.Condition.Type)),
		attribute.String("severity", string(d.Condition.Severity))))
	if iv.Fallback {
		s.fallbacksTotal.Add(ctx, 1)
	}

	s.logger.Info("intervention emitted",
		zap.String("session_id", sessionID),
		zap.String("condition", string(d.Condition.Type)),
		zap.String("severity", string(d.Condition.Severity)),
		zap.Bool("fallback", iv.Fallback))
	return iv
}

// compose asks the messenger for a phrased message, falling back to the
// deterministic template on error, timeout or empty output.
func (s *service) compose(ctx context.Context, pc PromptContext) (msg string, fallback bool) {
	if s.messenger == nil {
		return FallbackMessage(pc), true
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.MessageTimeout)
	defer cancel()

	out, err := s.messenger.Compose(cctx, pc)
	if err != nil || out == "" {
		if err != nil {
			s.logger.Warn("message composition failed, using template",
				zap.String("condition", string(pc.Condition)),
				zap.Error(err))
		}
		return FallbackMessage(pc), true
	}
	return out, false
}

func (s *service) RecordBreak(ctx context.Context, sessionID string) error {
	if err := s.store.RecordBreak(sessionID, timeNow()); err != nil {
		return err
	}
	s.logger.Debug("break recorded", zap.String("session_id", sessionID))
	return nil
}

// Stats is read-only and idempotent: it detects against a snapshot and
// never touches policy bookkeeping or the cooldown.
func (s *service) Stats(ctx context.Context, sessionID string) (SessionStats, error) {
	st, err := s.store.Snapshot(sessionID)
	if err != nil {
		return SessionStats{}, err
	}

	conds := Detect(&st, s.cfg.Profile(st.Mode), timeNow())
	active := make([]ConditionType, 0, len(conds))
	for _, c := range conds {
		active = append(active, c.Type)
	}

	return SessionStats{
		SessionID:        st.ID,
		Goal:             st.Goal,
		Mode:             st.Mode,
		VideoCount:       len(st.Events),
		AverageScore:     st.AverageScore(),
		ActiveConditions: active,
	}, nil
}

func (s *service) EndSession(ctx context.Context, sessionID string) (SessionSummary, error) {
	st, err := s.store.Remove(sessionID)
	if err != nil {
		return SessionSummary{}, err
	}

	sum := SessionSummary{
		SessionID:     st.ID,
		Goal:          st.Goal,
		Mode:          st.Mode,
		VideoCount:    len(st.Events),
		AverageScore:  st.AverageScore(),
		Duration:      timeNow().Sub(st.StartedAt),
		Interventions: st.Interventions,
	}

	pc := PromptContext{
		Goal:         st.Goal,
		Mode:         st.Mode,
		VideoCount:   len(st.Events),
		AverageScore: st.AverageScore(),
		RecentTitles: recentTitles(&st, 5),
		Closing:      true,
	}
	sum.ClosingMessage, _ = s.compose(ctx, pc)

	s.logger.Info("session ended",
		zap.String("session_id", sessionID),
		zap.Int("videos", sum.VideoCount),
		zap.Int("interventions", sum.Interventions))
	return sum, nil
}
