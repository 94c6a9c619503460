package coach

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedMessenger returns a canned message or error and records prompts.
type scriptedMessenger struct {
	reply   string
	err     error
	prompts []PromptContext
}

func (m *scriptedMessenger) Compose(_ context.Context, pc PromptContext) (string, error) {
	m.prompts = append(m.prompts, pc)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func intp(v int) *int { return &v }

func newTestService(t *testing.T, cfg *Config, m Messenger) Service {
	t.Helper()
	opts := []Option{}
	if m != nil {
		opts = append(opts, WithMessenger(m))
	}
	svc, err := NewService(cfg, opts...)
	require.NoError(t, err)
	return svc
}

// report sends one watch event using the fake clock's current time and
// advances it by step.
func report(t *testing.T, svc Service, c *clock, id string, score *int, step time.Duration) *Intervention {
	t.Helper()
	iv, err := svc.ReportWatch(context.Background(), WatchRequest{
		SessionID: id,
		VideoID:   "vid",
		Title:     "some video",
		Score:     score,
		Timestamp: c.Now(),
	})
	require.NoError(t, err)
	c.Advance(step)
	return iv
}

func TestService_StartSession_Validation(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.StartSession(ctx, "", "balanced")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = svc.StartSession(ctx, "learn Go", "turbo")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	id, err := svc.StartSession(ctx, "learn Go", "balanced")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestService_ReportWatch_InvalidScore(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	id, err := svc.StartSession(ctx, "learn Go", "balanced")
	require.NoError(t, err)

	_, err = svc.ReportWatch(ctx, WatchRequest{SessionID: id, VideoID: "v", Score: intp(101)})
	assert.ErrorIs(t, err, ErrInvalidScore)
	_, err = svc.ReportWatch(ctx, WatchRequest{SessionID: id, VideoID: "v", Score: intp(-1)})
	assert.ErrorIs(t, err, ErrInvalidScore)

	stats, err := svc.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.VideoCount, "rejected reports must not be recorded")
}

func TestService_ReportWatch_UnknownSession(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.ReportWatch(context.Background(), WatchRequest{SessionID: "ghost", VideoID: "v", Score: intp(50)})
	assert.ErrorIs(t, err, ErrUnknownSession)
}

// A goal-drift session: strong start, then junk. The coach must intervene
// exactly once, for declining relevance, while the drop is happening.
func TestService_DriftScenario(t *testing.T) {
	c := fakeClock(t, testStart)
	svc := newTestService(t, nil, nil)
	id, err := svc.StartSession(context.Background(), "learn Go generics", "balanced")
	require.NoError(t, err)

	scores := []int{85, 90, 78, 82, 10, 88, 91, 84, 80, 15}
	var fired []int
	var got *Intervention
	for i, sc := range scores {
		if iv := report(t, svc, c, id, intp(sc), 10*time.Second); iv != nil {
			fired = append(fired, i+1)
			got = iv
		}
	}

	require.Len(t, fired, 1, "exactly one intervention for the whole drift")
	assert.GreaterOrEqual(t, fired[0], 5)
	assert.LessOrEqual(t, fired[0], 9)
	assert.Contains(t, got.Conditions, ConditionDecliningRelevance)
	assert.Equal(t, SeverityFirm, got.Severity)
}

// A binge session in strict mode: consistently relevant videos, but too many
// of them. Volume fires on the first event past the limit.
func TestService_BingeScenario(t *testing.T) {
	c := fakeClock(t, testStart)
	svc := newTestService(t, nil, nil)
	id, err := svc.StartSession(context.Background(), "learn Go generics", "strict")
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		iv := report(t, svc, c, id, intp(82), 10*time.Second)
		assert.Nil(t, iv, "event %d is within the limit", i+1)
	}

	iv := report(t, svc, c, id, intp(82), 10*time.Second)
	require.NotNil(t, iv)
	assert.Contains(t, iv.Conditions, ConditionExcessiveVolume)
	assert.Equal(t, SeverityFirm, iv.Severity)
}

// A recovery session: a flagged binge followed by good videos after the
// cooldown earns positive reinforcement, exactly once.
func TestService_RecoveryScenario(t *testing.T) {
	c := fakeClock(t, testStart)
	svc := newTestService(t, nil, nil)
	id, err := svc.StartSession(context.Background(), "learn Go generics", "strict")
	require.NoError(t, err)

	var negative *Intervention
	for i := 0; i < 7; i++ {
		if iv := report(t, svc, c, id, intp(80), 10*time.Second); iv != nil {
			negative = iv
		}
	}
	require.NotNil(t, negative, "the binge must be flagged first")

	c.Advance(3 * time.Minute) // past the cooldown

	iv := report(t, svc, c, id, intp(90), 10*time.Second)
	require.NotNil(t, iv)
	assert.Equal(t, SeverityPositive, iv.Severity)
	assert.Contains(t, iv.Conditions, ConditionBackOnTrack)
}

// Interventions for one session are never closer than the cooldown, no
// matter how persistent the condition is.
func TestService_CooldownSpacing(t *testing.T) {
	c := fakeClock(t, testStart)
	cfg := DefaultConfig()
	svc := newTestService(t, cfg, nil)
	id, err := svc.StartSession(context.Background(), "learn Go generics", "strict")
	require.NoError(t, err)

	// Mediocre scores keep excessive_volume active without ever looking
	// like a recovery.
	var times []time.Time
	for i := 0; i < 100; i++ {
		if iv := report(t, svc, c, id, intp(50), 10*time.Second); iv != nil {
			times = append(times, iv.Timestamp)
		}
	}

	require.GreaterOrEqual(t, len(times), 2, "the persistent condition must keep firing")
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, cfg.Cooldown,
			"interventions %d and %d are %s apart", i-1, i, gap)
	}
}

func TestService_UnscoredEvents(t *testing.T) {
	c := fakeClock(t, testStart)
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	id, err := svc.StartSession(ctx, "learn Go generics", "strict")
	require.NoError(t, err)

	// Scoring outage: all events unscored. Volume must still fire.
	var got *Intervention
	for i := 0; i < 7; i++ {
		if iv := report(t, svc, c, id, nil, 10*time.Second); iv != nil {
			got = iv
		}
	}
	require.NotNil(t, got)
	assert.Contains(t, got.Conditions, ConditionExcessiveVolume)

	stats, err := svc.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.VideoCount)
	assert.Zero(t, stats.AverageScore, "unscored events are excluded from the average")
}

// Stats is a pure read: polling it must not consume tolerance counters or
// delay interventions.
func TestService_StatsIsIdempotent(t *testing.T) {
	c := fakeClock(t, testStart)
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	id, err := svc.StartSession(ctx, "learn Go generics", "strict")
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		report(t, svc, c, id, intp(82), 10*time.Second)
	}

	first, err := svc.Stats(ctx, id)
	require.NoError(t, err)
	second, err := svc.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first.ActiveConditions, ConditionExcessiveVolume)

	// The next report past the cooldown still fires: Stats consumed nothing.
	c.Advance(3 * time.Minute)
	iv := report(t, svc, c, id, intp(50), 10*time.Second)
	require.NotNil(t, iv)
}

func TestService_MessengerComposesMessage(t *testing.T) {
	c := fakeClock(t, testStart)
	m := &scriptedMessenger{reply: "Hey, those last few videos wandered off. Back to generics?"}
	svc := newTestService(t, nil, m)
	id, err := svc.StartSession(context.Background(), "learn Go generics", "strict")
	require.NoError(t, err)

	var got *Intervention
	for i := 0; i < 7; i++ {
		if iv := report(t, svc, c, id, intp(82), 10*time.Second); iv != nil {
			got = iv
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, m.reply, got.Message)
	assert.False(t, got.Fallback)

	require.NotEmpty(t, m.prompts)
	pc := m.prompts[0]
	assert.Equal(t, "learn Go generics", pc.Goal)
	assert.Equal(t, ConditionExcessiveVolume, pc.Condition)
	assert.Equal(t, 7, pc.VideoCount)
}

func TestService_MessengerFailureFallsBackToTemplate(t *testing.T) {
	c := fakeClock(t, testStart)
	m := &scriptedMessenger{err: errors.New("upstream timeout")}
	svc := newTestService(t, nil, m)
	id, err := svc.StartSession(context.Background(), "learn Go generics", "strict")
	require.NoError(t, err)

	var got *Intervention
	for i := 0; i < 7; i++ {
		if iv := report(t, svc, c, id, intp(82), 10*time.Second); iv != nil {
			got = iv
		}
	}
	require.NotNil(t, got)
	assert.True(t, got.Fallback)
	assert.NotEmpty(t, got.Message)
	assert.Contains(t, got.Message, "7 videos")
}

func TestService_EndSession(t *testing.T) {
	c := fakeClock(t, testStart)
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	id, err := svc.StartSession(ctx, "learn Go generics", "balanced")
	require.NoError(t, err)

	for _, sc := range []int{80, 90, 70} {
		report(t, svc, c, id, intp(sc), time.Minute)
	}

	sum, err := svc.EndSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sum.SessionID)
	assert.Equal(t, 3, sum.VideoCount)
	assert.InDelta(t, 80, sum.AverageScore, 0.001)
	assert.Equal(t, 3*time.Minute, sum.Duration)
	assert.NotEmpty(t, sum.ClosingMessage)

	_, err = svc.Stats(ctx, id)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestService_ConcurrentReportsSerialize(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()
	id, err := svc.StartSession(ctx, "learn Go generics", "balanced")
	require.NoError(t, err)

	done := make(chan error, 8)
	for g := 0; g < 8; g++ {
		go func(g int) {
			var firstErr error
			for j := 0; j < 25; j++ {
				_, err := svc.ReportWatch(ctx, WatchRequest{
					SessionID: id,
					VideoID:   fmt.Sprintf("v-%d-%d", g, j),
					Score:     intp(60),
				})
				if err != nil && firstErr == nil {
					firstErr = err
				}
			}
			done <- firstErr
		}(g)
	}
	for g := 0; g < 8; g++ {
		require.NoError(t, <-done)
	}

	stats, err := svc.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 200, stats.VideoCount)
}
