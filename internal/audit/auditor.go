package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/usnaveen/TubeFocus-Backend/internal/genai"
	"github.com/usnaveen/TubeFocus-Backend/internal/scoring"
	"github.com/usnaveen/TubeFocus-Backend/internal/youtube"
)

// neutralScore is reported when the model cannot produce a judgment but
// the video itself was found.
const neutralScore = 50

// Result is one completed audit.
type Result struct {
	VideoID        string   `json:"video_id"`
	Goal           string   `json:"goal"`
	Score          int      `json:"score"`
	Explanation    string   `json:"explanation"`
	Recommendation string   `json:"recommendation"`
	KeyTopics      []string `json:"key_topics,omitempty"`

	// Degraded is true when the model was unavailable and the neutral
	// fallback was used.
	Degraded bool `json:"degraded,omitempty"`
}

// Auditor runs audits.
type Auditor interface {
	Audit(ctx context.Context, videoInput, goal string) (Result, error)
}

type auditor struct {
	videos *youtube.Client
	gen    genai.Generator
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]Result
}

// NewAuditor wires the metadata client and the generative model.
func NewAuditor(videos *youtube.Client, gen genai.Generator, logger *zap.Logger) (Auditor, error) {
	if videos == nil {
		return nil, fmt.Errorf("youtube client required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditor{
		videos: videos,
		gen:    gen,
		logger: logger,
		cache:  make(map[string]Result),
	}, nil
}

type auditResponse struct {
	Score          int      `json:"score"`
	Explanation    string   `json:"explanation"`
	Recommendation string   `json:"recommendation"`
	KeyTopics      []string `json:"key_topics"`
}

func (a *auditor) Audit(ctx context.Context, videoInput, goal string) (Result, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return Result{}, fmt.Errorf("%w: goal is required", scoring.ErrInvalidInput)
	}

	meta, err := a.videos.Lookup(ctx, videoInput)
	if err != nil {
		return Result{}, err
	}

	key := meta.VideoID + ":" + goal
	a.mu.Lock()
	if cached, ok := a.cache[key]; ok && !cached.Degraded {
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	res := a.run(ctx, meta, goal)

	a.mu.Lock()
	a.cache[key] = res
	a.mu.Unlock()
	return res, nil
}

// run performs the model call, degrading to a neutral result on failure.
func (a *auditor) run(ctx context.Context, meta youtube.Metadata, goal string) Result {
	res := Result{VideoID: meta.VideoID, Goal: goal}

	if a.gen == nil {
		return neutral(res, meta)
	}

	out, err := a.gen.Generate(ctx, buildPrompt(meta, goal))
	if err != nil {
		a.logger.Warn("audit generation failed, degrading",
			zap.String("video_id", meta.VideoID),
			zap.Error(err))
		return neutral(res, meta)
	}

	var resp auditResponse
	if err := json.Unmarshal([]byte(genai.CleanJSON(out)), &resp); err != nil {
		a.logger.Warn("unparseable audit response",
			zap.String("video_id", meta.VideoID),
			zap.Error(err))
		return neutral(res, meta)
	}

	res.Score = resp.Score
	if res.Score < 0 {
		res.Score = 0
	}
	if res.Score > 100 {
		res.Score = 100
	}
	res.Explanation = resp.Explanation
	res.Recommendation = resp.Recommendation
	res.KeyTopics = resp.KeyTopics
	return res
}

func neutral(res Result, meta youtube.Metadata) Result {
	res.Score = neutralScore
	res.Explanation = fmt.Sprintf("Could not analyze %q in depth; metadata alone is inconclusive.", meta.Title)
	res.Recommendation = "Judge for yourself whether this video serves your goal."
	res.Degraded = true
	return res
}

func buildPrompt(meta youtube.Metadata, goal string) string {
	var b strings.Builder
	b.WriteString("Audit how well this YouTube video serves the user's goal.\n\n")
	fmt.Fprintf(&b, "Goal: %s\n\nVideo title: %s\n", goal, meta.Title)
	if meta.ChannelTitle != "" {
		fmt.Fprintf(&b, "Channel: %s\n", meta.ChannelTitle)
	}
	if meta.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", meta.Category)
	}
	if meta.Description != "" {
		desc := meta.Description
		if len(desc) > 1500 {
			desc = desc[:1500]
		}
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}
	b.WriteString("\nRespond with JSON only: {\"score\": <0-100>, \"explanation\": \"<2-3 sentences>\", " +
		"\"recommendation\": \"<one sentence>\", \"key_topics\": [\"<topic>\"]}")
	return b.String()
}
