package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/usnaveen/TubeFocus-Backend/internal/genai"
	"github.com/usnaveen/TubeFocus-Backend/internal/youtube"
)

// ErrInvalidInput reports missing goal or video metadata.
var ErrInvalidInput = errors.New("invalid scoring input")

// Result is one relevance judgment.
type Result struct {
	VideoID   string `json:"video_id"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
	Intent    string `json:"intent,omitempty"`
}

// Scorer rates video metadata against a goal.
type Scorer interface {
	Score(ctx context.Context, meta youtube.Metadata, goal, intent string) (Result, error)
}

type scorer struct {
	gen    genai.Generator
	logger *zap.Logger
}

// NewScorer builds an LLM-backed scorer.
func NewScorer(gen genai.Generator, logger *zap.Logger) (Scorer, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &scorer{gen: gen, logger: logger}, nil
}

// scoreResponse is the JSON shape the model is instructed to return.
type scoreResponse struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

func (s *scorer) Score(ctx context.Context, meta youtube.Metadata, goal, intent string) (Result, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return Result{}, fmt.Errorf("%w: goal is required", ErrInvalidInput)
	}
	if meta.Title == "" {
		return Result{}, fmt.Errorf("%w: video metadata is required", ErrInvalidInput)
	}

	out, err := s.gen.Generate(ctx, buildPrompt(meta, goal, intent))
	if err != nil {
		return Result{}, err
	}

	var resp scoreResponse
	if err := json.Unmarshal([]byte(genai.CleanJSON(out)), &resp); err != nil {
		s.logger.Warn("unparseable score response", zap.Error(err))
		return Result{}, fmt.Errorf("%w: unparseable response", genai.ErrUnavailable)
	}

	score := resp.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		VideoID:   meta.VideoID,
		Score:     score,
		Rationale: resp.Rationale,
		Intent:    intent,
	}, nil
}

func buildPrompt(meta youtube.Metadata, goal, intent string) string {
	var b strings.Builder
	b.WriteString("Rate how relevant this YouTube video is to the user's goal on a 0-100 scale.\n")
	b.WriteString("100 means directly on-goal, 0 means entirely unrelated.\n\n")
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	if intent != "" {
		fmt.Fprintf(&b, "Goal intent: %s\n", intent)
	}
	fmt.Fprintf(&b, "\nVideo title: %s\n", meta.Title)
	if meta.ChannelTitle != "" {
		fmt.Fprintf(&b, "Channel: %s\n", meta.ChannelTitle)
	}
	if meta.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", meta.Category)
	}
	if len(meta.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(meta.Tags, ", "))
	}
	if meta.Description != "" {
		desc := meta.Description
		if len(desc) > 500 {
			desc = desc[:500]
		}
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}
	b.WriteString("\nRespond with JSON only: {\"score\": <0-100>, \"rationale\": \"<one sentence>\"}")
	return b.String()
}
