// Package genai provides the Gemini API client used for scoring, intent
// classification, coaching messages and embeddings. It exposes narrow
// Generator and Embedder interfaces so callers can be tested against fakes.
package genai
