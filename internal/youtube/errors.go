package youtube

import "errors"

var (
	// ErrVideoNotFound reports an unknown, deleted or private video.
	ErrVideoNotFound = errors.New("video not found")

	// ErrQuotaExceeded reports that the API key's daily quota is spent.
	ErrQuotaExceeded = errors.New("youtube API quota exceeded")

	// ErrUnavailable reports a transient API failure.
	ErrUnavailable = errors.New("youtube API unavailable")

	// ErrInvalidVideoID reports input that is neither a video ID nor a
	// recognized YouTube URL.
	ErrInvalidVideoID = errors.New("invalid video id or url")
)
