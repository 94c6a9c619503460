// Package youtube fetches video metadata from the YouTube Data API v3.
// Responses are cached in memory because video titles and categories are
// effectively immutable on the timescale of a focus session.
package youtube
