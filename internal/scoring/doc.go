// Package scoring rates how relevant a video is to a stated goal on a
// 0-100 scale using a generative model.
package scoring
