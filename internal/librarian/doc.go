// Package librarian maintains a personal, searchable library of videos the
// user has watched, backed by an embedded vector database. It answers
// "what was that video about X I watched last month" style queries by
// semantic similarity over title, channel and goal context.
package librarian
