// Package intent classifies a session goal into a small taxonomy used to
// shade scoring prompts. Users can pin the intent inline with an @mention
// ("learn jazz piano @Skill Acquisition"); otherwise a generative model
// picks the closest category, falling back to a default when unavailable.
package intent
