package store

import "time"

// Session holds the intermediate state of a two-phase inspection: the
// analyze step records the photo and its visual description, the complete
// step consumes them to produce the final report.
type Session struct {
	ID             string    `json:"id"`
	Query          string    `json:"query"`
	ImageInput     string    `json:"image_input"`
	VisualAnalysis string    `json:"visual_analysis"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionStore is the contract for the analyze/complete handoff. Consume
// must be atomic: concurrent completions of the same session see exactly
// one success.
type SessionStore interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	// Consume returns the session and removes it in one step.
	Consume(sessionID string) (*Session, bool)
	Delete(sessionID string)
}
