package pipeline

import "github.com/lehigh-university-libraries/imagemeta/internal/models"

type EventType string

const (
	EventStarted     EventType = "started"
	EventTranslating EventType = "translating"
	EventProgress    EventType = "progress"
	EventOutcome     EventType = "outcome"
	EventFinished    EventType = "finished"
)

// Progress counts items started so far in a run
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Event is emitted as a batch run or regeneration advances
type Event struct {
	Type    EventType       `json:"type"`
	BatchID string          `json:"session_id"`
	Outcome *models.Outcome `json:"outcome,omitempty"`
	// Keyword is the keyword being translated for EventTranslating
	Keyword  string      `json:"keyword,omitempty"`
	Progress *Progress   `json:"progress,omitempty"`
	Summary  *RunSummary `json:"summary,omitempty"`
}

// Notifier receives pipeline events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) {
	f(e)
}

type discard struct{}

func (discard) Notify(Event) {}
