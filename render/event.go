package render

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/fields/field"
)

// EventKind identifies a render notification.
type EventKind uint8

const (
	EventStarted EventKind = iota
	EventProgress
	EventFinished
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventFinished:
		return "finished"
	case EventCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// Event is a notification from a render worker. Owners should drop events
// whose RenderID is not the controller's Current render.
type Event struct {
	Kind     EventKind
	RenderID uuid.UUID

	// Progress only.
	Resolution int
	Row        int

	// Finished and Cancelled only.
	Stats   field.FillStats
	Elapsed time.Duration
}

// PassObserver receives the duration of every completed fill pass.
// Called on the worker goroutine.
type PassObserver interface {
	ObservePass(id uuid.UUID, resolution int, elapsed time.Duration)
}
