package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// EventType identifies a store change
type EventType string

const (
	EventScheduleGenerated EventType = "schedule.generated"
	EventTechniqueAdded    EventType = "technique.added"
	EventTechniqueRemoved  EventType = "technique.removed"
	EventTechniqueMoved    EventType = "technique.moved"
	EventImported          EventType = "course.imported"
	EventSaved             EventType = "course.saved"
)

// Event is pushed to subscribers after every store change
type Event struct {
	Type        EventType              `json:"type"`
	Lesson      int                    `json:"lessonNumber,omitempty"`
	TechniqueID string                 `json:"techniqueId,omitempty"`
	Techniques  []models.TechniqueView `json:"techniques,omitempty"`
	Stats       models.ScheduleStats   `json:"stats"`
	At          time.Time              `json:"at"`
}

const subscriberBuffer = 32

// feed fans events out to subscribers without blocking the publisher.
// A subscriber whose buffer is full misses the event.
type feed struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func newFeed() *feed {
	return &feed{subs: make(map[chan Event]struct{})}
}

func (f *feed) subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	f.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.subs[ch]; ok {
				delete(f.subs, ch)
				close(ch)
			}
		})
	}
}

func (f *feed) publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- e:
		default:
			slog.Warn("dropping editor event for slow subscriber", "type", e.Type)
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
