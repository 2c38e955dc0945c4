// Package notify delivers best-effort notifications to external
// collaborators: the ops monitor and the social bot. Delivery is
// decoupled from the triggering operation through a bounded queue and a
// small worker pool; failures are logged and never propagated.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/railwaystations/inbox-api/internal/models"
)

type Event interface{ isEvent() }

// MonitorMessage is a human-readable summary for the ops channel,
// optionally with the uploaded photo attached.
type MonitorMessage struct {
	Text      string
	PhotoPath string
}

func (MonitorMessage) isEvent() {}

// NewPhoto announces a successfully imported photo.
type NewPhoto struct {
	Station      models.Station
	EntryID      int64
	PhotoID      int64
	PhotoURL     string
	Photographer string
}

func (NewPhoto) isEvent() {}

// Sink is one delivery target. Sinks must tolerate event types they do
// not care about.
type Sink interface {
	Handle(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	numWorkers int
	events     chan Event
	sinks      []Sink
	wg         sync.WaitGroup
}

func NewDispatcher(numWorkers, bufferSize int, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		numWorkers: numWorkers,
		events:     make(chan Event, bufferSize),
		sinks:      sinks,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 1; i <= d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.events:
			if !ok {
				return
			}
			for _, sink := range d.sinks {
				if err := sink.Handle(ctx, ev); err != nil {
					slog.Error("notification delivery failed", "event", eventName(ev), "error", err)
				}
			}
		}
	}
}

// Submit enqueues an event without blocking. When the queue is full the
// event is dropped: notifications are best-effort and must never stall
// a command.
func (d *Dispatcher) Submit(ev Event) {
	select {
	case d.events <- ev:
	default:
		slog.Warn("notification queue full, dropping event", "event", eventName(ev))
	}
}

func (d *Dispatcher) Stop() {
	close(d.events)
	d.wg.Wait()
}

// NotifyMonitor implements inbox.Hooks.
func (d *Dispatcher) NotifyMonitor(text string, photoPath string) {
	d.Submit(MonitorMessage{Text: text, PhotoPath: photoPath})
}

// AnnouncePhoto implements inbox.Hooks.
func (d *Dispatcher) AnnouncePhoto(station *models.Station, entry *models.InboxEntry, photoID int64, photoURL string) {
	d.Submit(NewPhoto{
		Station:      *station,
		EntryID:      entry.ID,
		PhotoID:      photoID,
		PhotoURL:     photoURL,
		Photographer: entry.PhotographerName,
	})
}

func eventName(ev Event) string {
	switch ev.(type) {
	case MonitorMessage:
		return "monitor_message"
	case NewPhoto:
		return "new_photo"
	default:
		return "unknown"
	}
}
