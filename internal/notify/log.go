package notify

import (
	"context"
	"log/slog"
)

// LogSink writes every event to the structured log. It stands in for
// the chat sinks in development and keeps an audit line in production.
type LogSink struct{}

func (LogSink) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case MonitorMessage:
		slog.Info("monitor notification", "text", e.Text, "photo", e.PhotoPath)
	case NewPhoto:
		slog.Info("new photo announced", "station", e.Station.Key.String(),
			"entry", e.EntryID, "photo", e.PhotoID, "url", e.PhotoURL)
	}
	return nil
}
