package eventsink

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event describes one completed search operation.
type Event struct {
	// ID uniquely identifies the event.
	ID        string
	Operation string
	Headers   map[string]string
	// Text and Types echo the query inputs.
	Text  string
	Types []string
	// Total and Took summarize the outcome.
	Total int64
	Took  int64
	Err   string
}

// Sink receives operation events. Implementations must not block the
// request path; callers fire and forget.
type Sink interface {
	Notify(ctx context.Context, ev Event)
}

// NewEvent creates an event with a fresh identifier.
func NewEvent(operation string) Event {
	return Event{ID: uuid.NewString(), Operation: operation}
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger *zap.Logger
	async  bool
}

// NewLogSink creates a logging sink. With async set, Notify returns
// immediately and logging happens on its own goroutine.
func NewLogSink(logger *zap.Logger, async bool) *LogSink {
	return &LogSink{logger: logger, async: async}
}

// Notify logs the event.
func (s *LogSink) Notify(_ context.Context, ev Event) {
	if s.async {
		go s.log(ev)
		return
	}
	s.log(ev)
}

func (s *LogSink) log(ev Event) {
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("operation", ev.Operation),
		zap.Int64("total", ev.Total),
		zap.Int64("took_ms", ev.Took),
	}
	if ev.Text != "" {
		fields = append(fields, zap.String("text", ev.Text))
	}
	if len(ev.Types) > 0 {
		fields = append(fields, zap.Strings("types", ev.Types))
	}
	if ev.Err != "" {
		fields = append(fields, zap.String("error", ev.Err))
		s.logger.Warn("search operation failed", fields...)
		return
	}
	s.logger.Info("search operation", fields...)
}

// Nop is a sink that discards every event.
type Nop struct{}

// Notify discards the event.
func (Nop) Notify(context.Context, Event) {}
