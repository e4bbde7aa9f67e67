package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/efootball-tournament/services"
)

const DefaultDispatchBuffer = 256

// Dispatcher доставляет доменные события в комнаты всех получателей в отдельной горутине.
// Publish никогда не блокирует вызывающего.
type Dispatcher struct {
	sinks  []Broadcaster
	events chan services.Event
	logger *slog.Logger
}

var _ services.EventPublisher = (*Dispatcher)(nil)

func NewDispatcher(buffer int, logger *slog.Logger, sinks ...Broadcaster) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultDispatchBuffer
	}
	return &Dispatcher{
		sinks:  sinks,
		events: make(chan services.Event, buffer),
		logger: logger,
	}
}

// Publish drops the event with a warning when the queue is full.
func (d *Dispatcher) Publish(event services.Event) {
	if event == nil {
		return
	}
	select {
	case d.events <- event:
	default:
		d.logger.Warn("Event queue full, event dropped",
			slog.String("kind", string(event.Kind())),
			slog.String("match_id", event.MatchID().String()))
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			if err := d.deliver(event); err != nil {
				d.logger.Error("Event delivery failed",
					slog.String("kind", string(event.Kind())),
					slog.Any("error", err))
			}
		}
	}
}

func (d *Dispatcher) deliver(event services.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while delivering event: %v", r)
		}
	}()
	msg := Message{Type: string(event.Kind()), Payload: event.Payload()}
	room := MatchRoom(event.MatchID())
	for _, sink := range d.sinks {
		sink.BroadcastToRoom(LandingRoom, msg)
		sink.BroadcastToRoom(room, msg)
	}
	return nil
}
