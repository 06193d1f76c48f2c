package notification

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"studiomarket/internal/pkg/logger"
)

// Sink delivers an event through one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

// Notifier is what business services depend on.
type Notifier interface {
	Notify(ctx context.Context, events ...Event)
}

// Dispatcher fans events out to every sink in the background. Delivery
// failures are logged and never reach the caller.
type Dispatcher struct {
	sinks   []Sink
	log     *logrus.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log *logrus.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		log:     logger.OrDiscard(log),
		timeout: 5 * time.Second,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, events ...Event) {
	base := context.WithoutCancel(ctx)
	for _, e := range events {
		if e.UserID == 0 {
			continue
		}
		for _, sink := range d.sinks {
			d.wg.Add(1)
			go d.deliver(base, sink, e)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, e Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{"sink": sink.Name(), "type": e.Type, "panic": r}).Error("notification sink panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := sink.Send(ctx, e); err != nil {
		d.log.WithFields(logrus.Fields{
			"sink":     sink.Name(),
			"type":     e.Type,
			"user_id":  e.UserID,
			"event_id": e.ID,
		}).WithError(err).Warn("notification delivery failed")
	}
}

// Wait blocks until in-flight deliveries finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, ...Event) {}
