package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return s.err
}

func (s *recordingSink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.got...)
}

type panickingSink struct{}

func (panickingSink) Name() string { return "panics" }
func (panickingSink) Send(context.Context, Event) error { panic("boom") }

func TestDispatcherFansOutToAllSinks(t *testing.T) {
	ok := &recordingSink{name: "ok"}
	failing := &recordingSink{name: "failing", err: errors.New("broker down")}
	d := NewDispatcher(nil, ok, failing, panickingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx,
		NewEvent(TypeBookingCreated, 1, "New booking", "").ForBooking(10),
		NewEvent(TypeBookingCreated, 2, "New booking", "").ForBooking(10),
	)
	cancel()
	d.Wait()

	assert.Len(t, ok.events(), 2)
	assert.Len(t, failing.events(), 2)
}

func TestDispatcherSkipsUnaddressedEvents(t *testing.T) {
	sink := &recordingSink{name: "ok"}
	d := NewDispatcher(nil, sink)

	d.Notify(context.Background(), NewEvent(TypeBookingExpired, 0, "Expired", ""))
	d.Wait()

	assert.Empty(t, sink.events())
}

func TestEventWithCopiesData(t *testing.T) {
	base := NewEvent(TypeBookingCancelled, 1, "Cancelled", "").With("refund", "960")
	derived := base.With("penalty", "500")

	assert.Len(t, base.Data, 1)
	assert.Len(t, derived.Data, 2)
}
