package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kilianp07/shootplan/core/events"
	"github.com/kilianp07/shootplan/core/logger"
	"github.com/kilianp07/shootplan/internal/eventbus"
)

// Publisher sends raw payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Topic returns the topic for e under prefix:
// <prefix>/projects/<project id>/<event kind>.
func Topic(prefix string, e events.Event) string {
	return fmt.Sprintf("%s/projects/%d/%s", prefix, e.Project(), e.Kind())
}

// StartBridge forwards every event published on bus to pub as JSON. It
// stops when the bus is closed, or when ctx is canceled once the events
// already buffered have been forwarded. Wait on the returned channel to
// know when the last event has been handled.
func StartBridge(ctx context.Context, bus *eventbus.Bus[events.Event], pub Publisher, prefix string, log logger.Logger) <-chan struct{} {
	log = logger.OrNop(log)
	done := make(chan struct{})
	sub := bus.Subscribe()
	forward := func(ev events.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Errorf("encode %s event: %v", ev.Kind(), err)
			return
		}
		topic := Topic(prefix, ev)
		if err := pub.Publish(topic, payload); err != nil {
			log.Warnf("publish %s: %v", topic, err)
		}
	}
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				drain(sub, forward)
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				forward(ev)
			}
		}
	}()
	return done
}

// drain forwards the events left in sub without waiting for new ones.
func drain(sub <-chan events.Event, forward func(events.Event)) {
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			forward(ev)
		default:
			return
		}
	}
}

// Message is a payload captured by MockPublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// MockPublisher records published messages. Topics listed in Fail return
// an error.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []Message
	Fail     map[string]bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Fail: make(map[string]bool)}
}

func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail[topic] {
		return fmt.Errorf("publish to %s failed", topic)
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: payload})
	return nil
}

// Snapshot returns a copy of the recorded messages.
func (m *MockPublisher) Snapshot() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}
