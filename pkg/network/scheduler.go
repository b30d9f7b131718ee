package network

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OutboundMessage is one queued application send. Done receives exactly
// one value: nil after the frame is written, or the error that dropped
// it from the queue.
type OutboundMessage struct {
	Tag        string
	Payload    []byte
	EnqueuedAt time.Time

	done chan error
}

// Done returns the completion channel for this message.
func (m *OutboundMessage) Done() <-chan error { return m.done }

func (m *OutboundMessage) finish(err error) {
	select {
	case m.done <- err:
	default:
	}
}

// OutboundScheduler holds the FIFO of application sends. The supervisor
// drains it at the configured rate, one message per tick, only while the
// connection is Ready. Backpressure is not an error: messages simply
// wait.
type OutboundScheduler struct {
	mu     sync.Mutex
	queue  []*OutboundMessage
	closed bool
	log    zerolog.Logger
}

func NewOutboundScheduler(log zerolog.Logger) *OutboundScheduler {
	return &OutboundScheduler{log: log}
}

// Enqueue appends a message to the queue.
func (s *OutboundScheduler) Enqueue(tag string, payload []byte) (*OutboundMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	msg := &OutboundMessage{
		Tag:        tag,
		Payload:    payload,
		EnqueuedAt: time.Now(),
		done:       make(chan error, 1),
	}
	s.queue = append(s.queue, msg)
	return msg, nil
}

// Dequeue pops the oldest queued message.
func (s *OutboundScheduler) Dequeue() (*OutboundMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, true
}

// Requeue puts a message back at the head after a failed write so order
// is preserved.
func (s *OutboundScheduler) Requeue(msg *OutboundMessage) {
	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.queue = append([]*OutboundMessage{msg}, s.queue...)
	}
	s.mu.Unlock()

	if closed {
		msg.finish(ErrClosed)
	}
}

// FailAll drops every queued message with err and clears the queue.
func (s *OutboundScheduler) FailAll(err error) {
	s.mu.Lock()
	dropped := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, msg := range dropped {
		msg.finish(err)
	}
	if len(dropped) > 0 {
		s.log.Debug().Int("count", len(dropped)).Msg("dropped queued messages")
	}
}

// Close marks the scheduler closed and drops the queue. Further
// enqueues fail with ErrClosed.
func (s *OutboundScheduler) Close(err error) {
	s.mu.Lock()
	s.closed = true
	dropped := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, msg := range dropped {
		msg.finish(err)
	}
}

// Reopen allows enqueues again after a Close, for supervisors that are
// reconnected by a fresh Connect call.
func (s *OutboundScheduler) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
}

// Len returns the queue depth.
func (s *OutboundScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
