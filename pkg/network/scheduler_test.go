package network

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

func TestSchedulerFIFO(t *testing.T) {
	s := NewOutboundScheduler(zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := s.Enqueue(fmt.Sprintf("tag-%d", i), []byte{byte(i)}); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	for i := 0; i < 3; i++ {
		msg, ok := s.Dequeue()
		if !ok {
			t.Fatalf("Dequeue() %d empty", i)
		}
		if want := fmt.Sprintf("tag-%d", i); msg.Tag != want {
			t.Errorf("Dequeue() %d tag = %q, want %q", i, msg.Tag, want)
		}
	}
	if _, ok := s.Dequeue(); ok {
		t.Error("Dequeue() on empty queue = true")
	}
}

func TestSchedulerRequeue(t *testing.T) {
	s := NewOutboundScheduler(zerolog.Nop())

	s.Enqueue("first", nil)
	s.Enqueue("second", nil)

	msg, _ := s.Dequeue()
	s.Requeue(msg)

	msg, _ = s.Dequeue()
	if msg.Tag != "first" {
		t.Errorf("after requeue head tag = %q, want %q", msg.Tag, "first")
	}
}

func TestSchedulerRequeueAfterClose(t *testing.T) {
	s := NewOutboundScheduler(zerolog.Nop())

	msg, _ := s.Enqueue("orphan", nil)
	s.Dequeue()
	s.Close(ErrClosed)
	s.Requeue(msg)

	select {
	case err := <-msg.Done():
		if !errors.Is(err, ErrClosed) {
			t.Errorf("done error = %v, want ErrClosed", err)
		}
	default:
		t.Error("requeued message on closed scheduler was not completed")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after close, want 0", s.Len())
	}
}

func TestSchedulerFailAll(t *testing.T) {
	s := NewOutboundScheduler(zerolog.Nop())

	var msgs []*OutboundMessage
	for i := 0; i < 3; i++ {
		msg, _ := s.Enqueue(fmt.Sprintf("tag-%d", i), nil)
		msgs = append(msgs, msg)
	}

	cause := errors.New("connection lost")
	s.FailAll(cause)

	for i, msg := range msgs {
		select {
		case err := <-msg.Done():
			if !errors.Is(err, cause) {
				t.Errorf("message %d error = %v, want %v", i, err, cause)
			}
		default:
			t.Errorf("message %d not completed", i)
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after FailAll, want 0", s.Len())
	}

	// FailAll does not close the queue.
	if _, err := s.Enqueue("again", nil); err != nil {
		t.Errorf("Enqueue() after FailAll error = %v", err)
	}
}

func TestSchedulerCloseReopen(t *testing.T) {
	s := NewOutboundScheduler(zerolog.Nop())

	s.Close(ErrClosed)
	if _, err := s.Enqueue("t", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Enqueue() after Close error = %v, want ErrClosed", err)
	}

	s.Reopen()
	if _, err := s.Enqueue("t", nil); err != nil {
		t.Errorf("Enqueue() after Reopen error = %v", err)
	}
}
