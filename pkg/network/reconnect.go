package network

import (
	"context"
	"math/rand"
	"time"
)

// backoffDelay computes the reconnect delay for the given attempt:
// min(base * 2^(attempt-1), cap) plus a uniform random jitter in
// [0, jitterMax).
func backoffDelay(base, max, jitterMax time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max || delay <= 0 {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}

	if jitterMax > 0 {
		delay += time.Duration(rand.Int63n(int64(jitterMax)))
	}
	return delay
}

// scheduleReconnect arms the backoff timer for the next attempt, or
// emits the terminal connection_failed event once the attempt budget is
// exhausted. Reconnection then stops until the caller invokes Connect
// again.
func (s *Supervisor) scheduleReconnect(attempt int, cause error) {
	s.mu.Lock()
	endpoint := s.endpoint
	if attempt >= s.cfg.MaxAttempts {
		s.mu.Unlock()
		s.log.Error().Int("attempts", attempt).Str("endpoint", endpoint).Msg("reconnect budget exhausted")
		s.bus.publish(Event{
			Type:     EventConnectionFailed,
			Endpoint: endpoint,
			Attempt:  attempt,
			Err:      cause,
		})
		return
	}

	if s.state != StateDisconnected || !s.reconnect || s.reconnectTimer != nil {
		s.mu.Unlock()
		return
	}

	delay := backoffDelay(s.cfg.BackoffBase, s.cfg.BackoffCap, s.cfg.JitterMax, attempt)
	s.log.Info().Dur("delay", delay).Int("attempt", attempt).Msg("reconnect scheduled")
	s.reconnectTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.reconnectTimer = nil
		// Disconnect can land between the timer firing and this callback
		// taking the lock; the flag, not the timer, is authoritative.
		if !s.reconnect {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		if err := s.Connect(context.Background()); err != nil {
			s.log.Warn().Err(err).Msg("reconnect attempt failed")
		}
	})
	s.mu.Unlock()
}
