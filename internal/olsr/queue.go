package olsr

import "time"

// ControlQueue is the FIFO of outbound structured control messages handed
// to the transport, with retry metadata and timed expiry. It transfers
// ownership of each snapshot to the transport: once popped, nothing else
// in the engine retains a reference to it.
type ControlQueue struct {
	cap   int
	items []ControlMessage
	log   *Logger
}

func newControlQueue(capacity int, log *Logger) *ControlQueue {
	return &ControlQueue{cap: capacity, log: log}
}

// Push enqueues msg, stamping CreatedAt if unset. Returns CapacityFullError
// if the queue is full; the caller (a HELLO/TC generator) should discard
// the snapshot in that case.
func (q *ControlQueue) Push(msg ControlMessage, now time.Time) error {
	if len(q.items) >= q.cap {
		if q.log != nil {
			q.log.Warning().Log("control queue full, dropping outbound message")
		}
		return &CapacityFullError{Table: "ControlQueue"}
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	q.items = append(q.items, msg)
	return nil
}

// Pop dequeues the oldest message, if any.
func (q *ControlQueue) Pop() (ControlMessage, bool) {
	if len(q.items) == 0 {
		return ControlMessage{}, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}

// Len reports the number of queued messages.
func (q *ControlQueue) Len() int {
	return len(q.items)
}

// ProcessRetry advances retry state for messages whose NextRetryAt has
// elapsed: RetryCount increments, NextRetryAt backs off exponentially
// (capped at RetryMax), and messages that exceed MaxRetryAttempts are
// dropped. Returns the number of messages left in the queue after the
// pass.
func (q *ControlQueue) ProcessRetry(now time.Time) int {
	kept := q.items[:0]
	for _, m := range q.items {
		if m.RetryCount > 0 && !now.Before(m.NextRetryAt) {
			m.RetryCount++
			if m.RetryCount > MaxRetryAttempts {
				if q.log != nil {
					q.log.Info().Int("retry_count", m.RetryCount).Log("control message exceeded retry attempts, dropping")
				}
				continue
			}
			backoff := RetryBase << uint(m.RetryCount)
			if backoff > RetryMax {
				backoff = RetryMax
			}
			m.NextRetryAt = now.Add(backoff)
		}
		kept = append(kept, m)
	}
	q.items = kept
	return len(q.items)
}

// CleanupExpired drops entries older than ControlMsgTTL, returning the
// number removed.
func (q *ControlQueue) CleanupExpired(now time.Time) int {
	kept := q.items[:0]
	removed := 0
	for _, m := range q.items {
		if now.Sub(m.CreatedAt) > ControlMsgTTL {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	q.items = kept
	return removed
}
