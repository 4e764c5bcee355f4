package api

import "sync/atomic"

// Sequencer hands out monotonically increasing sequence numbers for
// in-flight fetches and records which one was committed last. Responses are
// applied in completion order, so without this guard a slow, stale fetch
// could overwrite the result of a newer one.
type Sequencer struct {
	next      atomic.Uint64
	committed atomic.Uint64
}

// Begin reserves the next sequence number. Call it when the request is
// issued, not when the response arrives.
func (s *Sequencer) Begin() uint64 {
	return s.next.Add(1)
}

// Commit records seq as applied and reports whether the caller should use
// the response. It returns false when a later sequence has already been
// committed; the response is stale and must be dropped.
func (s *Sequencer) Commit(seq uint64) bool {
	for {
		current := s.committed.Load()
		if seq <= current {
			return false
		}
		if s.committed.CompareAndSwap(current, seq) {
			return true
		}
	}
}
