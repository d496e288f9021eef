package validation

import (
	"sync"

	"sessioncore/pkg/domain"
)

// Sequencer orders validation results by request sequence rather than by
// completion order. Callers that debounce validation after rapid edits issue
// a sequence number per request; when results resolve out of order, a stale
// result can never overwrite a fresher one.
type Sequencer struct {
	mu        sync.Mutex
	nextSeq   uint64
	latestSeq uint64
	latest    domain.ValidationResult
	hasResult bool
}

// NewSequencer constructs an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Issue reserves the next request sequence number. Sequence numbers start
// at 1 so the zero value never collides with an issued request.
func (s *Sequencer) Issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// Commit records a completed validation. It returns false and discards the
// result when a later-issued request has already committed.
func (s *Sequencer) Commit(seq uint64, result domain.ValidationResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasResult && seq <= s.latestSeq {
		return false
	}
	s.latestSeq = seq
	s.latest = result
	s.hasResult = true
	return true
}

// Latest returns the freshest committed result, if any.
func (s *Sequencer) Latest() (domain.ValidationResult, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latestSeq, s.hasResult
}
