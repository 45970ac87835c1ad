package discover

import "social-service/internal/models"

// Stack is the swipe traversal over a candidate set. The pool holds the undecided
// candidates with the current one at its head; history holds decided candidates, most
// recent last. It performs no I/O.
type Stack struct {
	candidates []models.Profile
	pool       []models.Profile
	history    []models.Profile
}

// NewStack starts an unfiltered traversal over candidates.
func NewStack(candidates []models.Profile) *Stack {
	s := &Stack{candidates: append([]models.Profile(nil), candidates...)}
	s.ApplyFilters(nil)
	return s
}

// ApplyFilters rebuilds the pool from the full candidate set and clears history.
// A nil predicate admits everyone.
func (s *Stack) ApplyFilters(keep func(models.Profile) bool) {
	s.pool = make([]models.Profile, 0, len(s.candidates))
	for _, c := range s.candidates {
		if keep == nil || keep(c) {
			s.pool = append(s.pool, c)
		}
	}
	s.history = nil
}

// Current is the candidate on screen, if any.
func (s *Stack) Current() (models.Profile, bool) {
	if len(s.pool) == 0 {
		return models.Profile{}, false
	}
	return s.pool[0], true
}

// Advance records a decision on the current candidate and moves to the next one.
// It returns the decided candidate, or false in the terminal state.
func (s *Stack) Advance() (models.Profile, bool) {
	current, ok := s.Current()
	if !ok {
		return models.Profile{}, false
	}
	s.history = append(s.history, current)
	s.pool = s.pool[1:]
	return current, true
}

// Rewind restores the last decided candidate as current, ahead of the one it replaces.
// With an empty history it does nothing and returns false.
func (s *Stack) Rewind() (models.Profile, bool) {
	if len(s.history) == 0 {
		return models.Profile{}, false
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.pool = append([]models.Profile{last}, s.pool...)
	return last, true
}

// Pool returns the undecided candidates, current first.
func (s *Stack) Pool() []models.Profile {
	return append([]models.Profile(nil), s.pool...)
}

// History returns decided candidates, oldest first.
func (s *Stack) History() []models.Profile {
	return append([]models.Profile(nil), s.history...)
}
