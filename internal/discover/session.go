package discover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

var ErrNoCandidate = errors.New("no candidate to decide on")

// Decision is the outcome of a like or dislike.
type Decision struct {
	Candidate models.Profile  `json:"candidate"`
	Matched   bool            `json:"matched"`
	Next      *models.Profile `json:"next,omitempty"`
}

// Session binds one viewer's stack to the match protocol.
type Session struct {
	mu      sync.Mutex
	viewer  models.Profile
	filter  Filter
	stack   *Stack
	matches repositories.MatchRepository
}

// NewSession starts a traversal over candidates with the default filter applied.
func NewSession(viewer models.Profile, candidates []models.Profile, matches repositories.MatchRepository) *Session {
	s := &Session{viewer: viewer, filter: DefaultFilter(), stack: NewStack(candidates), matches: matches}
	s.stack.ApplyFilters(s.filter.Predicate(viewer))
	return s
}

// ApplyFilters validates and applies a new filter; history is cleared.
func (s *Session) ApplyFilters(filter Filter) error {
	if err := filter.Validate(); err != nil {
		return fmt.Errorf("%w: %v", repositories.ErrInvalidArgument, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	s.stack.ApplyFilters(filter.Predicate(s.viewer))
	return nil
}

// reload swaps in a fresh candidate pool under the current filter.
func (s *Session) reload(viewer models.Profile, candidates []models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer = viewer
	s.stack = NewStack(candidates)
	s.stack.ApplyFilters(s.filter.Predicate(viewer))
}

func (s *Session) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Session) Current() (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Current()
}

// Remaining counts the candidates left in the pool, current included.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack.Pool())
}

// Like records a like on the current candidate and advances. A failed like leaves the
// candidate current.
func (s *Session) Like(ctx context.Context) (Decision, error) {
	return s.decide(ctx, func(target string) (bool, error) {
		return s.matches.Like(ctx, s.viewer.ID, target)
	})
}

// Dislike removes any like on the current candidate and advances.
func (s *Session) Dislike(ctx context.Context) (Decision, error) {
	return s.decide(ctx, func(target string) (bool, error) {
		return false, s.matches.Dislike(ctx, s.viewer.ID, target)
	})
}

func (s *Session) decide(ctx context.Context, record func(target string) (bool, error)) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.stack.Current()
	if !ok {
		return Decision{}, ErrNoCandidate
	}
	matched, err := record(current.ID)
	if err != nil {
		return Decision{}, err
	}
	s.stack.Advance()

	decision := Decision{Candidate: current, Matched: matched}
	if next, ok := s.stack.Current(); ok {
		decision.Next = &next
	}
	return decision, nil
}

// Rewind brings back the previous candidate. Likes already written are kept.
func (s *Session) Rewind() (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Rewind()
}

// Registry keeps one in-memory session per viewer.
type Registry struct {
	profiles repositories.ProfileProvider
	matches  repositories.MatchRepository

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(profiles repositories.ProfileProvider, matches repositories.MatchRepository) *Registry {
	return &Registry{profiles: profiles, matches: matches, sessions: make(map[string]*Session)}
}

// Session returns the viewer's session, loading the candidate pool on first use.
func (r *Registry) Session(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", repositories.ErrInvalidArgument)
	}

	r.mu.Lock()
	s, ok := r.sessions[userID]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	viewer, candidates, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// a concurrent request may have started the session while we were loading
	if s, ok := r.sessions[userID]; ok {
		return s, nil
	}
	s = NewSession(viewer, candidates, r.matches)
	r.sessions[userID] = s
	log.Printf("discover session started user_id=%s candidates=%d", userID, len(candidates))
	return s, nil
}

// Refresh reloads the viewer's profile and the candidate pool. An existing session
// keeps its filter; history is cleared.
func (r *Registry) Refresh(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", repositories.ErrInvalidArgument)
	}

	viewer, candidates, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.reload(viewer, candidates)
		log.Printf("discover session refreshed user_id=%s candidates=%d", userID, len(candidates))
		return s, nil
	}
	s := NewSession(viewer, candidates, r.matches)
	r.sessions[userID] = s
	log.Printf("discover session started user_id=%s candidates=%d", userID, len(candidates))
	return s, nil
}

func (r *Registry) load(ctx context.Context, userID string) (models.Profile, []models.Profile, error) {
	viewer, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, nil, err
	}
	if viewer == nil {
		viewer = &models.Profile{ID: userID}
	}
	candidates, err := r.profiles.ListProfiles(ctx)
	if err != nil {
		return models.Profile{}, nil, err
	}
	return *viewer, candidates, nil
}

// Reset drops the viewer's session so the next call reloads candidates.
func (r *Registry) Reset(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}
