package repositories

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/cenkalti/backoff/v4"

	"social-service/internal/docstore"
	"social-service/internal/observability"
)

const (
	likesRoot   = "likes"
	matchesRoot = "matches"

	maxMatchWriteAttempts = 3
)

// MatchRepository records likes and the symmetric match edges they produce.
type MatchRepository interface {
	Like(ctx context.Context, me string, target string) (bool, error)
	Dislike(ctx context.Context, me string, target string) error
	GetMatches(ctx context.Context, userID string) ([]string, error)
	RepairMatches(ctx context.Context, userID string) ([]string, error)
}

// MatchRepo stores likes at likes/{liker}/{target} and matches at matches/{uid}/{other}.
type MatchRepo struct {
	store docstore.Store
	chats ChatRepository
}

// NewMatchRepo constructs a MatchRepo.
func NewMatchRepo(store docstore.Store, chats ChatRepository) *MatchRepo {
	return &MatchRepo{store: store, chats: chats}
}

// Like records me->target and, when target already likes me, creates the match in both
// directions. It reports whether a match was created by this call; liking someone
// already matched reports false.
func (r *MatchRepo) Like(ctx context.Context, me string, target string) (bool, error) {
	if err := requirePair(me, target); err != nil {
		return false, err
	}

	ctx, span := observability.Tracer("repositories").Start(ctx, "match.like")
	defer span.End()

	likePath := docstore.Join(likesRoot, me, target)
	if err := r.store.Put(ctx, likePath, true); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	reciprocal, err := docstore.GetFlag(ctx, r.store, docstore.Join(likesRoot, target, me))
	if err != nil {
		log.Printf("reciprocal like read failed liker=%s target=%s: %v", target, me, err)
		return false, nil
	}
	if !reciprocal {
		return false, nil
	}
	if r.matched(ctx, me, target) {
		return false, nil
	}

	if err := r.ensureMatch(ctx, me, target); err != nil {
		return false, err
	}
	return true, nil
}

// matched reports whether both match edges already exist. A failed read counts as
// not matched so the edges get rewritten.
func (r *MatchRepo) matched(ctx context.Context, a, b string) bool {
	for _, edge := range [][2]string{{a, b}, {b, a}} {
		ok, err := docstore.GetFlag(ctx, r.store, docstore.Join(matchesRoot, edge[0], edge[1]))
		if err != nil {
			log.Printf("match edge read failed a=%s b=%s: %v", edge[0], edge[1], err)
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// ensureMatch writes both match edges, retrying each a bounded number of times, then
// flags the chat header. A header failure does not undo the match.
func (r *MatchRepo) ensureMatch(ctx context.Context, a, b string) error {
	for _, edge := range [][2]string{{a, b}, {b, a}} {
		path := docstore.Join(matchesRoot, edge[0], edge[1])
		write := func() error { return r.store.Put(ctx, path, true) }
		policy := backoff.WithContext(backoff.WithMaxRetries(newRetryBackOff(), maxMatchWriteAttempts-1), ctx)
		if err := backoff.Retry(write, policy); err != nil {
			return fmt.Errorf("%w: match edge %s: %v", ErrRemoteWrite, path, err)
		}
	}

	chatID, err := r.chats.GetOrCreateChat(ctx, a, b)
	if err != nil {
		log.Printf("match chat create failed a=%s b=%s: %v", a, b, err)
		return nil
	}
	if err := r.chats.MarkMatch(ctx, chatID); err != nil {
		logSwallowedWrite("match.header", docstore.Join(chatsRoot, chatID), err)
	}
	return nil
}

// Dislike removes only me->target. Existing matches and the reverse like are untouched.
func (r *MatchRepo) Dislike(ctx context.Context, me string, target string) error {
	if err := requirePair(me, target); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, docstore.Join(likesRoot, me, target)); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

// GetMatches lists the ids userID is matched with. Unreadable means none.
func (r *MatchRepo) GetMatches(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	ids, err := docstore.GetFlags(ctx, r.store, docstore.Join(matchesRoot, userID))
	if err != nil {
		log.Printf("match read failed user_id=%s: %v", userID, err)
		return []string{}, nil
	}
	sort.Strings(ids)
	return ids, nil
}

// RepairMatches finds mutual likes of userID whose match edges are missing on either
// side and writes them. It returns the ids that were repaired.
func (r *MatchRepo) RepairMatches(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}

	liked, err := docstore.GetFlags(ctx, r.store, docstore.Join(likesRoot, userID))
	if err != nil {
		log.Printf("like read failed user_id=%s: %v", userID, err)
		return []string{}, nil
	}
	sort.Strings(liked)

	repaired := make([]string, 0)
	for _, target := range liked {
		reciprocal, err := docstore.GetFlag(ctx, r.store, docstore.Join(likesRoot, target, userID))
		if err != nil || !reciprocal {
			continue
		}
		forward, errF := docstore.GetFlag(ctx, r.store, docstore.Join(matchesRoot, userID, target))
		backward, errB := docstore.GetFlag(ctx, r.store, docstore.Join(matchesRoot, target, userID))
		if errF != nil || errB != nil || (forward && backward) {
			continue
		}
		if err := r.ensureMatch(ctx, userID, target); err != nil {
			log.Printf("match repair failed user_id=%s other=%s: %v", userID, target, err)
			continue
		}
		repaired = append(repaired, target)
	}
	return repaired, nil
}

func requirePair(me, other string) error {
	if me == "" || other == "" {
		return fmt.Errorf("%w: both user ids are required", ErrInvalidArgument)
	}
	if me == other {
		return fmt.Errorf("%w: user ids must differ", ErrInvalidArgument)
	}
	return nil
}
