package repositories

import (
	"context"
	"fmt"
	"log"
	"sort"

	"social-service/internal/docstore"
	"social-service/internal/observability"
)

const (
	friendsRoot        = "friends"
	friendRequestsRoot = "friendRequests"
)

// FriendRepository implements the friend request/accept/reject protocol.
type FriendRepository interface {
	CreateRequest(ctx context.Context, from string, to string) error
	HasIncomingRequest(ctx context.Context, me string, other string) (bool, error)
	HasOutgoingRequest(ctx context.Context, me string, other string) (bool, error)
	IncomingRequests(ctx context.Context, me string) ([]string, error)
	AcceptFriendship(ctx context.Context, me string, other string) error
	RejectRequest(ctx context.Context, me string, other string) error
	AreFriends(ctx context.Context, userID string, otherID string) (bool, error)
	GetFriends(ctx context.Context, userID string) ([]string, error)
}

// FriendRepo keeps friendships at friends/{uid}/{other} and pending requests at
// friendRequests/{target}/{from}.
type FriendRepo struct {
	store docstore.Store
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(store docstore.Store) *FriendRepo {
	return &FriendRepo{store: store}
}

// CreateRequest records a pending request from -> to. Requesting yourself is a no-op.
func (r *FriendRepo) CreateRequest(ctx context.Context, from string, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: both user ids are required", ErrInvalidArgument)
	}
	if from == to {
		return nil
	}
	if err := r.store.Put(ctx, requestPath(to, from), true); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

// HasIncomingRequest reports whether other asked me.
func (r *FriendRepo) HasIncomingRequest(ctx context.Context, me string, other string) (bool, error) {
	return r.readEdge(ctx, me, other, requestPath(me, other))
}

// HasOutgoingRequest reports whether I asked other.
func (r *FriendRepo) HasOutgoingRequest(ctx context.Context, me string, other string) (bool, error) {
	return r.readEdge(ctx, me, other, requestPath(other, me))
}

// IncomingRequests lists everyone with a pending request to me.
func (r *FriendRepo) IncomingRequests(ctx context.Context, me string) ([]string, error) {
	return r.readSet(ctx, me, docstore.Join(friendRequestsRoot, me))
}

// AcceptFriendship writes both friend edges, then removes the pending request in either
// orientation. Deleting an absent request is harmless.
func (r *FriendRepo) AcceptFriendship(ctx context.Context, me string, other string) error {
	if err := requirePair(me, other); err != nil {
		return err
	}

	ctx, span := observability.Tracer("repositories").Start(ctx, "friend.accept")
	defer span.End()

	for _, path := range []string{friendPath(me, other), friendPath(other, me)} {
		if err := r.store.Put(ctx, path, true); err != nil {
			return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
		}
	}
	for _, path := range []string{requestPath(me, other), requestPath(other, me)} {
		if err := r.store.Delete(ctx, path); err != nil {
			logSwallowedWrite("friend.request_cleanup", path, err)
		}
	}
	return nil
}

// RejectRequest deletes only the request addressed to me.
func (r *FriendRepo) RejectRequest(ctx context.Context, me string, other string) error {
	if err := requirePair(me, other); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, requestPath(me, other)); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

func (r *FriendRepo) AreFriends(ctx context.Context, userID string, otherID string) (bool, error) {
	return r.readEdge(ctx, userID, otherID, friendPath(userID, otherID))
}

func (r *FriendRepo) GetFriends(ctx context.Context, userID string) ([]string, error) {
	return r.readSet(ctx, userID, docstore.Join(friendsRoot, userID))
}

// readEdge rejects a missing endpoint, which Join would otherwise collapse into a read
// of the whole set.
func (r *FriendRepo) readEdge(ctx context.Context, a, b, path string) (bool, error) {
	if a == "" || b == "" {
		return false, fmt.Errorf("%w: both user ids are required", ErrInvalidArgument)
	}
	ok, err := docstore.GetFlag(ctx, r.store, path)
	if err != nil {
		log.Printf("friend edge read failed path=%s: %v", path, err)
		return false, nil
	}
	return ok, nil
}

func (r *FriendRepo) readSet(ctx context.Context, userID, path string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	ids, err := docstore.GetFlags(ctx, r.store, path)
	if err != nil {
		log.Printf("friend set read failed path=%s: %v", path, err)
		return []string{}, nil
	}
	sort.Strings(ids)
	return ids, nil
}

func friendPath(userID, otherID string) string {
	return docstore.Join(friendsRoot, userID, otherID)
}

func requestPath(target, from string) string {
	return docstore.Join(friendRequestsRoot, target, from)
}
