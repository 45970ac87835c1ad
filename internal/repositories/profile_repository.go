package repositories

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	"social-service/internal/docstore"
	"social-service/internal/models"
)

const usersRoot = "users"

// ProfileProvider resolves read-only user snapshots.
type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
}

// ProfileRepo reads profiles from users/{id}. It never writes.
type ProfileRepo struct {
	store docstore.Store
}

func NewProfileRepo(store docstore.Store) *ProfileRepo {
	return &ProfileRepo{store: store}
}

// GetProfile returns nil when the user has no profile or it cannot be read.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, nil
	}
	var profile models.Profile
	found, err := docstore.GetJSON(ctx, r.store, docstore.Join(usersRoot, userID), &profile)
	if err != nil {
		log.Printf("profile read failed user_id=%s: %v", userID, err)
		return nil, nil
	}
	if !found {
		return nil, nil
	}
	profile.ID = userID
	return &profile, nil
}

// ListProfiles returns every profile ordered by id.
func (r *ProfileRepo) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var all map[string]json.RawMessage
	if _, err := docstore.GetJSON(ctx, r.store, usersRoot, &all); err != nil {
		log.Printf("profile list read failed: %v", err)
		return []models.Profile{}, nil
	}

	profiles := make([]models.Profile, 0, len(all))
	for id, raw := range all {
		var profile models.Profile
		if err := json.Unmarshal(raw, &profile); err != nil {
			log.Printf("skipping malformed profile user_id=%s: %v", id, err)
			continue
		}
		profile.ID = id
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}
