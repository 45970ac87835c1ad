package discover

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"social-service/internal/models"
)

const (
	earthRadiusKm = 6371.0

	// NoDistanceLimit is the slider maximum; at or above it distance is not checked.
	NoDistanceLimit = 200.0
)

var validate = validator.New()

// Filter holds the discover preferences. Empty text or list fields do not filter.
type Filter struct {
	Gender        string   `json:"gender" validate:"omitempty,max=32"`
	MinAge        int      `json:"minAge" validate:"gte=0,lte=150"`
	MaxAge        int      `json:"maxAge" validate:"gte=0,lte=150,gtefield=MinAge"`
	MaxDistanceKm float64  `json:"maxDistanceKm" validate:"gte=0"`
	Profession    string   `json:"profession" validate:"omitempty,max=128"`
	Education     string   `json:"education" validate:"omitempty,max=128"`
	Religion      string   `json:"religion" validate:"omitempty,max=128"`
	Orientations  []string `json:"orientations" validate:"omitempty,dive,required"`
	Interests     []string `json:"interests" validate:"omitempty,dive,required"`
	LookingFor    []string `json:"lookingFor" validate:"omitempty,dive,required"`
}

// DefaultFilter admits every adult candidate regardless of distance.
func DefaultFilter() Filter {
	return Filter{MinAge: 18, MaxAge: 99, MaxDistanceKm: NoDistanceLimit}
}

// Validate checks field bounds.
func (f Filter) Validate() error {
	return validate.Struct(f)
}

// Predicate binds the filter to the viewer.
func (f Filter) Predicate(viewer models.Profile) func(models.Profile) bool {
	return func(candidate models.Profile) bool {
		return f.Matches(viewer, candidate)
	}
}

// Matches reports whether candidate passes every preference of viewer.
func (f Filter) Matches(viewer, candidate models.Profile) bool {
	if candidate.ID == "" || candidate.ID == viewer.ID {
		return false
	}
	if g := strings.TrimSpace(f.Gender); g != "" && !strings.EqualFold(g, "any") && !strings.EqualFold(g, candidate.Gender) {
		return false
	}
	if candidate.Age < f.MinAge || candidate.Age > f.MaxAge {
		return false
	}
	if !f.withinDistance(viewer, candidate) {
		return false
	}
	if !containsFold(candidate.Profession, f.Profession) ||
		!containsFold(candidate.Education, f.Education) ||
		!containsFold(candidate.Religion, f.Religion) {
		return false
	}
	if !anyEqualFold(f.Orientations, candidate.Orientation) ||
		!anyEqualFold(f.LookingFor, candidate.LookingFor) ||
		!anyEqualFold(f.Interests, candidate.Interests...) {
		return false
	}
	return true
}

func (f Filter) withinDistance(viewer, candidate models.Profile) bool {
	if f.MaxDistanceKm >= NoDistanceLimit {
		return true
	}
	// unknown location is never excluded
	if !viewer.HasLocation() || !candidate.HasLocation() {
		return true
	}
	return DistanceKm(viewer.Latitude, viewer.Longitude, candidate.Latitude, candidate.Longitude) <= f.MaxDistanceKm
}

// DistanceKm is the haversine great-circle distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func containsFold(value, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(query))
}

// anyEqualFold is true when nothing is selected or any selected value equals any of values.
func anyEqualFold(selected []string, values ...string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, want := range selected {
		for _, have := range values {
			if have != "" && strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(have)) {
				return true
			}
		}
	}
	return false
}
