package models

// Profile is the read-only user snapshot at users/{id}. Coordinates of (0,0) mean the
// location is unknown.
type Profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PhotoURL    string   `json:"photoUrl,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Age         int      `json:"age,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
	Profession  string   `json:"profession,omitempty"`
	Education   string   `json:"education,omitempty"`
	Religion    string   `json:"religion,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	LookingFor  string   `json:"lookingFor,omitempty"`
}

// HasLocation reports whether the profile carries a known position.
func (p Profile) HasLocation() bool {
	return p.Latitude != 0 || p.Longitude != 0
}
