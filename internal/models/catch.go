package models

import "encoding/json"

// Location is either a plain place name or a structured place with
// coordinates; the store accepts both shapes in the same field. Two locations
// are the same place when their names match.
type Location struct {
	Name        string       `json:"name"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		l.Name = name
		l.Coordinates = nil
		return nil
	}
	type location Location
	var structured location
	if err := json.Unmarshal(data, &structured); err != nil {
		return err
	}
	*l = Location(structured)
	return nil
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l.Coordinates == nil {
		return json.Marshal(l.Name)
	}
	type location Location
	return json.Marshal(location(l))
}

type Catch struct {
	BaseRecord
	Species           string       `json:"species"`
	Weight            float64      `json:"weight"`
	WeightOz          int          `json:"weight_oz"`
	Length            float64      `json:"length"`
	Location          Location     `json:"location"`
	Date              DateTime     `json:"date"`
	Photos            []string     `json:"photos"`
	FeaturePhotoIndex int          `json:"featurePhotoIndex"`
	User              string       `json:"user"`
	SharedWithGroups  []string     `json:"sharedWithGroups,omitempty"`
	Notes             string       `json:"notes,omitempty"`
	Expand            *CatchExpand `json:"expand,omitempty"`
}

type CatchExpand struct {
	User             *User          `json:"user,omitempty"`
	SharedWithGroups []FishingGroup `json:"sharedWithGroups,omitempty"`
}

// FeaturePhoto returns the filename of the catch's representative photo,
// falling back to the first photo when the stored index is out of range.
func (c *Catch) FeaturePhoto() (string, bool) {
	if len(c.Photos) == 0 {
		return "", false
	}
	if c.FeaturePhotoIndex < 0 || c.FeaturePhotoIndex >= len(c.Photos) {
		return c.Photos[0], true
	}
	return c.Photos[c.FeaturePhotoIndex], true
}
