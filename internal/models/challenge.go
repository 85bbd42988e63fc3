package models

// Challenge kinds supported by the backend.
const (
	ChallengeBiggestCatch   = "biggest_catch"
	ChallengeSpeciesVariety = "species_variety"
	ChallengeTotalWeight    = "total_weight"
)

// ChallengeTarget is the kind-specific threshold: a species and metric for
// biggest_catch, a count for species_variety, and so on.
type ChallengeTarget struct {
	Species string `json:"species,omitempty"`
	Metric  string `json:"metric,omitempty"`
	Count   int    `json:"count,omitempty"`
}

type Challenge struct {
	BaseRecord
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	StartDate    DateTime         `json:"startDate"`
	EndDate      DateTime         `json:"endDate"`
	Type         string           `json:"type"`
	Target       *ChallengeTarget `json:"target,omitempty"`
	Group        string           `json:"group"`
	Participants []string         `json:"participants,omitempty"`
	Completed    bool             `json:"completed"`
	Winner       string           `json:"winner,omitempty"`
	Expand       *ChallengeExpand `json:"expand,omitempty"`
}

type ChallengeExpand struct {
	Group        *FishingGroup `json:"group,omitempty"`
	Participants []User        `json:"participants,omitempty"`
	Winner       *User         `json:"winner,omitempty"`
}

// ValidChallengeType reports whether t is one of the fixed challenge kinds.
func ValidChallengeType(t string) bool {
	switch t {
	case ChallengeBiggestCatch, ChallengeSpeciesVariety, ChallengeTotalWeight:
		return true
	}
	return false
}
