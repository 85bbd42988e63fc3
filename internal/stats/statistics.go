// Package stats computes read-only aggregates over already-fetched catches.
// Nothing here performs network I/O; callers supply the scoped list.
package stats

import (
	"time"

	"github.com/fishlogapp/fishlog-go/internal/models"
)

// CatchHighlight identifies the standout catch for one metric.
type CatchHighlight struct {
	Weight  float64
	Length  float64
	Species string
	Date    time.Time
}

type UserStatistics struct {
	TotalCatches int
	// Locations counts distinct places, compared by name.
	Locations    int
	BiggestCatch CatchHighlight
	LongestCatch CatchHighlight
}

// ComputeUserStatistics aggregates a user's catches. An empty input yields
// zeroed highlights with species "N/A"; ties keep the first occurrence.
func ComputeUserStatistics(catches []models.Catch) UserStatistics {
	if len(catches) == 0 {
		placeholder := CatchHighlight{Species: "N/A", Date: time.Now()}
		return UserStatistics{BiggestCatch: placeholder, LongestCatch: placeholder}
	}

	locations := make(map[string]struct{})
	biggest := catches[0]
	longest := catches[0]
	for _, c := range catches {
		locations[c.Location.Name] = struct{}{}
		if c.Weight > biggest.Weight {
			biggest = c
		}
		if c.Length > longest.Length {
			longest = c
		}
	}

	return UserStatistics{
		TotalCatches: len(catches),
		Locations:    len(locations),
		BiggestCatch: CatchHighlight{
			Weight:  biggest.Weight,
			Species: biggest.Species,
			Date:    biggest.Date.Time,
		},
		LongestCatch: CatchHighlight{
			Length:  longest.Length,
			Species: longest.Species,
			Date:    longest.Date.Time,
		},
	}
}

// MemberStatistics accumulates one group member's numbers.
type MemberStatistics struct {
	TotalCatches int
	BiggestCatch float64
	LongestCatch float64
	// Distinct values in first-seen order.
	Locations []string
	Species   []string
}

// ComputeGroupStatistics groups catches by owner id. The caller supplies a
// list already scoped to the group.
func ComputeGroupStatistics(catches []models.Catch) map[string]*MemberStatistics {
	members := make(map[string]*MemberStatistics)
	seenLocations := make(map[string]map[string]struct{})
	seenSpecies := make(map[string]map[string]struct{})

	for _, c := range catches {
		m := members[c.User]
		if m == nil {
			m = &MemberStatistics{}
			members[c.User] = m
			seenLocations[c.User] = make(map[string]struct{})
			seenSpecies[c.User] = make(map[string]struct{})
		}

		m.TotalCatches++
		if c.Weight > m.BiggestCatch {
			m.BiggestCatch = c.Weight
		}
		if c.Length > m.LongestCatch {
			m.LongestCatch = c.Length
		}
		if _, ok := seenLocations[c.User][c.Location.Name]; !ok {
			seenLocations[c.User][c.Location.Name] = struct{}{}
			m.Locations = append(m.Locations, c.Location.Name)
		}
		if _, ok := seenSpecies[c.User][c.Species]; !ok {
			seenSpecies[c.User][c.Species] = struct{}{}
			m.Species = append(m.Species, c.Species)
		}
	}

	return members
}
