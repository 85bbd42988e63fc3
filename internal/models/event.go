package models

type Event struct {
	BaseRecord
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Date         DateTime     `json:"date"`
	Location     string       `json:"location"`
	Group        string       `json:"group"`
	Participants []string     `json:"participants,omitempty"`
	Creator      string       `json:"creator"`
	Expand       *EventExpand `json:"expand,omitempty"`
}

type EventExpand struct {
	Group        *FishingGroup `json:"group,omitempty"`
	Participants []User        `json:"participants,omitempty"`
	Creator      *User         `json:"creator,omitempty"`
}
