package models

// FishingGroup members always include the creator; admins are a subset of
// members with the creator auto-added at creation.
type FishingGroup struct {
	BaseRecord
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	Members     []string     `json:"members"`
	Admins      []string     `json:"admins"`
	Expand      *GroupExpand `json:"expand,omitempty"`
}

type GroupExpand struct {
	Members []User `json:"members,omitempty"`
	Admins  []User `json:"admins,omitempty"`
}

func (g *FishingGroup) HasMember(userID string) bool {
	return containsID(g.Members, userID)
}

func (g *FishingGroup) HasAdmin(userID string) bool {
	return containsID(g.Admins, userID)
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
