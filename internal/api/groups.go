package api

import (
	"context"
	"encoding/json"

	"github.com/fishlogapp/fishlog-go/internal/models"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

type GroupService struct {
	client  *recordstore.Client
	session AuthSession
}

func NewGroupService(client *recordstore.Client, session AuthSession) *GroupService {
	return &GroupService{client: client, session: session}
}

func (s *GroupService) List(ctx context.Context, opts ListOptions) (*List[models.FishingGroup], error) {
	opts = opts.withDefaults("-created", "members,admins")
	res, err := s.client.List(ctx, CollectionGroups, 1, defaultPerPage, opts.storeOptions())
	if err != nil {
		return nil, Normalize("Failed to fetch fishing_groups", err)
	}
	list, err := decodeList[models.FishingGroup](res)
	if err != nil {
		return nil, Normalize("Failed to fetch fishing_groups", err)
	}
	return list, nil
}

func (s *GroupService) GetByID(ctx context.Context, id string) (*models.FishingGroup, error) {
	raw, err := s.client.GetOne(ctx, CollectionGroups, id, "members,admins")
	if err != nil {
		return nil, Normalize("Failed to fetch fishing_groups", err)
	}
	rec, err := decodeRecord[models.FishingGroup](raw)
	if err != nil {
		return nil, Normalize("Failed to fetch fishing_groups", err)
	}
	return rec, nil
}

// Create stores a new group. The creator is seeded into both members and
// admins exactly once when the payload does not already carry those
// relations.
func (s *GroupService) Create(ctx context.Context, p *recordstore.Payload) (*models.FishingGroup, error) {
	userID := s.session.CurrentUserID()
	if userID == "" {
		return nil, &Error{Message: "Failed to create fishing_groups: user must be authenticated", Err: ErrNotAuthenticated}
	}

	shaped := p.Clone()
	seedRelation(shaped, "members", userID)
	seedRelation(shaped, "admins", userID)

	raw, err := s.client.Create(ctx, CollectionGroups, shaped)
	if err != nil {
		return nil, Normalize("Failed to create fishing_groups", err)
	}
	rec, err := decodeRecord[models.FishingGroup](raw)
	if err != nil {
		return nil, Normalize("Failed to create fishing_groups", err)
	}
	return rec, nil
}

func (s *GroupService) Update(ctx context.Context, id string, p *recordstore.Payload) (*models.FishingGroup, error) {
	raw, err := s.client.Update(ctx, CollectionGroups, id, p.Clone())
	if err != nil {
		return nil, Normalize("Failed to update fishing_groups", err)
	}
	rec, err := decodeRecord[models.FishingGroup](raw)
	if err != nil {
		return nil, Normalize("Failed to update fishing_groups", err)
	}
	return rec, nil
}

func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, CollectionGroups, id); err != nil {
		return Normalize("Failed to delete fishing_groups", err)
	}
	return nil
}

// IsMember reports whether userID belongs to the group. Lookup failures are
// reported as non-membership.
func (s *GroupService) IsMember(ctx context.Context, groupID, userID string) bool {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return false
	}
	return group.HasMember(userID)
}

// IsAdmin reports whether userID administers the group.
func (s *GroupService) IsAdmin(ctx context.Context, groupID, userID string) bool {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return false
	}
	return group.HasAdmin(userID)
}

func (s *GroupService) CancelRequest(key string) {
	s.client.CancelRequest(key)
}

// seedRelation ensures the relation under key contains userID, preserving
// ids the payload already carries.
func seedRelation(p *recordstore.Payload, key, userID string) {
	ids := []string{}
	if value, ok := p.Get(key); ok && value != "" {
		if err := json.Unmarshal([]byte(value), &ids); err != nil {
			ids = []string{value}
		}
	}
	for _, id := range ids {
		if id == userID {
			return
		}
	}
	ids = append(ids, userID)
	encoded, _ := json.Marshal(ids)
	p.Set(key, string(encoded))
}
