package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fishlogapp/fishlog-go/internal/models"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

type ChallengeService struct {
	client  *recordstore.Client
	session AuthSession
}

func NewChallengeService(client *recordstore.Client, session AuthSession) *ChallengeService {
	return &ChallengeService{client: client, session: session}
}

// ChallengeInput carries the fields a caller controls. End before start is
// accepted client-side; the backend owns that constraint.
type ChallengeInput struct {
	Title        string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	Type         string
	Target       *models.ChallengeTarget
	Group        string
	Participants []string
}

func (s *ChallengeService) List(ctx context.Context, opts ListOptions) (*List[models.Challenge], error) {
	opts = opts.withDefaults("-created", "group,participants,winner")
	res, err := s.client.List(ctx, CollectionChallenges, 1, defaultPerPage, opts.storeOptions())
	if err != nil {
		return nil, Normalize("Failed to fetch challenges", err)
	}
	list, err := decodeList[models.Challenge](res)
	if err != nil {
		return nil, Normalize("Failed to fetch challenges", err)
	}
	return list, nil
}

func (s *ChallengeService) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	raw, err := s.client.GetOne(ctx, CollectionChallenges, id, "group,participants,winner")
	if err != nil {
		return nil, Normalize("Failed to fetch challenges", err)
	}
	rec, err := decodeRecord[models.Challenge](raw)
	if err != nil {
		return nil, Normalize("Failed to fetch challenges", err)
	}
	return rec, nil
}

func (s *ChallengeService) Create(ctx context.Context, in ChallengeInput) (*models.Challenge, error) {
	userID := s.session.CurrentUserID()
	if userID == "" {
		return nil, &Error{Message: "Failed to create challenges: user must be authenticated", Err: ErrNotAuthenticated}
	}
	if in.Title == "" {
		return nil, validationError("Failed to create challenges", "title", "title is required")
	}
	if !models.ValidChallengeType(in.Type) {
		return nil, validationError("Failed to create challenges", "type", "unknown challenge type")
	}

	p := recordstore.NewPayload().
		Set("title", in.Title).
		Set("startDate", in.StartDate.UTC().Format(time.RFC3339)).
		Set("endDate", in.EndDate.UTC().Format(time.RFC3339)).
		Set("type", in.Type).
		Set("group", in.Group).
		Set("completed", "false")
	if in.Description != "" {
		p.Set("description", in.Description)
	}
	if in.Target != nil {
		encoded, _ := json.Marshal(in.Target)
		p.Set("target", string(encoded))
	}
	if len(in.Participants) > 0 {
		encoded, _ := json.Marshal(in.Participants)
		p.Set("participants", string(encoded))
	}

	raw, err := s.client.Create(ctx, CollectionChallenges, p)
	if err != nil {
		return nil, Normalize("Failed to create challenges", err)
	}
	rec, err := decodeRecord[models.Challenge](raw)
	if err != nil {
		return nil, Normalize("Failed to create challenges", err)
	}
	return rec, nil
}

func (s *ChallengeService) Update(ctx context.Context, id string, p *recordstore.Payload) (*models.Challenge, error) {
	raw, err := s.client.Update(ctx, CollectionChallenges, id, p.Clone())
	if err != nil {
		return nil, Normalize("Failed to update challenges", err)
	}
	rec, err := decodeRecord[models.Challenge](raw)
	if err != nil {
		return nil, Normalize("Failed to update challenges", err)
	}
	return rec, nil
}

// Complete marks a challenge finished, optionally recording the winner.
func (s *ChallengeService) Complete(ctx context.Context, id, winnerID string) (*models.Challenge, error) {
	p := recordstore.NewPayload().Set("completed", "true")
	if winnerID != "" {
		p.Set("winner", winnerID)
	}
	return s.Update(ctx, id, p)
}

func (s *ChallengeService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, CollectionChallenges, id); err != nil {
		return Normalize("Failed to delete challenges", err)
	}
	return nil
}

func (s *ChallengeService) CancelRequest(key string) {
	s.client.CancelRequest(key)
}
