package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fishlogapp/fishlog-go/internal/models"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

type EventService struct {
	client  *recordstore.Client
	session AuthSession
}

func NewEventService(client *recordstore.Client, session AuthSession) *EventService {
	return &EventService{client: client, session: session}
}

// EventInput carries the fields a caller controls; creator is injected from
// the session.
type EventInput struct {
	Title        string
	Description  string
	Date         time.Time
	Location     string
	Group        string
	Participants []string
}

func (s *EventService) List(ctx context.Context, opts ListOptions) (*List[models.Event], error) {
	opts = opts.withDefaults("-created", "group,participants,creator")
	res, err := s.client.List(ctx, CollectionEvents, 1, defaultPerPage, opts.storeOptions())
	if err != nil {
		return nil, Normalize("Failed to fetch events", err)
	}
	list, err := decodeList[models.Event](res)
	if err != nil {
		return nil, Normalize("Failed to fetch events", err)
	}
	return list, nil
}

func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	raw, err := s.client.GetOne(ctx, CollectionEvents, id, "group,participants,creator")
	if err != nil {
		return nil, Normalize("Failed to fetch events", err)
	}
	rec, err := decodeRecord[models.Event](raw)
	if err != nil {
		return nil, Normalize("Failed to fetch events", err)
	}
	return rec, nil
}

func (s *EventService) Create(ctx context.Context, in EventInput) (*models.Event, error) {
	userID := s.session.CurrentUserID()
	if userID == "" {
		return nil, &Error{Message: "Failed to create events: user must be authenticated", Err: ErrNotAuthenticated}
	}
	if in.Title == "" {
		return nil, validationError("Failed to create events", "title", "title is required")
	}

	p := recordstore.NewPayload().
		Set("title", in.Title).
		Set("date", in.Date.UTC().Format(time.RFC3339)).
		Set("location", in.Location).
		Set("group", in.Group).
		Set("creator", userID)
	if in.Description != "" {
		p.Set("description", in.Description)
	}
	if len(in.Participants) > 0 {
		encoded, _ := json.Marshal(in.Participants)
		p.Set("participants", string(encoded))
	}

	raw, err := s.client.Create(ctx, CollectionEvents, p)
	if err != nil {
		return nil, Normalize("Failed to create events", err)
	}
	rec, err := decodeRecord[models.Event](raw)
	if err != nil {
		return nil, Normalize("Failed to create events", err)
	}
	return rec, nil
}

func (s *EventService) Update(ctx context.Context, id string, p *recordstore.Payload) (*models.Event, error) {
	raw, err := s.client.Update(ctx, CollectionEvents, id, p.Clone())
	if err != nil {
		return nil, Normalize("Failed to update events", err)
	}
	rec, err := decodeRecord[models.Event](raw)
	if err != nil {
		return nil, Normalize("Failed to update events", err)
	}
	return rec, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, CollectionEvents, id); err != nil {
		return Normalize("Failed to delete events", err)
	}
	return nil
}

func (s *EventService) CancelRequest(key string) {
	s.client.CancelRequest(key)
}
