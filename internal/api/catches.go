package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/fishlogapp/fishlog-go/internal/models"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

type CatchService struct {
	client  *recordstore.Client
	session AuthSession
}

func NewCatchService(client *recordstore.Client, session AuthSession) *CatchService {
	return &CatchService{client: client, session: session}
}

func (s *CatchService) List(ctx context.Context, opts ListOptions) (*List[models.Catch], error) {
	opts = opts.withDefaults("-created", "user,sharedWithGroups")
	res, err := s.client.List(ctx, CollectionCatches, 1, defaultPerPage, opts.storeOptions())
	if err != nil {
		return nil, Normalize("Failed to fetch catches", err)
	}
	list, err := decodeList[models.Catch](res)
	if err != nil {
		return nil, Normalize("Failed to fetch catches", err)
	}
	return list, nil
}

// Create stores a new catch. The payload carries the form fields plus photo
// blobs; the current user is injected as owner, the shared-groups relation is
// re-encoded, and the feature photo index defaults to the first photo.
func (s *CatchService) Create(ctx context.Context, p *recordstore.Payload) (*models.Catch, error) {
	userID := s.session.CurrentUserID()
	if userID == "" {
		return nil, &Error{Message: "Failed to create catch: user must be authenticated", Err: ErrNotAuthenticated}
	}

	shaped := p.Clone()
	shaped.Set("user", userID)

	if err := requirePhotos(shaped, "Failed to create catch"); err != nil {
		return nil, err
	}
	shapeSharedGroups(shaped)

	if !shaped.Has("featurePhotoIndex") {
		shaped.Set("featurePhotoIndex", "0")
	}

	raw, err := s.client.Create(ctx, CollectionCatches, shaped)
	if err != nil {
		return nil, Normalize("Failed to create catch", err)
	}
	rec, err := decodeRecord[models.Catch](raw)
	if err != nil {
		return nil, Normalize("Failed to create catch", err)
	}
	return rec, nil
}

// Update replaces catch fields. The owner is immutable after creation and is
// never re-injected here.
func (s *CatchService) Update(ctx context.Context, id string, p *recordstore.Payload) (*models.Catch, error) {
	shaped := p.Clone()

	if err := requirePhotos(shaped, "Failed to update catch"); err != nil {
		return nil, err
	}
	shapeSharedGroups(shaped)

	raw, err := s.client.Update(ctx, CollectionCatches, id, shaped)
	if err != nil {
		return nil, Normalize("Failed to update catch", err)
	}
	rec, err := decodeRecord[models.Catch](raw)
	if err != nil {
		return nil, Normalize("Failed to update catch", err)
	}
	return rec, nil
}

func (s *CatchService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, CollectionCatches, id); err != nil {
		return Normalize("Failed to delete catch", err)
	}
	return nil
}

// CancelRequest aborts a pending list request registered under key.
func (s *CatchService) CancelRequest(key string) {
	s.client.CancelRequest(key)
}

// requirePhotos rejects a payload with neither new photo blobs nor kept
// references before any network call happens. The form layer checks this too;
// both layers enforce it.
func requirePhotos(p *recordstore.Payload, message string) *Error {
	files, refs := p.FileCount("photos")
	if files+refs == 0 {
		return validationError(message, "photos", "at least one photo is required")
	}
	return nil
}

// shapeSharedGroups re-encodes the sharedWithGroups scalar as a JSON id array
// and silently drops the field when it is empty or not a valid array.
func shapeSharedGroups(p *recordstore.Payload) {
	value, ok := p.Get("sharedWithGroups")
	if !ok {
		return
	}
	if value == "" {
		p.Delete("sharedWithGroups")
		return
	}
	var groups []string
	if err := json.Unmarshal([]byte(value), &groups); err != nil {
		log.Printf("dropping malformed sharedWithGroups field: %v", err)
		p.Delete("sharedWithGroups")
		return
	}
	if len(groups) == 0 {
		p.Delete("sharedWithGroups")
		return
	}
	encoded, err := json.Marshal(groups)
	if err != nil {
		p.Delete("sharedWithGroups")
		return
	}
	p.Set("sharedWithGroups", string(encoded))
}
