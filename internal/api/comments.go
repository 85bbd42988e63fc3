package api

import (
	"context"

	"github.com/fishlogapp/fishlog-go/internal/models"
	"github.com/fishlogapp/fishlog-go/pkg/recordstore"
)

type CommentService struct {
	client  *recordstore.Client
	session AuthSession
}

func NewCommentService(client *recordstore.Client, session AuthSession) *CommentService {
	return &CommentService{client: client, session: session}
}

// ListForCatch fetches one page of a catch's comments, newest first, with
// their authors inlined.
func (s *CommentService) ListForCatch(ctx context.Context, catchID string, page, perPage int) (*List[models.Comment], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	res, err := s.client.List(ctx, CollectionComments, page, perPage, recordstore.ListOptions{
		Filter: FilterByCatch(catchID),
		Sort:   "-created",
		Expand: "user",
	})
	if err != nil {
		return nil, Normalize("Failed to fetch comments", err)
	}
	list, err := decodeList[models.Comment](res)
	if err != nil {
		return nil, Normalize("Failed to fetch comments", err)
	}
	return list, nil
}

// Create posts a comment on a catch, authored by the current user.
func (s *CommentService) Create(ctx context.Context, catchID, content string) (*models.Comment, error) {
	userID := s.session.CurrentUserID()
	if userID == "" {
		return nil, &Error{Message: "Failed to create comments: user must be authenticated", Err: ErrNotAuthenticated}
	}
	if content == "" {
		return nil, validationError("Failed to create comments", "content", "content is required")
	}

	p := recordstore.NewPayload().
		Set("content", content).
		Set("user", userID).
		Set("catch", catchID)

	raw, err := s.client.Create(ctx, CollectionComments, p)
	if err != nil {
		return nil, Normalize("Failed to create comments", err)
	}
	rec, err := decodeRecord[models.Comment](raw)
	if err != nil {
		return nil, Normalize("Failed to create comments", err)
	}
	return rec, nil
}

func (s *CommentService) Update(ctx context.Context, id, content string) (*models.Comment, error) {
	p := recordstore.NewPayload().Set("content", content)
	raw, err := s.client.Update(ctx, CollectionComments, id, p)
	if err != nil {
		return nil, Normalize("Failed to update comments", err)
	}
	rec, err := decodeRecord[models.Comment](raw)
	if err != nil {
		return nil, Normalize("Failed to update comments", err)
	}
	return rec, nil
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, CollectionComments, id); err != nil {
		return Normalize("Failed to delete comments", err)
	}
	return nil
}
