package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type CommentService struct {
	store store.Store
	log   *slog.Logger
}

func NewCommentService(st store.Store, log *slog.Logger) *CommentService {
	return &CommentService{store: st, log: log}
}

// CreateComment attaches a comment to an existing question or answer.
func (s *CommentService) CreateComment(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error) {
	if req.AuthorID == "" {
		return nil, fmt.Errorf("%w: commenting requires a signed in user", ErrUnauthorized)
	}
	kind := models.TargetKind(req.Type)
	content := strings.TrimSpace(req.Content)
	switch {
	case !kind.Valid():
		return nil, invalidf("unknown target type %q", req.Type)
	case req.TypeID == "":
		return nil, invalidf("typeId is required")
	case content == "":
		return nil, invalidf("content is required")
	case utf8.RuneCountInString(content) > maxContentLength:
		return nil, invalidf("content exceeds %d characters", maxContentLength)
	}

	if err := targetExists(ctx, s.store, kind, req.TypeID); err != nil {
		return nil, err
	}

	c := &models.Comment{
		Content:  content,
		Type:     kind,
		TypeID:   req.TypeID,
		AuthorID: req.AuthorID,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// ListComments returns a target's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, kind models.TargetKind, targetID string, opts store.ListOptions) ([]models.Comment, error) {
	if !kind.Valid() {
		return nil, invalidf("unknown target type %q", kind)
	}
	if targetID == "" {
		return nil, invalidf("typeId is required")
	}
	opts.Desc = false
	comments, err := s.store.ListComments(ctx, kind, targetID, opts)
	if err != nil {
		return nil, storeError(err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, id, requesterID string) error {
	if id == "" {
		return invalidf("comment id is required")
	}
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if c.AuthorID != requesterID {
		return fmt.Errorf("%w: only the author can delete a comment", ErrForbidden)
	}
	return storeError(s.store.DeleteComment(ctx, id))
}

// targetExists reports ErrNotFound unless the question or answer exists.
func targetExists(ctx context.Context, st store.Store, kind models.TargetKind, id string) error {
	var err error
	if kind == models.KindQuestion {
		_, err = st.GetQuestion(ctx, id)
	} else {
		_, err = st.GetAnswer(ctx, id)
	}
	return storeError(err)
}
