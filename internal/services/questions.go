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

const (
	maxTitleLength = 100
	maxTagLength   = 50
)

type QuestionService struct {
	store    store.Store
	files    store.FileStore
	bucketID string
	answers  *AnswerService
	log      *slog.Logger
}

func NewQuestionService(st store.Store, files store.FileStore, bucketID string, answers *AnswerService, log *slog.Logger) *QuestionService {
	return &QuestionService{store: st, files: files, bucketID: bucketID, answers: answers, log: log}
}

// CreateQuestion validates and stores a question. An attachment id must
// name a file already uploaded to the attachment bucket.
func (s *QuestionService) CreateQuestion(ctx context.Context, authorID string, req models.CreateQuestionRequest) (*models.Question, error) {
	if authorID == "" {
		return nil, fmt.Errorf("%w: asking requires a signed in user", ErrUnauthorized)
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	switch {
	case title == "" || content == "":
		return nil, invalidf("title and content are required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		return nil, invalidf("title exceeds %d characters", maxTitleLength)
	case utf8.RuneCountInString(content) > maxContentLength:
		return nil, invalidf("content exceeds %d characters", maxContentLength)
	}

	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	attachmentID := strings.TrimSpace(req.AttachmentID)
	if attachmentID != "" {
		if _, err := s.files.GetFile(ctx, s.bucketID, attachmentID); err != nil {
			return nil, invalidf("attachment %s: %v", attachmentID, err)
		}
	}

	q := &models.Question{
		Title:        title,
		Content:      content,
		AuthorID:     authorID,
		Tags:         tags,
		AttachmentID: attachmentID,
	}
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return nil, storeError(err)
	}
	s.log.Info("question created", "question_id", q.ID, "author_id", authorID)
	return q, nil
}

func (s *QuestionService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	if id == "" {
		return nil, invalidf("question id is required")
	}
	q, err := s.store.GetQuestion(ctx, id)
	return q, storeError(err)
}

// ListQuestions returns questions newest first.
func (s *QuestionService) ListQuestions(ctx context.Context, opts store.ListOptions) ([]models.Question, error) {
	opts.Desc = true
	questions, err := s.store.ListQuestions(ctx, opts)
	if err != nil {
		return nil, storeError(err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return questions, nil
}

// DeleteQuestion removes a question owned by requesterID. Its answers go
// through the answer lifecycle so their authors' reputation is reversed.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id, requesterID string) error {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if q.AuthorID != requesterID {
		return fmt.Errorf("%w: only the author can delete a question", ErrForbidden)
	}

	for {
		page, err := s.store.ListAnswers(ctx, id, store.ListOptions{Limit: store.MaxListLimit})
		if err != nil {
			return storeError(err)
		}
		if len(page) == 0 {
			break
		}
		for _, a := range page {
			if _, err := s.answers.DeleteAnswer(ctx, a.ID); err != nil {
				return err
			}
		}
	}

	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return storeError(err)
	}
	purgeTarget(ctx, s.store, s.log, models.KindQuestion, id)
	s.log.Info("question deleted", "question_id", id)
	return nil
}

// normalizeTags trims, drops empties and removes case-insensitive duplicates
// while keeping first-seen order.
func normalizeTags(raw []string) ([]string, error) {
	var tags []string
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLength {
			return nil, invalidf("tag %q exceeds %d characters", t, maxTagLength)
		}
		k := strings.ToLower(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		tags = append(tags, t)
	}
	return tags, nil
}
