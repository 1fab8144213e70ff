package services

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// ReputationPerAnswer is the reputation an author earns for each answer
// they keep on the site.
const ReputationPerAnswer = 1

// Length limits count characters, not bytes.
const maxContentLength = 10000

// AnswerService creates and deletes answers and keeps the author's
// reputation in step with them.
type AnswerService struct {
	store store.Store
	log   *slog.Logger
}

func NewAnswerService(st store.Store, log *slog.Logger) *AnswerService {
	return &AnswerService{store: st, log: log}
}

// CreateAnswer stores the answer and credits the author. On a
// transactional backend both writes commit together; otherwise a failed
// credit is logged and the answer is kept.
func (s *AnswerService) CreateAnswer(ctx context.Context, questionID, content, authorID string) (*models.Answer, error) {
	content = strings.TrimSpace(content)
	switch {
	case questionID == "":
		return nil, invalidf("questionId is required")
	case content == "":
		return nil, invalidf("answer is required")
	case authorID == "":
		return nil, invalidf("authorId is required")
	case utf8.RuneCountInString(content) > maxContentLength:
		return nil, invalidf("answer exceeds %d characters", maxContentLength)
	}

	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		return nil, storeError(err)
	}

	answer := &models.Answer{
		Content:    content,
		QuestionID: questionID,
		AuthorID:   authorID,
	}

	err := s.withReputation(ctx, "create", authorID, +ReputationPerAnswer, func(st store.Store) error {
		return st.CreateAnswer(ctx, answer)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("answer created", "answer_id", answer.ID, "question_id", questionID, "author_id", authorID)
	return answer, nil
}

// DeleteAnswer removes the answer, reverses the author's credit and drops
// the votes and comments attached to it.
func (s *AnswerService) DeleteAnswer(ctx context.Context, answerID string) (*models.Answer, error) {
	if answerID == "" {
		return nil, invalidf("answerId is required")
	}

	answer, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, storeError(err)
	}

	err = s.withReputation(ctx, "delete", answer.AuthorID, -ReputationPerAnswer, func(st store.Store) error {
		return st.DeleteAnswer(ctx, answerID)
	})
	if err != nil {
		return nil, err
	}

	purgeTarget(ctx, s.store, s.log, models.KindAnswer, answerID)
	s.log.Info("answer deleted", "answer_id", answerID, "author_id", answer.AuthorID)
	return answer, nil
}

func (s *AnswerService) GetAnswer(ctx context.Context, answerID string) (*models.Answer, error) {
	if answerID == "" {
		return nil, invalidf("answerId is required")
	}
	answer, err := s.store.GetAnswer(ctx, answerID)
	return answer, storeError(err)
}

// ListAnswers returns a question's answers, newest first.
func (s *AnswerService) ListAnswers(ctx context.Context, questionID string, opts store.ListOptions) ([]models.Answer, error) {
	if questionID == "" {
		return nil, invalidf("questionId is required")
	}
	opts.Desc = true
	answers, err := s.store.ListAnswers(ctx, questionID, opts)
	if err != nil {
		return nil, storeError(err)
	}
	if answers == nil {
		answers = []models.Answer{}
	}
	return answers, nil
}

// withReputation runs primary and then applies delta to userID's
// reputation, inside one transaction when the store supports it.
func (s *AnswerService) withReputation(ctx context.Context, op, userID string, delta int, primary func(store.Store) error) error {
	if tx, ok := s.store.(store.Transactor); ok {
		err := tx.WithinTx(ctx, func(st store.Store) error {
			if err := primary(st); err != nil {
				return err
			}
			_, err := st.AdjustReputation(ctx, userID, delta)
			return err
		})
		return storeError(err)
	}

	if err := primary(s.store); err != nil {
		return storeError(err)
	}
	if _, err := s.store.AdjustReputation(ctx, userID, delta); err != nil {
		// The primary write stands; the ledger is now off by delta.
		s.log.Warn("reputation adjustment failed after answer "+op,
			"user_id", userID, "delta", delta, "error", err)
	}
	return nil
}

// purgeTarget removes votes and comments hanging off a deleted target.
// Failures leave orphans behind and are only logged.
func purgeTarget(ctx context.Context, st store.Store, log *slog.Logger, kind models.TargetKind, id string) {
	if err := st.DeleteVotesForTarget(ctx, kind, id); err != nil {
		log.Warn("failed to delete votes", "type", kind, "type_id", id, "error", err)
	}
	if err := st.DeleteCommentsForTarget(ctx, kind, id); err != nil {
		log.Warn("failed to delete comments", "type", kind, "type_id", id, "error", err)
	}
}
