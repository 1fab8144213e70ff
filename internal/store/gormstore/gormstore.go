// Package gormstore implements store.Store on postgres through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/qa-forum/backend/internal/database"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	db *gorm.DB
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn inside a database transaction. fn's error rolls back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Health(ctx context.Context) map[string]string {
	return database.Health(ctx, s.db)
}

func (s *Store) Close() error {
	return database.Close(s.db)
}

// translate maps driver errors onto the store sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, store.ErrConflict)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", what, store.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func affected(res *gorm.DB, what string) error {
	if res.Error != nil {
		return translate(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

func order(opts store.ListOptions) string {
	if opts.Desc {
		return "created_at desc"
	}
	return "created_at asc"
}

// Users and prefs

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error, "create user")
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get user "+id)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "get user by email")
	}
	return &user, nil
}

func (s *Store) GetPrefs(ctx context.Context, userID string) (models.Prefs, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.Prefs{}, err
	}
	return user.Prefs, nil
}

func (s *Store) UpdatePrefs(ctx context.Context, userID string, prefs models.Prefs) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("pref_reputation", prefs.Reputation)
	return affected(res, "update prefs "+userID)
}

// AdjustReputation increments in SQL so concurrent adjustments never lose
// an update.
func (s *Store) AdjustReputation(ctx context.Context, userID string, delta int) (int, error) {
	var user models.User
	res := s.db.WithContext(ctx).Model(&user).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "pref_reputation"}}}).
		Where("id = ?", userID).
		UpdateColumn("pref_reputation", gorm.Expr("pref_reputation + ?", delta))
	if err := affected(res, "adjust reputation "+userID); err != nil {
		return 0, err
	}
	return user.Prefs.Reputation, nil
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	return translate(s.db.WithContext(ctx).Create(q).Error, "create question")
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get question "+id)
	}
	return &q, nil
}

func (s *Store) ListQuestions(ctx context.Context, opts store.ListOptions) ([]models.Question, error) {
	opts = opts.Normalize()
	var questions []models.Question
	err := s.db.WithContext(ctx).
		Order(order(opts)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&questions).Error
	return questions, translate(err, "list questions")
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Question{}, "id = ?", id), "delete question "+id)
}

// Answers

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return translate(s.db.WithContext(ctx).Create(a).Error, "create answer")
}

func (s *Store) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	var a models.Answer
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get answer "+id)
	}
	return &a, nil
}

func (s *Store) ListAnswers(ctx context.Context, questionID string, opts store.ListOptions) ([]models.Answer, error) {
	opts = opts.Normalize()
	var answers []models.Answer
	err := s.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order(order(opts)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&answers).Error
	return answers, translate(err, "list answers")
}

func (s *Store) DeleteAnswer(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Answer{}, "id = ?", id), "delete answer "+id)
}

// Comments

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return translate(s.db.WithContext(ctx).Create(c).Error, "create comment")
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get comment "+id)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, kind models.TargetKind, targetID string, opts store.ListOptions) ([]models.Comment, error) {
	opts = opts.Normalize()
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("type = ? AND type_id = ?", kind, targetID).
		Order(order(opts)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&comments).Error
	return comments, translate(err, "list comments")
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id), "delete comment "+id)
}

func (s *Store) DeleteCommentsForTarget(ctx context.Context, kind models.TargetKind, targetID string) error {
	err := s.db.WithContext(ctx).Where("type = ? AND type_id = ?", kind, targetID).Delete(&models.Comment{}).Error
	return translate(err, "delete comments")
}

// Votes

func (s *Store) FindVotes(ctx context.Context, key store.VoteKey) ([]models.Vote, error) {
	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Where("type = ? AND type_id = ? AND voted_by_id = ?", key.Kind, key.TargetID, key.VoterID).
		Find(&votes).Error
	return votes, translate(err, "find votes")
}

func (s *Store) CreateVote(ctx context.Context, vote *models.Vote) error {
	return translate(s.db.WithContext(ctx).Create(vote).Error, "create vote")
}

func (s *Store) UpdateVoteDirection(ctx context.Context, id string, dir models.Direction) error {
	res := s.db.WithContext(ctx).Model(&models.Vote{}).Where("id = ?", id).Update("vote_status", dir)
	return affected(res, "update vote "+id)
}

func (s *Store) DeleteVote(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Vote{}, "id = ?", id), "delete vote "+id)
}

func (s *Store) CountVotes(ctx context.Context, kind models.TargetKind, targetID string, dir models.Direction) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("type = ? AND type_id = ? AND vote_status = ?", kind, targetID, dir).
		Count(&n).Error
	return n, translate(err, "count votes")
}

func (s *Store) DeleteVotesForTarget(ctx context.Context, kind models.TargetKind, targetID string) error {
	err := s.db.WithContext(ctx).Where("type = ? AND type_id = ?", kind, targetID).Delete(&models.Vote{}).Error
	return translate(err, "delete votes")
}
