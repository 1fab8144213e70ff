// Package mongostore implements store.Store on MongoDB collections, the
// closest self-hosted shape to a hosted document store.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

const (
	usersCollection     = "users"
	questionsCollection = "questions"
	answersCollection   = "answers"
	commentsCollection  = "comments"
	votesCollection     = "votes"
)

// Store does not implement store.Transactor: multi-document transactions
// need a replica set, so multi-write sequences run one call at a time.
type Store struct {
	db  *mongo.Database
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) c(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := map[string]string{"driver": "mongo", "database": s.db.Name()}
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("mongo down: %v", err)
		return stats
	}
	stats["status"] = "up"
	if n, err := s.c(votesCollection).EstimatedDocumentCount(ctx); err == nil {
		stats["votes"] = strconv.FormatInt(n, 10)
	}
	return stats
}

func (s *Store) Close() error {
	return s.db.Client().Disconnect(context.Background())
}

func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", what, store.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func findOptions(opts store.ListOptions) *options.FindOptions {
	opts = opts.Normalize()
	dir := 1
	if opts.Desc {
		dir = -1
	}
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}}).
		SetLimit(int64(opts.Limit)).
		SetSkip(int64(opts.Offset))
}

func (s *Store) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = models.NewID()
	}
	now := s.now()
	*created = now
	*updated = now
}

func (s *Store) insert(ctx context.Context, coll string, doc any, what string) error {
	_, err := s.c(coll).InsertOne(ctx, doc)
	return translate(err, what)
}

func (s *Store) findByID(ctx context.Context, coll, id string, out any, what string) error {
	return translate(s.c(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out), what)
}

func (s *Store) deleteByID(ctx context.Context, coll, id, what string) error {
	res, err := s.c(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, what)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor, what string) ([]T, error) {
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err, what)
	}
	return out, nil
}

// Users and prefs

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.stamp(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return s.insert(ctx, usersCollection, user, "create user")
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.findByID(ctx, usersCollection, id, &user, "get user "+id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.c(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
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
	res, err := s.c(usersCollection).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"prefs": prefs, "updatedAt": s.now()}},
	)
	if err != nil {
		return translate(err, "update prefs "+userID)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update prefs %s: %w", userID, store.ErrNotFound)
	}
	return nil
}

// AdjustReputation uses $inc so the delta is applied server side.
func (s *Store) AdjustReputation(ctx context.Context, userID string, delta int) (int, error) {
	var user models.User
	err := s.c(usersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc": bson.M{"prefs.reputation": delta},
			"$set": bson.M{"updatedAt": s.now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return 0, translate(err, "adjust reputation "+userID)
	}
	return user.Prefs.Reputation, nil
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	s.stamp(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return s.insert(ctx, questionsCollection, q, "create question")
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	if err := s.findByID(ctx, questionsCollection, id, &q, "get question "+id); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Store) ListQuestions(ctx context.Context, opts store.ListOptions) ([]models.Question, error) {
	cur, err := s.c(questionsCollection).Find(ctx, bson.M{}, findOptions(opts))
	if err != nil {
		return nil, translate(err, "list questions")
	}
	return decodeAll[models.Question](ctx, cur, "list questions")
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.deleteByID(ctx, questionsCollection, id, "delete question "+id)
}

// Answers

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return s.insert(ctx, answersCollection, a, "create answer")
}

func (s *Store) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	var a models.Answer
	if err := s.findByID(ctx, answersCollection, id, &a, "get answer "+id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAnswers(ctx context.Context, questionID string, opts store.ListOptions) ([]models.Answer, error) {
	cur, err := s.c(answersCollection).Find(ctx, bson.M{"questionId": questionID}, findOptions(opts))
	if err != nil {
		return nil, translate(err, "list answers")
	}
	return decodeAll[models.Answer](ctx, cur, "list answers")
}

func (s *Store) DeleteAnswer(ctx context.Context, id string) error {
	return s.deleteByID(ctx, answersCollection, id, "delete answer "+id)
}

// Comments

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return s.insert(ctx, commentsCollection, c, "create comment")
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.findByID(ctx, commentsCollection, id, &c, "get comment "+id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, kind models.TargetKind, targetID string, opts store.ListOptions) ([]models.Comment, error) {
	cur, err := s.c(commentsCollection).Find(ctx, bson.M{"type": kind, "typeId": targetID}, findOptions(opts))
	if err != nil {
		return nil, translate(err, "list comments")
	}
	return decodeAll[models.Comment](ctx, cur, "list comments")
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	return s.deleteByID(ctx, commentsCollection, id, "delete comment "+id)
}

func (s *Store) DeleteCommentsForTarget(ctx context.Context, kind models.TargetKind, targetID string) error {
	_, err := s.c(commentsCollection).DeleteMany(ctx, bson.M{"type": kind, "typeId": targetID})
	return translate(err, "delete comments")
}

// Votes

func (s *Store) FindVotes(ctx context.Context, key store.VoteKey) ([]models.Vote, error) {
	cur, err := s.c(votesCollection).Find(ctx, bson.M{
		"type":      key.Kind,
		"typeId":    key.TargetID,
		"votedById": key.VoterID,
	})
	if err != nil {
		return nil, translate(err, "find votes")
	}
	return decodeAll[models.Vote](ctx, cur, "find votes")
}

func (s *Store) CreateVote(ctx context.Context, vote *models.Vote) error {
	s.stamp(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
	return s.insert(ctx, votesCollection, vote, "create vote")
}

func (s *Store) UpdateVoteDirection(ctx context.Context, id string, dir models.Direction) error {
	res, err := s.c(votesCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"voteStatus": dir, "updatedAt": s.now()}},
	)
	if err != nil {
		return translate(err, "update vote "+id)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update vote %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, id string) error {
	return s.deleteByID(ctx, votesCollection, id, "delete vote "+id)
}

func (s *Store) CountVotes(ctx context.Context, kind models.TargetKind, targetID string, dir models.Direction) (int64, error) {
	n, err := s.c(votesCollection).CountDocuments(ctx, bson.M{
		"type":       kind,
		"typeId":     targetID,
		"voteStatus": dir,
	})
	return n, translate(err, "count votes")
}

func (s *Store) DeleteVotesForTarget(ctx context.Context, kind models.TargetKind, targetID string) error {
	_, err := s.c(votesCollection).DeleteMany(ctx, bson.M{"type": kind, "typeId": targetID})
	return translate(err, "delete votes")
}
