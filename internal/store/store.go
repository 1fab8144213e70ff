// Package store defines the capability interfaces the services depend on.
// Backends live in subpackages: gormstore (postgres), mongostore, memstore
// and filestore for attachments.
package store

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("document already exists")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListOptions controls ordering and paging of list queries. Ordering is
// always on creation time.
type ListOptions struct {
	Limit  int
	Offset int
	Desc   bool
}

// Normalize clamps Limit into [1, MaxListLimit].
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// VoteKey addresses the vote of one voter on one target.
type VoteKey struct {
	Kind     models.TargetKind
	TargetID string
	VoterID  string
}

type VoteStore interface {
	// FindVotes returns every record for the key. More than one record is a
	// data-integrity fault that callers must surface.
	FindVotes(ctx context.Context, key VoteKey) ([]models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	UpdateVoteDirection(ctx context.Context, id string, dir models.Direction) error
	DeleteVote(ctx context.Context, id string) error
	CountVotes(ctx context.Context, kind models.TargetKind, targetID string, dir models.Direction) (int64, error)
	DeleteVotesForTarget(ctx context.Context, kind models.TargetKind, targetID string) error
}

// ReputationLedger is the per-user preference map.
type ReputationLedger interface {
	GetPrefs(ctx context.Context, userID string) (models.Prefs, error)
	UpdatePrefs(ctx context.Context, userID string, prefs models.Prefs) error
	// AdjustReputation applies delta atomically and returns the new value.
	AdjustReputation(ctx context.Context, userID string, delta int) (int, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, opts ListOptions) ([]models.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

type AnswerStore interface {
	CreateAnswer(ctx context.Context, a *models.Answer) error
	GetAnswer(ctx context.Context, id string) (*models.Answer, error)
	ListAnswers(ctx context.Context, questionID string, opts ListOptions) ([]models.Answer, error)
	DeleteAnswer(ctx context.Context, id string) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, kind models.TargetKind, targetID string, opts ListOptions) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsForTarget(ctx context.Context, kind models.TargetKind, targetID string) error
}

// Store is the full document and preference store.
type Store interface {
	VoteStore
	ReputationLedger
	UserStore
	QuestionStore
	AnswerStore
	CommentStore

	// Health returns backend specific status information.
	Health(ctx context.Context) map[string]string
	Close() error
}

// Transactor is implemented by backends that can run several writes as one
// unit. fn receives a Store bound to the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Bucket describes a file bucket and what it accepts.
type Bucket struct {
	ID                string
	AllowedExtensions []string
	MaxFileSize       int64
}

type FileInfo struct {
	ID        string    `json:"id"`
	BucketID  string    `json:"bucketId"`
	Name      string    `json:"name"`
	MIMEType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type FileStore interface {
	EnsureBucket(ctx context.Context, bucket Bucket) error
	// CreateFile stores blob under bucketID. An empty fileID asks the store to
	// assign one. The stored id is returned.
	CreateFile(ctx context.Context, bucketID, fileID, name string, blob io.Reader) (FileInfo, error)
	GetFile(ctx context.Context, bucketID, fileID string) (FileInfo, error)
	OpenFile(ctx context.Context, bucketID, fileID string) (io.ReadCloser, FileInfo, error)
}
