package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/memstore"
)

var errBackendDown = errors.New("connection refused")

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// logBuffer is a goroutine-safe writer for capturing log output.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogger() (*slog.Logger, *logBuffer) {
	buf := &logBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func seedUser(t *testing.T, st store.Store, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func seedQuestion(t *testing.T, st store.Store, authorID string) *models.Question {
	t.Helper()
	q := &models.Question{Title: "How do channels work?", Content: "Details", AuthorID: authorID}
	require.NoError(t, st.CreateQuestion(context.Background(), q))
	return q
}

// seedTargets stores question "q1" and answer "a1" on it for vote tests.
func seedTargets(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.CreateQuestion(ctx, &models.Question{ID: "q1", Title: "t", Content: "c", AuthorID: "author"}))
	require.NoError(t, st.CreateAnswer(ctx, &models.Answer{ID: "a1", QuestionID: "q1", Content: "c", AuthorID: "author"}))
}

func reputation(t *testing.T, st store.Store, userID string) int {
	t.Helper()
	prefs, err := st.GetPrefs(context.Background(), userID)
	require.NoError(t, err)
	return prefs.Reputation
}

// faultyStore wraps the memory store and fails selected operations.
type faultyStore struct {
	*memstore.Store

	failFind   bool
	failCreate bool
	failAdjust bool
	failCount  bool
}

func (f *faultyStore) FindVotes(ctx context.Context, key store.VoteKey) ([]models.Vote, error) {
	if f.failFind {
		return nil, errBackendDown
	}
	return f.Store.FindVotes(ctx, key)
}

func (f *faultyStore) CreateVote(ctx context.Context, v *models.Vote) error {
	if f.failCreate {
		return errBackendDown
	}
	return f.Store.CreateVote(ctx, v)
}

func (f *faultyStore) CountVotes(ctx context.Context, kind models.TargetKind, id string, dir models.Direction) (int64, error) {
	if f.failCount {
		return 0, errBackendDown
	}
	return f.Store.CountVotes(ctx, kind, id, dir)
}

func (f *faultyStore) AdjustReputation(ctx context.Context, userID string, delta int) (int, error) {
	if f.failAdjust {
		return 0, errBackendDown
	}
	return f.Store.AdjustReputation(ctx, userID, delta)
}

// txStore reports itself as transactional and records WithinTx calls.
type txStore struct {
	*faultyStore
	txCalls int
}

func (s *txStore) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	s.txCalls++
	return fn(s.faultyStore)
}
