package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/storetest"
)

func TestCreateVote_EnforcesTripleUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := &models.Vote{Type: models.KindQuestion, TypeID: "q1", VotedByID: "u1", VoteStatus: models.Upvoted}
	require.NoError(t, s.CreateVote(ctx, first))
	assert.NotEmpty(t, first.ID)

	dup := &models.Vote{Type: models.KindQuestion, TypeID: "q1", VotedByID: "u1", VoteStatus: models.Downvoted}
	assert.ErrorIs(t, s.CreateVote(ctx, dup), store.ErrConflict)

	other := &models.Vote{Type: models.KindAnswer, TypeID: "q1", VotedByID: "u1", VoteStatus: models.Downvoted}
	assert.NoError(t, s.CreateVote(ctx, other))
}

func TestAdjustReputation(t *testing.T) {
	s := New()
	ctx := context.Background()

	user := &models.User{Name: "ada", Email: "ada@example.com"}
	require.NoError(t, s.CreateUser(ctx, user))

	rep, err := s.AdjustReputation(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rep)

	rep, err = s.AdjustReputation(ctx, user.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, -2, rep)

	_, err = s.AdjustReputation(ctx, "ghost", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListQuestions_OrderAndLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		q := &models.Question{Title: title, Content: "c", AuthorID: "u1"}
		require.NoError(t, s.CreateQuestion(ctx, q))
		ids = append(ids, q.ID)
	}

	desc, err := s.ListQuestions(ctx, store.ListOptions{Desc: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, ids[2], desc[0].ID)
	assert.Equal(t, ids[1], desc[1].ID)

	asc, err := s.ListQuestions(ctx, store.ListOptions{Offset: 1})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, ids[1], asc[0].ID)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{Name: "a", Email: "same@example.com"}))
	err := s.CreateUser(ctx, &models.User{Name: "b", Email: "same@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestStoreSuite(t *testing.T) {
	storetest.Run(t, New())
}
