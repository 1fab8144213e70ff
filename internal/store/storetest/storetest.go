// Package storetest is a behavioural suite every store.Store backend must
// pass. Cases only touch ids they create, so one database can be shared.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Run executes the suite against st.
func Run(t *testing.T, st store.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, st) })
	t.Run("Reputation", func(t *testing.T) { testReputation(t, st) })
	t.Run("ConcurrentReputation", func(t *testing.T) { testConcurrentReputation(t, st) })
	t.Run("Votes", func(t *testing.T) { testVotes(t, st) })
	t.Run("ConcurrentVoteCreate", func(t *testing.T) { testConcurrentVoteCreate(t, st) })
	t.Run("Questions", func(t *testing.T) { testQuestions(t, st) })
	t.Run("Answers", func(t *testing.T) { testAnswers(t, st) })
	t.Run("Comments", func(t *testing.T) { testComments(t, st) })
	t.Run("Health", func(t *testing.T) {
		assert.Equal(t, "up", st.Health(context.Background())["status"])
	})
}

func newUser(t *testing.T, st store.Store) *models.User {
	t.Helper()
	id := models.NewID()
	u := &models.User{Name: "user-" + id[:8], Email: id + "@example.com", Password: "hash"}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

// pause keeps creation timestamps apart on backends with millisecond precision.
func pause() { time.Sleep(3 * time.Millisecond) }

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)
	assert.NotEmpty(t, u.ID)

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Zero(t, got.Prefs.Reputation)

	byEmail, err := st.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	dup := &models.User{Name: "dup", Email: u.Email, Password: "hash"}
	assert.ErrorIs(t, st.CreateUser(ctx, dup), store.ErrConflict)

	_, err = st.GetUser(ctx, models.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetUserByEmail(ctx, "nobody-"+models.NewID()+"@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testReputation(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)

	n, err := st.AdjustReputation(ctx, u.ID, +1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = st.AdjustReputation(ctx, u.ID, +1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = st.AdjustReputation(ctx, u.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, st.UpdatePrefs(ctx, u.ID, models.Prefs{Reputation: 10}))
	prefs, err := st.GetPrefs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, prefs.Reputation)

	_, err = st.AdjustReputation(ctx, models.NewID(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetPrefs(ctx, models.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentReputation(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := newUser(t, st)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.AdjustReputation(ctx, u.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	prefs, err := st.GetPrefs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, prefs.Reputation)
}

func testVotes(t *testing.T, st store.Store) {
	ctx := context.Background()
	target := models.NewID()
	key := store.VoteKey{Kind: models.KindQuestion, TargetID: target, VoterID: models.NewID()}

	votes, err := st.FindVotes(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, votes)

	v := &models.Vote{Type: key.Kind, TypeID: key.TargetID, VotedByID: key.VoterID, VoteStatus: models.Upvoted}
	require.NoError(t, st.CreateVote(ctx, v))
	assert.NotEmpty(t, v.ID)

	dup := &models.Vote{Type: key.Kind, TypeID: key.TargetID, VotedByID: key.VoterID, VoteStatus: models.Downvoted}
	assert.ErrorIs(t, st.CreateVote(ctx, dup), store.ErrConflict)

	// Same voter and id on the other kind is a different triple.
	other := &models.Vote{Type: models.KindAnswer, TypeID: key.TargetID, VotedByID: key.VoterID, VoteStatus: models.Downvoted}
	require.NoError(t, st.CreateVote(ctx, other))

	second := &models.Vote{Type: key.Kind, TypeID: key.TargetID, VotedByID: models.NewID(), VoteStatus: models.Upvoted}
	require.NoError(t, st.CreateVote(ctx, second))

	up, err := st.CountVotes(ctx, key.Kind, target, models.Upvoted)
	require.NoError(t, err)
	assert.Equal(t, int64(2), up)

	require.NoError(t, st.UpdateVoteDirection(ctx, v.ID, models.Downvoted))
	votes, err = st.FindVotes(ctx, key)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, models.Downvoted, votes[0].VoteStatus)

	down, err := st.CountVotes(ctx, key.Kind, target, models.Downvoted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), down)

	require.NoError(t, st.DeleteVote(ctx, v.ID))
	assert.ErrorIs(t, st.DeleteVote(ctx, v.ID), store.ErrNotFound)
	assert.ErrorIs(t, st.UpdateVoteDirection(ctx, v.ID, models.Upvoted), store.ErrNotFound)

	require.NoError(t, st.DeleteVotesForTarget(ctx, key.Kind, target))
	up, err = st.CountVotes(ctx, key.Kind, target, models.Upvoted)
	require.NoError(t, err)
	assert.Zero(t, up)
	// The answer-kind vote on the same id survives.
	down, err = st.CountVotes(ctx, models.KindAnswer, target, models.Downvoted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), down)
}

func testConcurrentVoteCreate(t *testing.T, st store.Store) {
	ctx := context.Background()
	key := store.VoteKey{Kind: models.KindAnswer, TargetID: models.NewID(), VoterID: models.NewID()}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.CreateVote(ctx, &models.Vote{
				Type: key.Kind, TypeID: key.TargetID, VotedByID: key.VoterID, VoteStatus: models.Upvoted,
			})
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, store.ErrConflict)
	}
	assert.Equal(t, 1, created)

	votes, err := st.FindVotes(ctx, key)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func testQuestions(t *testing.T, st store.Store) {
	ctx := context.Background()
	author := newUser(t, st)

	q := &models.Question{Title: "Generics", Content: "When?", AuthorID: author.ID, Tags: []string{"go", "generics"}}
	require.NoError(t, st.CreateQuestion(ctx, q))
	assert.NotEmpty(t, q.ID)
	assert.False(t, q.CreatedAt.IsZero())

	got, err := st.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Generics", got.Title)
	assert.Equal(t, []string{"go", "generics"}, []string(got.Tags))

	require.NoError(t, st.DeleteQuestion(ctx, q.ID))
	_, err = st.GetQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteQuestion(ctx, q.ID), store.ErrNotFound)

	list, err := st.ListQuestions(ctx, store.ListOptions{Limit: 1, Desc: true})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(list), 1)
}

func testAnswers(t *testing.T, st store.Store) {
	ctx := context.Background()
	questionID := models.NewID()

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		a := &models.Answer{Content: text, QuestionID: questionID, AuthorID: models.NewID()}
		require.NoError(t, st.CreateAnswer(ctx, a))
		ids = append(ids, a.ID)
		pause()
	}
	require.NoError(t, st.CreateAnswer(ctx, &models.Answer{Content: "elsewhere", QuestionID: models.NewID(), AuthorID: models.NewID()}))

	desc, err := st.ListAnswers(ctx, questionID, store.ListOptions{Desc: true})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "three", desc[0].Content)
	assert.Equal(t, "one", desc[2].Content)

	page, err := st.ListAnswers(ctx, questionID, store.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two", page[0].Content)

	got, err := st.GetAnswer(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, questionID, got.QuestionID)

	require.NoError(t, st.DeleteAnswer(ctx, ids[0]))
	_, err = st.GetAnswer(ctx, ids[0])
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteAnswer(ctx, ids[0]), store.ErrNotFound)
}

func testComments(t *testing.T, st store.Store) {
	ctx := context.Background()
	target := models.NewID()
	author := models.NewID()

	for _, text := range []string{"first", "second"} {
		require.NoError(t, st.CreateComment(ctx, &models.Comment{Content: text, Type: models.KindAnswer, TypeID: target, AuthorID: author}))
		pause()
	}
	keep := &models.Comment{Content: "on question", Type: models.KindQuestion, TypeID: target, AuthorID: author}
	require.NoError(t, st.CreateComment(ctx, keep))

	list, err := st.ListComments(ctx, models.KindAnswer, target, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)

	got, err := st.GetComment(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Content)

	require.NoError(t, st.DeleteComment(ctx, list[1].ID))
	assert.ErrorIs(t, st.DeleteComment(ctx, list[1].ID), store.ErrNotFound)

	require.NoError(t, st.DeleteCommentsForTarget(ctx, models.KindAnswer, target))
	list, err = st.ListComments(ctx, models.KindAnswer, target, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = st.GetComment(ctx, keep.ID)
	assert.NoError(t, err)
}
