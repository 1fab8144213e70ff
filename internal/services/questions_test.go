package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/filestore"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/memstore"
)

const attachmentBucket = "question-attachment"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newQuestionService(t *testing.T) (*QuestionService, *memstore.Store, *filestore.Store) {
	t.Helper()
	st := memstore.New()
	files := filestore.New(t.TempDir())
	require.NoError(t, files.EnsureBucket(context.Background(), store.Bucket{
		ID:                attachmentBucket,
		AllowedExtensions: filestore.AttachmentExtensions,
		MaxFileSize:       1 << 20,
	}))
	answers := NewAnswerService(st, discardLogger())
	return NewQuestionService(st, files, attachmentBucket, answers, discardLogger()), st, files
}

func TestCreateQuestion(t *testing.T) {
	svc, st, _ := newQuestionService(t)
	author := seedUser(t, st, "author")

	q, err := svc.CreateQuestion(context.Background(), author.ID, models.CreateQuestionRequest{
		Title:   " Closing channels ",
		Content: "When should a receiver close?",
		Tags:    []string{"go", " Go ", "", "channels"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Closing channels", q.Title)
	assert.Equal(t, []string{"go", "channels"}, []string(q.Tags))
	assert.Equal(t, author.ID, q.AuthorID)

	got, err := svc.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Title, got.Title)
}

func TestCreateQuestion_Validation(t *testing.T) {
	svc, st, _ := newQuestionService(t)
	author := seedUser(t, st, "author")

	tests := []struct {
		name    string
		author  string
		req     models.CreateQuestionRequest
		wantErr error
	}{
		{"anonymous", "", models.CreateQuestionRequest{Title: "t", Content: "c"}, ErrUnauthorized},
		{"missing title", author.ID, models.CreateQuestionRequest{Content: "c"}, ErrInvalidInput},
		{"missing content", author.ID, models.CreateQuestionRequest{Title: "t"}, ErrInvalidInput},
		{"long title", author.ID, models.CreateQuestionRequest{Title: strings.Repeat("x", 101), Content: "c"}, ErrInvalidInput},
		{"long tag", author.ID, models.CreateQuestionRequest{Title: "t", Content: "c", Tags: []string{strings.Repeat("x", 51)}}, ErrInvalidInput},
		{"long multi-byte title", author.ID, models.CreateQuestionRequest{Title: strings.Repeat("日", 101), Content: "c"}, ErrInvalidInput},
		{"long multi-byte tag", author.ID, models.CreateQuestionRequest{Title: "t", Content: "c", Tags: []string{strings.Repeat("ü", 51)}}, ErrInvalidInput},
		{"unknown attachment", author.ID, models.CreateQuestionRequest{Title: "t", Content: "c", AttachmentID: "ghost"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateQuestion(context.Background(), tt.author, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateQuestion_MultiByteWithinLimits(t *testing.T) {
	svc, st, _ := newQuestionService(t)
	author := seedUser(t, st, "author")

	q, err := svc.CreateQuestion(context.Background(), author.ID, models.CreateQuestionRequest{
		Title:   strings.Repeat("日", 40),
		Content: strings.Repeat("é", 6000),
		Tags:    []string{strings.Repeat("ü", 30)},
	})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("日", 40), q.Title)
	assert.Equal(t, []string{strings.Repeat("ü", 30)}, []string(q.Tags))
}

func TestCreateQuestion_WithAttachment(t *testing.T) {
	svc, st, files := newQuestionService(t)
	author := seedUser(t, st, "author")
	ctx := context.Background()

	info, err := files.CreateFile(ctx, attachmentBucket, models.NewID(), "diagram.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	q, err := svc.CreateQuestion(ctx, author.ID, models.CreateQuestionRequest{
		Title: "t", Content: "c", AttachmentID: info.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, info.ID, q.AttachmentID)
}

func TestDeleteQuestion_Cascades(t *testing.T) {
	svc, st, _ := newQuestionService(t)
	asker := seedUser(t, st, "asker")
	helper := seedUser(t, st, "helper")
	ctx := context.Background()

	q, err := svc.CreateQuestion(ctx, asker.ID, models.CreateQuestionRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.answers.CreateAnswer(ctx, q.ID, "answer", helper.ID)
		require.NoError(t, err)
	}
	require.Equal(t, 3, reputation(t, st, helper.ID))
	_, err = NewVoteService(st, discardLogger()).ApplyVote(ctx, models.KindQuestion, q.ID, helper.ID, models.Upvoted)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuestion(ctx, q.ID, asker.ID))

	_, err = svc.GetQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	left, err := st.ListAnswers(ctx, q.ID, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Equal(t, 0, reputation(t, st, helper.ID))
	n, err := st.CountVotes(ctx, models.KindQuestion, q.ID, models.Upvoted)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteQuestion_OnlyAuthor(t *testing.T) {
	svc, st, _ := newQuestionService(t)
	asker := seedUser(t, st, "asker")
	ctx := context.Background()

	q, err := svc.CreateQuestion(ctx, asker.ID, models.CreateQuestionRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteQuestion(ctx, q.ID, "someone-else"), ErrForbidden)
	assert.ErrorIs(t, svc.DeleteQuestion(ctx, "missing", asker.ID), ErrNotFound)

	_, err = svc.GetQuestion(ctx, q.ID)
	assert.NoError(t, err)
}

func TestListQuestions_NewestFirst(t *testing.T) {
	svc, st, _ := newQuestionService(t)
	asker := seedUser(t, st, "asker")
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.CreateQuestion(ctx, asker.ID, models.CreateQuestionRequest{Title: title, Content: "c"})
		require.NoError(t, err)
	}

	got, err := svc.ListQuestions(ctx, store.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
}
