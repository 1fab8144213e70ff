package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/auth"
	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/filestore"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testEnv struct {
	router *gin.Engine
	store  *memstore.Store
	issuer *auth.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Files.Root = t.TempDir()
	cfg.Files.MaxFileSize = 1 << 20
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000

	st := memstore.New()
	files := filestore.New(cfg.Files.Root)
	require.NoError(t, files.EnsureBucket(context.Background(), cfg.AttachmentBucket()))

	srv := New(cfg, st, files, slog.New(slog.DiscardHandler))
	return &testEnv{
		router: srv.RegisterRoutes(),
		store:  st,
		issuer: auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	}
}

func (e *testEnv) user(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	token, err := e.issuer.Issue(u.ID, u.Email)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) question(t *testing.T, authorID string) *models.Question {
	t.Helper()
	q := &models.Question{Title: "t", Content: "c", AuthorID: authorID}
	require.NoError(t, e.store.CreateQuestion(context.Background(), q))
	return q
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "up", body["status"])
	assert.Equal(t, true, body["env"].(map[string]any)["hasJWTSecret"])
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "Ada", "email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "Ada", "email": "ada@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "Ada", me["name"])
	assert.Equal(t, float64(0), me["prefs"].(map[string]any)["reputation"])
}

func TestCreateAnswer(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.user(t, "author")
	q := env.question(t, author.ID)

	w := env.do(t, http.MethodPost, "/api/answer", token, gin.H{"questionId": q.ID, "answer": "Use select.", "authorId": author.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Answer saved", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "Use select.", data["content"])
	assert.NotEmpty(t, data["id"])

	prefs, err := env.store.GetPrefs(context.Background(), author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prefs.Reputation)

	w = env.do(t, http.MethodGet, "/api/questions/"+q.ID+"/answers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var answers []models.Answer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &answers))
	assert.Len(t, answers, 1)
}

func TestCreateAnswer_MissingAuthorID(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.user(t, "author")
	q := env.question(t, author.ID)

	w := env.do(t, http.MethodPost, "/api/answer", token, gin.H{"questionId": q.ID, "answer": "text"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	answers, err := env.store.ListAnswers(context.Background(), q.ID, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestCreateAnswer_AuthRequired(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.user(t, "author")
	_, otherToken := env.user(t, "other")
	q := env.question(t, author.ID)
	body := gin.H{"questionId": q.ID, "answer": "text", "authorId": author.ID}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/answer", "", body).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/answer", otherToken, body).Code)
}

func TestDeleteAnswer(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.user(t, "author")
	_, otherToken := env.user(t, "other")
	q := env.question(t, author.ID)

	w := env.do(t, http.MethodPost, "/api/answer", token, gin.H{"questionId": q.ID, "answer": "text", "authorId": author.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	answerID := decode(t, w)["data"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodDelete, "/api/answer", otherToken, gin.H{"answerId": answerID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/answer", token, gin.H{"answerId": answerID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, answerID, decode(t, w)["data"].(map[string]any)["id"])

	prefs, err := env.store.GetPrefs(context.Background(), author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, prefs.Reputation)

	w = env.do(t, http.MethodDelete, "/api/answer", token, gin.H{"answerId": answerID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteAndTally(t *testing.T) {
	env := newTestEnv(t)
	voter, token := env.user(t, "voter")
	q := env.question(t, voter.ID)
	vote := gin.H{"votedById": voter.ID, "voteStatus": "upvoted", "type": "question", "typeId": q.ID}

	w := env.do(t, http.MethodPost, "/api/vote", token, vote)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "upvoted", decode(t, w)["data"].(map[string]any)["voteStatus"])

	w = env.do(t, http.MethodGet, "/api/vote?type=question&typeId="+q.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"upvotes":1,"downvotes":0,"score":1,"userVote":"upvoted"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/vote?type=question&typeId="+q.ID, "", nil)
	assert.JSONEq(t, `{"upvotes":1,"downvotes":0,"score":1,"userVote":null}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/vote", token, vote)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["data"].(map[string]any)["voteStatus"])

	w = env.do(t, http.MethodGet, "/api/questions/"+q.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["upvotes"])
}

func TestVote_Rejected(t *testing.T) {
	env := newTestEnv(t)
	voter, token := env.user(t, "voter")
	q := env.question(t, voter.ID)

	tests := []struct {
		name  string
		token string
		body  gin.H
		want  int
	}{
		{"anonymous", "", gin.H{"votedById": voter.ID, "voteStatus": "upvoted", "type": "question", "typeId": q.ID}, http.StatusUnauthorized},
		{"someone else", token, gin.H{"votedById": "other", "voteStatus": "upvoted", "type": "question", "typeId": q.ID}, http.StatusForbidden},
		{"bad status", token, gin.H{"votedById": voter.ID, "voteStatus": "sideways", "type": "question", "typeId": q.ID}, http.StatusBadRequest},
		{"bad type", token, gin.H{"votedById": voter.ID, "voteStatus": "upvoted", "type": "comment", "typeId": q.ID}, http.StatusBadRequest},
		{"unknown target", token, gin.H{"votedById": voter.ID, "voteStatus": "upvoted", "type": "answer", "typeId": q.ID}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.do(t, http.MethodPost, "/api/vote", tt.token, tt.body).Code)
		})
	}
}

func TestQuestionsAndComments(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.user(t, "author")

	w := env.do(t, http.MethodPost, "/api/questions", token, gin.H{"title": "Why nil maps?", "content": "Body", "tags": []string{"go", "GO"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	qid := decode(t, w)["data"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/comments", token, gin.H{"content": "Good one", "type": "question", "typeId": qid})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, author.ID, comment["authorId"])

	w = env.do(t, http.MethodGet, "/api/comments?type=question&typeId="+qid, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	require.Len(t, comments, 1)

	w = env.do(t, http.MethodGet, "/api/questions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var questions []models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	require.Len(t, questions, 1)
	assert.Equal(t, []string{"go"}, []string(questions[0].Tags))

	_, otherToken := env.user(t, "other")
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/questions/"+qid, otherToken, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/questions/"+qid, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/questions/"+qid, "", nil).Code)
}

func TestUserProfile(t *testing.T) {
	env := newTestEnv(t)
	u, _ := env.user(t, "ada")
	_, err := env.store.AdjustReputation(context.Background(), u.ID, 3)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/users/"+u.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, float64(3), profile["reputation"])
	assert.NotContains(t, w.Body.String(), "email")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/users/nobody", "", nil).Code)
}

func upload(t *testing.T, env *testEnv, token, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestFiles(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.user(t, "author")

	w := upload(t, env, token, "diagram.png", pngHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileID := decode(t, w)["fileId"].(string)

	w = env.do(t, http.MethodGet, "/api/files/"+fileID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, w.Body.Bytes())

	w = env.do(t, http.MethodPost, "/api/questions", token, gin.H{"title": "t", "content": "c", "attachmentId": fileID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, author.ID, decode(t, w)["data"].(map[string]any)["authorId"])

	w = upload(t, env, token, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = env.do(t, http.MethodGet, "/api/files/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "File not found"))
}
