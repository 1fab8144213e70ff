package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/auth"
	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/services"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	Vote     *VoteHandler
	Comment  *CommentHandler
	File     *FileHandler
	User     *UserHandler
	Health   *HealthHandler
}

// Deps is everything the handlers need from the outside.
type Deps struct {
	Store    store.Store
	Files    store.FileStore
	Bucket   store.Bucket
	Issuer   *auth.Issuer
	Presence map[string]bool
	Log      *slog.Logger
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	answers := services.NewAnswerService(d.Store, d.Log)
	votes := services.NewVoteService(d.Store, d.Log)
	questions := services.NewQuestionService(d.Store, d.Files, d.Bucket.ID, answers, d.Log)

	return &Handler{
		Auth:     NewAuthHandler(services.NewUserService(d.Store, d.Issuer, d.Log)),
		Question: NewQuestionHandler(questions, votes),
		Answer:   NewAnswerHandler(answers),
		Vote:     NewVoteHandler(votes),
		Comment:  NewCommentHandler(services.NewCommentService(d.Store, d.Log)),
		File:     NewFileHandler(d.Files, d.Bucket),
		User:     NewUserHandler(services.NewUserService(d.Store, d.Issuer, d.Log)),
		Health:   NewHealthHandler(d.Store, d.Presence),
	}
}

// respondError maps a service error onto its HTTP status. Store failures
// pass their message through unchanged.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// requireSelf rejects bodies that claim to act for someone other than the
// signed in user.
func requireSelf(c *gin.Context, field, id string) bool {
	if id != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": field + " does not match the signed in user"})
		return false
	}
	return true
}

// listOptions reads ?limit= and ?offset= into store paging options.
func listOptions(c *gin.Context) store.ListOptions {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return store.ListOptions{Limit: limit, Offset: offset}.Normalize()
}
