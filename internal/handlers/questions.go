package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/services"
)

type QuestionHandler struct {
	questions *services.QuestionService
	votes     *services.VoteService
}

func NewQuestionHandler(questions *services.QuestionService, votes *services.VoteService) *QuestionHandler {
	return &QuestionHandler{questions: questions, votes: votes}
}

// GetQuestions returns questions, newest first
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	questions, err := h.questions.ListQuestions(c.Request.Context(), listOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// GetQuestion returns a single question by ID with its vote tally
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	ctx := c.Request.Context()
	q, err := h.questions.GetQuestion(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	tally, err := h.votes.GetTally(ctx, models.KindQuestion, q.ID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           q.ID,
		"title":        q.Title,
		"content":      q.Content,
		"authorId":     q.AuthorID,
		"tags":         q.Tags,
		"attachmentId": q.AttachmentID,
		"upvotes":      tally.Upvotes,
		"downvotes":    tally.Downvotes,
		"userVote":     tally.UserDirection,
		"createdAt":    q.CreatedAt,
		"updatedAt":    q.UpdatedAt,
	})
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.questions.CreateQuestion(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Question created successfully", "data": q})
}

// DeleteQuestion deletes a question and everything hanging off it (author only)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questions.DeleteQuestion(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}
