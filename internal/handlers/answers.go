package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/services"
)

type AnswerHandler struct {
	answers *services.AnswerService
}

func NewAnswerHandler(answers *services.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// GetAnswers returns a question's answers, newest first
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	answers, err := h.answers.ListAnswers(c.Request.Context(), c.Param("id"), listOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

// CreateAnswer saves an answer and credits its author
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "questionId, answer and authorId are required"})
		return
	}
	if !requireSelf(c, "authorId", input.AuthorID) {
		return
	}

	answer, err := h.answers.CreateAnswer(c.Request.Context(), input.QuestionID, input.Answer, input.AuthorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Answer saved", "data": answer})
}

// DeleteAnswer removes an answer and reverses its author's credit
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	var input models.DeleteAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "answerId is required"})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.answers.GetAnswer(ctx, input.AnswerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.AuthorID != middleware.UserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own answers"})
		return
	}

	answer, err := h.answers.DeleteAnswer(ctx, input.AnswerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": answer})
}
