package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/services"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Vote toggles, switches or records the caller's vote on a question or answer
func (h *VoteHandler) Vote(c *gin.Context) {
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !requireSelf(c, "votedById", input.VotedByID) {
		return
	}

	dir, err := h.votes.ApplyVote(c.Request.Context(),
		models.TargetKind(input.Type), input.TypeID, input.VotedByID, models.Direction(input.VoteStatus))
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Vote removed"
	if dir != nil {
		message = "Vote recorded"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "data": gin.H{"voteStatus": dir}})
}

// GetTally returns vote counts for a target and the caller's own vote
func (h *VoteHandler) GetTally(c *gin.Context) {
	tally, err := h.votes.GetTally(c.Request.Context(),
		models.TargetKind(c.Query("type")), c.Query("typeId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upvotes":   tally.Upvotes,
		"downvotes": tally.Downvotes,
		"score":     tally.Score(),
		"userVote":  tally.UserDirection,
	})
}
