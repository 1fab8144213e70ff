package models

import (
	"time"

	"gorm.io/gorm"
)

// TargetKind is the kind of entity a vote or comment is attached to.
type TargetKind string

const (
	KindQuestion TargetKind = "question"
	KindAnswer   TargetKind = "answer"
)

func (k TargetKind) Valid() bool {
	return k == KindQuestion || k == KindAnswer
}

// Direction is the polarity of a vote.
type Direction string

const (
	Upvoted   Direction = "upvoted"
	Downvoted Direction = "downvoted"
)

func (d Direction) Valid() bool {
	return d == Upvoted || d == Downvoted
}

// Vote model - one record per (type, typeId, votedById)
type Vote struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Type       TargetKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_vote_triple,priority:1;index:idx_vote_tally,priority:1" json:"type" bson:"type"`
	TypeID     string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_vote_triple,priority:2;index:idx_vote_tally,priority:2" json:"typeId" bson:"typeId"`
	VotedByID  string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_vote_triple,priority:3" json:"votedById" bson:"votedById"`
	VoteStatus Direction  `gorm:"type:varchar(16);not null;index:idx_vote_tally,priority:3" json:"voteStatus" bson:"voteStatus"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = NewID()
	}
	return nil
}

type VoteRequest struct {
	VotedByID  string `json:"votedById" binding:"required"`
	VoteStatus string `json:"voteStatus" binding:"required,oneof=upvoted downvoted"`
	Type       string `json:"type" binding:"required,oneof=question answer"`
	TypeID     string `json:"typeId" binding:"required"`
}

// VoteTally is the display view of a target's votes.
type VoteTally struct {
	Upvotes       int64      `json:"upvotes"`
	Downvotes     int64      `json:"downvotes"`
	UserDirection *Direction `json:"userVote"`
}

// Score is upvotes minus downvotes.
func (t VoteTally) Score() int64 {
	return t.Upvotes - t.Downvotes
}
