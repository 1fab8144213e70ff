package models

import (
	"time"

	"gorm.io/gorm"
)

type Answer struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Content    string    `gorm:"type:varchar(10000);not null" json:"content" bson:"content"`
	QuestionID string    `gorm:"type:varchar(50);not null;index" json:"questionId" bson:"questionId"`
	AuthorID   string    `gorm:"type:varchar(50);not null" json:"authorId" bson:"authorId"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}

// CreateAnswerRequest mirrors the POST /api/answer body.
type CreateAnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
	AuthorID   string `json:"authorId" binding:"required"`
}

type DeleteAnswerRequest struct {
	AnswerID string `json:"answerId" binding:"required"`
}
