package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Question struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Title        string         `gorm:"type:varchar(100);not null" json:"title" bson:"title"`
	Content      string         `gorm:"type:varchar(10000);not null" json:"content" bson:"content"`
	AuthorID     string         `gorm:"type:varchar(50);not null;index" json:"authorId" bson:"authorId"`
	Tags         pq.StringArray `gorm:"type:text[]" json:"tags" bson:"tags"`
	AttachmentID string         `gorm:"type:varchar(50)" json:"attachmentId,omitempty" bson:"attachmentId,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = NewID()
	}
	return nil
}

type CreateQuestionRequest struct {
	Title        string   `json:"title" binding:"required,max=100"`
	Content      string   `json:"content" binding:"required"`
	Tags         []string `json:"tags"`
	AttachmentID string   `json:"attachmentId"`
}
