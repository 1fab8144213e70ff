package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Content   string     `gorm:"type:varchar(10000);not null" json:"content" bson:"content"`
	Type      TargetKind `gorm:"type:varchar(16);not null;index:idx_comment_target,priority:1" json:"type" bson:"type"`
	TypeID    string     `gorm:"type:varchar(50);not null;index:idx_comment_target,priority:2" json:"typeId" bson:"typeId"`
	AuthorID  string     `gorm:"type:varchar(50);not null" json:"authorId" bson:"authorId"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=question answer"`
	TypeID   string `json:"typeId" binding:"required"`
	AuthorID string `json:"authorId"`
}
