package models

import (
	"time"

	"gorm.io/gorm"
)

// Prefs is the per-user preference map. Reputation is denormalized and only
// ever moved by signed deltas.
type Prefs struct {
	Reputation int `gorm:"not null;default:0" json:"reputation" bson:"reputation"`
}

type User struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Name     string `gorm:"not null" json:"name" bson:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	Password string `gorm:"not null" json:"-" bson:"password"`
	Prefs    Prefs  `gorm:"embedded;embeddedPrefix:pref_" json:"prefs" bson:"prefs"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}
