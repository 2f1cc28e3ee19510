package models

import (
	"time"

	"gorm.io/gorm"
)

func init() {
	registerModel(&Session{})
}

// Session is an issued login grant. Issuing sessions happens elsewhere; this module only revokes them.
type Session struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	TokenHash string `gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt time.Time
	User      User
}
