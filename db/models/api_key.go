package models

import "gorm.io/gorm"

func init() {
	registerModel(&APIKey{})
}

type APIKey struct {
	gorm.Model
	UserID uint   `gorm:"index;not null"`
	Key    string `gorm:"uniqueIndex;size:128;not null"`
	User   User
}
