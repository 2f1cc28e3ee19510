package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func init() {
	registerModel(&User{})
}

// User is the account credential record. The reset fields are only written through conditional updates.
type User struct {
	gorm.Model
	UID   string `gorm:"uniqueIndex;size:64;not null"`
	Email string `gorm:"uniqueIndex;size:320;not null"`
	// PasswordHash and PasswordSalt are nil for accounts that only log in through the federated provider.
	PasswordHash     *string
	PasswordSalt     *string
	FederatedLogin   bool    `gorm:"default:false;not null"`
	ResetToken       *string `gorm:"uniqueIndex;size:128"`
	ResetRequestedAt *time.Time
	Sessions         []Session
	APIKeys          []APIKey
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UID == "" {
		u.UID = uuid.NewString()
	}

	return nil
}

// ResetPending reports whether a token is stored, regardless of its age.
func (u *User) ResetPending() bool {
	return u.ResetToken != nil
}

// ResetExpired reports whether the stored token is past expiry at now. The boundary itself is still valid.
// A token without an issue time can never be valid.
func (u *User) ResetExpired(now time.Time, expiry time.Duration) bool {
	if u.ResetRequestedAt == nil {
		return true
	}

	return now.After(u.ResetRequestedAt.Add(expiry))
}

// ResetCoolingDown reports whether a new reset may not be issued yet at now.
func (u *User) ResetCoolingDown(now time.Time, cooldown time.Duration) bool {
	if u.ResetRequestedAt == nil {
		return false
	}

	return now.Sub(*u.ResetRequestedAt) < cooldown
}
