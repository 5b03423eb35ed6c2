package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a blog author. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Username       string    `gorm:"size:64;not null;uniqueIndex" bson:"username" json:"username"`
	Email          string    `gorm:"size:255;not null;uniqueIndex" bson:"email" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" bson:"password" json:"-"`
	ProfilePicture string    `gorm:"size:1024" bson:"profilePicture" json:"profilePicture"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserUpdate carries the fields changed by a profile update. Nil fields are left untouched.
type UserUpdate struct {
	Username       *string
	Email          *string
	PasswordHash   *string
	ProfilePicture *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil && u.ProfilePicture == nil
}

// Apply copies the set fields onto user.
func (u UserUpdate) Apply(user *User) {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.ProfilePicture != nil {
		user.ProfilePicture = *u.ProfilePicture
	}
}

// PrepareCreate assigns an id and timestamps when absent.
func (u *User) PrepareCreate() {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// BeforeCreate hook ensures id and timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.PrepareCreate()
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
