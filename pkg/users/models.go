// Package users implements the account store behind the UserDeck backend:
// the persisted user model, the sqlite repository, credential checks, and
// bearer token issuing.
package users

import (
	"time"

	"gorm.io/gorm"

	"github.com/userdeck/userdeck/pkg/types"
)

// User is the persisted account record. The outward representation lives in
// types.User; Public converts and drops the password hash.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"index;size:50;not null" json:"name"`
	Username    string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password    string    `gorm:"size:255;not null" json:"-"` // Password hash, never returned in JSON
	IsSuperuser bool      `gorm:"not null;default:false" json:"is_superuser"`
	Status      bool      `gorm:"not null" json:"status"` // no column default so an explicit false survives the insert
	Description string    `gorm:"size:255" json:"description,omitempty"`
	CreatedTime time.Time `gorm:"not null" json:"created_time"`
	UpdatedTime time.Time `gorm:"not null" json:"updated_time"`
}

// BeforeCreate hook for User model
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedTime.IsZero() {
		u.CreatedTime = now
	}
	u.UpdatedTime = now
	return nil
}

// BeforeUpdate hook for User model
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedTime = time.Now()
	return nil
}

// Public returns the wire representation of the account
func (u *User) Public() types.User {
	return types.User{
		ID:          u.ID,
		Name:        u.Name,
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
		Status:      u.Status,
		Description: u.Description,
		CreatedTime: u.CreatedTime.Format(types.TimeLayout),
		UpdatedTime: u.UpdatedTime.Format(types.TimeLayout),
	}
}
