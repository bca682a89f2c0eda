package model

import (
	"time"
)

type UserRole string

const (
	Driver       UserRole = "driver"
	BookingAgent UserRole = "booking-agent"
	Manager      UserRole = "manager"
)

// ManagerLimit is the maximum number of manager accounts allowed.
const ManagerLimit = 3

func (r UserRole) Valid() bool {
	switch r {
	case Driver, BookingAgent, Manager:
		return true
	}
	return false
}

// swagger:model User
type User struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Email      string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Role       UserRole  `gorm:"size:20;not null" json:"role"`
	Department string    `gorm:"size:100" json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`

	// Remote mirror columns only. The local store keeps the credential
	// hash under its own key and never serializes it with the user.
	PasswordHash  string `gorm:"size:100" json:"-"`
	EmailVerified bool   `gorm:"default:true" json:"-"`
}

func (User) TableName() string {
	return "users"
}
