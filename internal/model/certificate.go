package model

import (
	"time"
)

// CertificateValidity is the nominal validity window; expiry is
// informational only and never enforced.
const CertificateValidity = 365 * 24 * time.Hour

// swagger:model Certificate
type Certificate struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	UserID      string    `gorm:"size:64;index;column:user_id" json:"user_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:500" json:"description"`
	DateEarned  time.Time `json:"date_earned"`
	Score       int       `gorm:"not null" json:"score"`
	ValidUntil  time.Time `json:"valid_until"`
	Category    string    `gorm:"size:100" json:"category"`
}

func (Certificate) TableName() string {
	return "certificates"
}
