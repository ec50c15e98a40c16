package models

import (
	"time"
)

// Settings is the singleton site configuration row. The request gate and the
// web issuance endpoint read it on every request; only the admin surface
// writes it.
type Settings struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	RequireLogin bool      `json:"requireLogin"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
