package models

import "time"

// StaffUser is an employee account. Staff manage every record in the
// system; creation happens through the CLI (see cmd/server).
type StaffUser struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string `gorm:"size:80;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:'funcionario'" json:"role"`
}
