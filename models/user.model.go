package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a platform account (trainer or admin) scoped to one organization
type User struct {
	gorm.Model
	ProfileImage    string    `gorm:"default:''"`
	Name            string    `gorm:"default:''"`
	Email           string    `gorm:"unique;not null"`
	Role            string    `gorm:"default:'USER'"` // USER, ADMIN
	Password        string    `gorm:"not null"`
	OrganizationID  uint      `json:"organization_id" gorm:"index;not null"`
	IsEmailVerified bool      `gorm:"default:false"`
	LastLogin       time.Time `gorm:"default:NULL"`
	IsDeleted       bool      `gorm:"default:false"`
}
