package models

import "gorm.io/gorm"

// Organization is the tenant boundary: every package, learner, enrollment
// and tracking row belongs to exactly one organization
type Organization struct {
	gorm.Model
	Name      string `json:"name" gorm:"not null"`
	Siret     string `json:"siret"`
	IsDeleted bool   `gorm:"default:false"`
}
