package models

import "gorm.io/gorm"

// Learner is a trainee enrolled by an organization. Learners are not platform
// accounts; content identifies them through the runtime session only.
type Learner struct {
	gorm.Model
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email" gorm:"index"`
	OrganizationID uint   `json:"organization_id" gorm:"index;not null"`
	IsDeleted      bool   `gorm:"default:false"`
}

// FullName is the display name handed to content as learner_name
func (l *Learner) FullName() string {
	if l.FirstName == "" {
		return l.LastName
	}
	return l.FirstName + " " + l.LastName
}
