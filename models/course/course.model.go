package course

import "gorm.io/gorm"

// Course is a training course a SCORM package can be attached to
type Course struct {
	gorm.Model
	Title          string `json:"title"`
	Description    string `json:"description"`
	Status         string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	OrganizationID uint   `json:"organization_id" gorm:"index;not null"`
	IsPublished    bool   `json:"is_published" gorm:"default:false"`
	IsDeleted      bool   `gorm:"default:false"`
}
