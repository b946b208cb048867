package scorm

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Package status lifecycle. A package mutates only during ingestion and is
// immutable once VALID; ERROR keeps the stored message for the uploader.
const (
	StatusUploading  = "UPLOADING"
	StatusProcessing = "PROCESSING"
	StatusValid      = "VALID"
	StatusError      = "ERROR"
)

// ScormPackage is an uploaded e-learning package and its parsed manifest
type ScormPackage struct {
	gorm.Model
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Version          string         `json:"version"` // SCORM_1_2, SCORM_2004
	Status           string         `json:"status" gorm:"default:'UPLOADING'"`
	ErrorMessage     string         `json:"error_message"`
	ManifestData     datatypes.JSON `json:"manifest_data"`
	LaunchUrl        string         `json:"launch_url"`
	MasteryScore     *float64       `json:"mastery_score"`
	StoragePath      string         `json:"storage_path"`
	OriginalFileName string         `json:"original_file_name"`
	FileSize         int64          `json:"file_size"`
	CourseID         *uint          `json:"course_id" gorm:"index"`
	OrganizationID   uint           `json:"organization_id" gorm:"index;not null"`
	UploadedBy       uint           `json:"uploaded_by"`
	IsDeleted        bool           `gorm:"default:false"`
}
