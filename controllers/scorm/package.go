package controllers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	scormModels "lms/models/scorm"
	"lms/scorm"
	"lms/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UploadPackage ingests a SCORM zip: create the row UPLOADING, parse the
// manifest, extract the content into the store and flip to VALID. Any
// ingestion failure marks the package ERROR with the message stored; no
// package is ever left VALID with a partial ingest.
func UploadPackage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Package file is required!", nil)
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".zip") {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Package must be a ZIP archive!", nil)
	}

	title := c.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, ".zip")
	}
	description := c.FormValue("description")
	courseID := c.Locals("courseID").(*uint)

	// Create the package row first so failures leave an ERROR trace
	pkg := scormModels.ScormPackage{
		Title:            title,
		Description:      description,
		Status:           scormModels.StatusUploading,
		OriginalFileName: fileHeader.Filename,
		FileSize:         fileHeader.Size,
		CourseID:         courseID,
		OrganizationID:   user.OrganizationID,
		UploadedBy:       user.ID,
	}
	if err := database.Database.Db.Create(&pkg).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create package!", nil)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return ingestionError(c, &pkg, "Failed to read uploaded file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return ingestionError(c, &pkg, "Failed to read uploaded file")
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ingestionError(c, &pkg, "File is not a valid ZIP archive")
	}

	// The descriptor must sit at the archive root; a package without it is
	// rejected outright
	manifestData, err := utils.ReadZipEntry(archive, scorm.ManifestFileName)
	if err != nil {
		return ingestionError(c, &pkg, "imsmanifest.xml not found in package")
	}

	manifest, err := scorm.ParseManifest(manifestData)
	if err != nil {
		return ingestionError(c, &pkg, err.Error())
	}
	if err := manifest.ValidateLaunchTarget(utils.ZipFileList(archive)); err != nil {
		return ingestionError(c, &pkg, err.Error())
	}

	database.Database.Db.Model(&pkg).Update("status", scormModels.StatusProcessing)

	storagePath, err := utils.ExtractPackage(data, config.AppConfig.StorageDir, user.OrganizationID)
	if err != nil {
		return ingestionError(c, &pkg, "Failed to extract package: "+err.Error())
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return ingestionError(c, &pkg, "Failed to encode manifest")
	}

	updates := map[string]interface{}{
		"title":         manifest.Title,
		"version":       string(manifest.Version),
		"status":        scormModels.StatusValid,
		"manifest_data": manifestJSON,
		"launch_url":    manifest.LaunchUrl,
		"mastery_score": manifest.MasteryScore,
		"storage_path":  storagePath,
		"error_message": "",
	}
	if manifest.Description != "" {
		updates["description"] = manifest.Description
	}
	if err := database.Database.Db.Model(&pkg).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to finalize package!", nil)
	}

	database.Database.Db.First(&pkg, pkg.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Package uploaded successfully!", fiber.Map{
		"package":  pkg,
		"manifest": manifest,
	})
}

// ingestionError marks the package ERROR with the stored message and rejects
// the upload
func ingestionError(c *fiber.Ctx, pkg *scormModels.ScormPackage, message string) error {
	database.Database.Db.Model(pkg).Updates(map[string]interface{}{
		"status":        scormModels.StatusError,
		"error_message": message,
	})
	return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid SCORM package: "+message, nil)
}

// GetAllPackages lists the organization's packages with status counts
func GetAllPackages(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	db := database.Database.Db.Where("organization_id = ? AND is_deleted = ?", user.OrganizationID, false)
	if status := c.Query("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if courseID := c.Query("course_id"); courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}

	var packages []scormModels.ScormPackage
	if err := db.Order("created_at desc").Find(&packages).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch packages!", nil)
	}

	valid, errored, processing := 0, 0, 0
	for _, p := range packages {
		switch p.Status {
		case scormModels.StatusValid:
			valid++
		case scormModels.StatusError:
			errored++
		case scormModels.StatusProcessing, scormModels.StatusUploading:
			processing++
		}
	}
	stats := fiber.Map{
		"total":      len(packages),
		"valid":      valid,
		"error":      errored,
		"processing": processing,
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Packages fetched successfully!", fiber.Map{
		"packages": packages,
		"stats":    stats,
	})
}

// GetPackageDetails returns one package with its tracking rows and stats
func GetPackageDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	packageID := c.Locals("packageID").(int)

	var pkg scormModels.ScormPackage
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", packageID, user.OrganizationID, false).First(&pkg).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Package not found!", nil)
	}

	var trackings []scormModels.ScormTracking
	database.Database.Db.Where("package_id = ?", pkg.ID).Order("last_access_at desc").Find(&trackings)

	completed := 0
	inProgress := 0
	scoreSum := 0.0
	scoreCount := 0
	for _, t := range trackings {
		switch t.LessonStatus {
		case scorm.StatusCompleted, scorm.StatusPassed:
			completed++
		case scorm.StatusIncomplete:
			inProgress++
		}
		if t.ScoreRaw != nil {
			scoreSum += *t.ScoreRaw
			scoreCount++
		}
	}
	var avgScore *float64
	if scoreCount > 0 {
		avg := scoreSum / float64(scoreCount)
		avgScore = &avg
	}

	// Launch URL only exists for a valid package with extracted content
	var launchUrl string
	if pkg.Status == scormModels.StatusValid && pkg.LaunchUrl != "" {
		launchUrl = ContentPath(&pkg)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Package fetched successfully!", fiber.Map{
		"package":    pkg,
		"launch_url": launchUrl,
		"tracking":   trackings,
		"tracking_stats": fiber.Map{
			"total_learners": len(trackings),
			"completed":      completed,
			"in_progress":    inProgress,
			"avg_score":      avgScore,
		},
	})
}

// UpdatePackage edits package metadata
func UpdatePackage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	packageID := c.Locals("packageID").(int)

	var pkg scormModels.ScormPackage
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", packageID, user.OrganizationID, false).First(&pkg).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Package not found!", nil)
	}

	reqData := c.Locals("validatedPackageUpdate").(map[string]interface{})
	if len(reqData) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := database.Database.Db.Model(&pkg).Updates(reqData).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update package!", nil)
	}

	database.Database.Db.First(&pkg, pkg.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Package updated successfully!", pkg)
}

// DeletePackage removes a package and its extracted content. Packages with
// tracking data are protected; archive them instead.
func DeletePackage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	packageID := c.Locals("packageID").(int)

	var pkg scormModels.ScormPackage
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", packageID, user.OrganizationID, false).First(&pkg).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Package not found!", nil)
	}

	var usageCount int64
	database.Database.Db.Model(&scormModels.ScormTracking{}).Where("package_id = ?", pkg.ID).Count(&usageCount)
	if usageCount > 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Package is used by learners. Archive it instead of deleting.", fiber.Map{
			"usage_count": usageCount,
		})
	}

	if err := utils.RemovePackage(config.AppConfig.StorageDir, pkg.StoragePath); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to remove package content!", nil)
	}

	if err := database.Database.Db.Model(&pkg).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete package!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Package deleted successfully!", nil)
}

// ContentPath builds the serve path of a package's launch target
func ContentPath(pkg *scormModels.ScormPackage) string {
	return "/lms/content/" + pkg.StoragePath + "/" + pkg.LaunchUrl
}
