package controllers

import (
	"archive/zip"
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"lms/config"
	"lms/database"
	"lms/models"
	scormModels "lms/models/scorm"
	scormValidators "lms/validators/scorm"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const uploadTestManifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest identifier="com.example.upload" version="1.2">
  <metadata>
    <schemaversion>1.2</schemaversion>
  </metadata>
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <title>Safety Training</title>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" scormtype="sco" href="sco/start.html"/>
  </resources>
</manifest>`

func buildPackageZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// uploadTestApp wires the upload route with a stub auth layer and the real
// validator. Returns the app and the uploading user.
func uploadTestApp(t *testing.T, db *gorm.DB) (*fiber.App, *models.User) {
	t.Helper()
	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{StorageDir: t.TempDir()}

	org := &models.Organization{Name: "Acme Corp"}
	require.NoError(t, db.Create(org).Error)
	user := &models.User{Name: "Admin", Email: "admin@acme.test", Role: "ADMIN", OrganizationID: org.ID}
	require.NoError(t, db.Create(user).Error)

	app := fiber.New()
	app.Post("/lms/scorm/packages/", func(c *fiber.Ctx) error {
		c.Locals("userId", user.ID)
		return c.Next()
	}, scormValidators.UploadPackage(), UploadPackage)
	return app, user
}

func postUpload(t *testing.T, app *fiber.App, fileName string, content []byte) int {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/lms/scorm/packages/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func lastPackageRow(t *testing.T, db *gorm.DB) *scormModels.ScormPackage {
	t.Helper()
	var pkg scormModels.ScormPackage
	require.NoError(t, db.Order("id desc").First(&pkg).Error)
	return &pkg
}

func TestUploadPackageValid(t *testing.T) {
	db := setupTestDb(t)
	app, user := uploadTestApp(t, db)

	data := buildPackageZip(t, map[string]string{
		"imsmanifest.xml": uploadTestManifest,
		"sco/start.html":  "<html/>",
	})

	status := postUpload(t, app, "safety.zip", data)
	assert.Equal(t, fiber.StatusOK, status)

	pkg := lastPackageRow(t, db)
	assert.Equal(t, scormModels.StatusValid, pkg.Status)
	assert.Equal(t, "Safety Training", pkg.Title)
	assert.Equal(t, "SCORM_1_2", pkg.Version)
	assert.Equal(t, "sco/start.html", pkg.LaunchUrl)
	assert.Equal(t, user.OrganizationID, pkg.OrganizationID)
	assert.NotEmpty(t, pkg.StoragePath)
	assert.Empty(t, pkg.ErrorMessage)

	// Content is extracted into the store
	extracted, err := os.ReadFile(filepath.Join(config.AppConfig.StorageDir, pkg.StoragePath, "sco", "start.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html/>", string(extracted))
}

func TestUploadPackageMissingManifest(t *testing.T) {
	db := setupTestDb(t)
	app, _ := uploadTestApp(t, db)

	data := buildPackageZip(t, map[string]string{
		"index.html": "<html/>",
	})

	status := postUpload(t, app, "broken.zip", data)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// The row ends ERROR with the message stored; it is never left VALID
	pkg := lastPackageRow(t, db)
	assert.Equal(t, scormModels.StatusError, pkg.Status)
	assert.Contains(t, pkg.ErrorMessage, "imsmanifest.xml")

	var validCount int64
	db.Model(&scormModels.ScormPackage{}).Where("status = ?", scormModels.StatusValid).Count(&validCount)
	assert.Equal(t, int64(0), validCount)
}

func TestUploadPackageNotAZipArchive(t *testing.T) {
	db := setupTestDb(t)
	app, _ := uploadTestApp(t, db)

	status := postUpload(t, app, "garbage.zip", []byte("not a zip at all"))
	assert.Equal(t, fiber.StatusBadRequest, status)

	pkg := lastPackageRow(t, db)
	assert.Equal(t, scormModels.StatusError, pkg.Status)
	assert.Contains(t, pkg.ErrorMessage, "ZIP")
}

func TestUploadPackageMissingLaunchTarget(t *testing.T) {
	db := setupTestDb(t)
	app, _ := uploadTestApp(t, db)

	// Manifest points at sco/start.html but the archive does not contain it
	data := buildPackageZip(t, map[string]string{
		"imsmanifest.xml": uploadTestManifest,
		"other.html":      "<html/>",
	})

	status := postUpload(t, app, "dangling.zip", data)
	assert.Equal(t, fiber.StatusBadRequest, status)

	pkg := lastPackageRow(t, db)
	assert.Equal(t, scormModels.StatusError, pkg.Status)
	assert.Contains(t, pkg.ErrorMessage, "launch target")
}
