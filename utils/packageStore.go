package utils

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ReadZipEntry returns the contents of one file inside a zip archive, or an
// error when the entry does not exist
func ReadZipEntry(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// ZipFileList returns the relative paths of every file in the archive,
// directories excluded
func ZipFileList(archive *zip.Reader) []string {
	files := make([]string, 0, len(archive.File))
	for _, f := range archive.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f.Name)
		}
	}
	return files
}

// ExtractPackage unpacks a package archive under storageDir and returns the
// relative storage path for the package. Entries escaping the target
// directory are rejected.
func ExtractPackage(data []byte, storageDir string, organizationID uint) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("invalid zip archive: %w", err)
	}

	relPath := filepath.Join(fmt.Sprintf("org_%d", organizationID), uuid.New().String())
	destDir := filepath.Join(storageDir, relPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return "", fmt.Errorf("illegal path in archive: %s", f.Name)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", err
		}
		if err := writeZipEntry(f, target); err != nil {
			return "", err
		}
	}
	return relPath, nil
}

// RemovePackage deletes the extracted content of a package from the store
func RemovePackage(storageDir, relPath string) error {
	if relPath == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(storageDir, relPath))
}

func writeZipEntry(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
