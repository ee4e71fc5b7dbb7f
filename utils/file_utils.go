package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// Default base directory for storing uploaded files
	uploadBaseDir = "uploads"
	// Base URL for serving files
	baseURL = "/uploads"
)

// uploadRoot resolves the storage root, honoring the UPLOAD_DIR override.
func uploadRoot() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return uploadBaseDir
}

// Subdirectories for application documents.
const (
	IDDocumentDir        = "agent-applications/id-documents"
	StudentIDDocumentDir = "agent-applications/student-ids"
	ProductImageDir      = "products"
	ProfilePictureDir    = "profiles"
)

// Allowed extensions per upload purpose.
var (
	documentExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".pdf":  true,
	}
	imageExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
)

// MaxUploadSize is the ceiling for a single uploaded file (5 MiB).
const MaxUploadSize = 5 * 1024 * 1024

// cleanFilename removes any potentially dangerous characters from the filename
func cleanFilename(filename string) string {
	filename = filepath.Base(filename)
	reg := regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	return reg.ReplaceAllString(filename, "")
}

// ValidateDocument checks size and extension before anything is written.
func ValidateDocument(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large. Maximum size is %d bytes", MaxUploadSize)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !documentExts[ext] {
		return fmt.Errorf("unsupported document format. Allowed formats: jpg, jpeg, png, pdf")
	}
	return nil
}

// ValidateImage checks size and extension for image uploads.
func ValidateImage(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large. Maximum size is %d bytes", MaxUploadSize)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png")
	}
	return nil
}

// StoredPath builds the uuid-prefixed relative path a file will live at.
// The uuid prefix keeps concurrent submissions from colliding on identical
// client filenames.
func StoredPath(subDir, filename string) string {
	cleanName := cleanFilename(filename)
	if cleanName == "" || cleanName == "." {
		cleanName = "upload"
	}
	return filepath.Join(subDir, uuid.New().String()+"_"+cleanName)
}

// StoreUpload validates and writes a multipart file under uploads/<subDir>,
// returning the stable relative path for later retrieval.
func StoreUpload(file *multipart.FileHeader, subDir string) (string, error) {
	if err := ValidateDocument(file); err != nil {
		return "", err
	}

	relPath := StoredPath(subDir, file.Filename)
	fullPath := filepath.Join(uploadRoot(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", filepath.Dir(fullPath), err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %v", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write file %s: %v", fullPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file %s: %v", fullPath, err)
	}

	return relPath, nil
}

// StoreImageResized validates and writes an image upload, resizing it down
// to maxWidth while keeping aspect ratio.
func StoreImageResized(file *multipart.FileHeader, subDir string, maxWidth int) (string, error) {
	if err := ValidateImage(file); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %v", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	relPath := StoredPath(subDir, file.Filename)
	fullPath := filepath.Join(uploadRoot(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %v", filepath.Dir(fullPath), err)
	}

	if err := imaging.Save(img, fullPath); err != nil {
		return "", fmt.Errorf("failed to save image: %v", err)
	}

	return relPath, nil
}

// DeleteUpload removes a stored file. Deleting a path that is already gone
// is not an error.
func DeleteUpload(relPath string) error {
	if relPath == "" {
		return nil
	}
	fullPath := filepath.Join(uploadRoot(), relPath)
	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %v", fullPath, err)
	}
	return nil
}

// UploadExists reports whether a stored file is present on disk.
func UploadExists(relPath string) bool {
	if relPath == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(uploadRoot(), relPath))
	return err == nil && !info.IsDir()
}

// UploadFullPath resolves a stored relative path to the on-disk location.
func UploadFullPath(relPath string) string {
	return filepath.Join(uploadRoot(), relPath)
}

// UploadURL returns the public URL for a stored relative path.
func UploadURL(relPath string) string {
	return baseURL + "/" + filepath.ToSlash(relPath)
}

