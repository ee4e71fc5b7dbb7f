package utils

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multipartFile builds a real multipart file header carrying content.
func multipartFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(10 << 20)
	require.NoError(t, err)

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, ValidateDocument(&multipart.FileHeader{Filename: "id.pdf", Size: 1024}))
	assert.NoError(t, ValidateDocument(&multipart.FileHeader{Filename: "id.JPG", Size: 1024}))

	err := ValidateDocument(&multipart.FileHeader{Filename: "id.pdf", Size: MaxUploadSize + 1})
	assert.ErrorContains(t, err, "file too large")

	err = ValidateDocument(&multipart.FileHeader{Filename: "id.exe", Size: 1024})
	assert.ErrorContains(t, err, "unsupported document format")
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(&multipart.FileHeader{Filename: "photo.png", Size: 1024}))

	// PDFs are documents, not images.
	err := ValidateImage(&multipart.FileHeader{Filename: "photo.pdf", Size: 1024})
	assert.ErrorContains(t, err, "unsupported image format")
}

func TestStoredPath(t *testing.T) {
	path := StoredPath(IDDocumentDir, "my id (scan).pdf")

	assert.True(t, strings.HasPrefix(filepath.ToSlash(path), IDDocumentDir+"/"))

	name := filepath.Base(path)
	// uuid prefix keeps identical client filenames from colliding.
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}_`), name)
	assert.NotContains(t, name, "(")
	assert.NotContains(t, name, " ")

	other := StoredPath(IDDocumentDir, "my id (scan).pdf")
	assert.NotEqual(t, path, other)
}

func TestStoredPathEmptyFilename(t *testing.T) {
	path := StoredPath(IDDocumentDir, "../../")
	assert.True(t, strings.HasSuffix(path, "_upload"))
}

func TestStoreAndDeleteUpload(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())

	file := multipartFile(t, "id.pdf", []byte("%PDF-1.4 test"))

	relPath, err := StoreUpload(file, IDDocumentDir)
	require.NoError(t, err)
	assert.True(t, UploadExists(relPath))

	content, err := os.ReadFile(UploadFullPath(relPath))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(content))

	require.NoError(t, DeleteUpload(relPath))
	assert.False(t, UploadExists(relPath))

	// Deleting again is not an error.
	assert.NoError(t, DeleteUpload(relPath))
}

func TestStoreUploadRejectsInvalid(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())

	file := multipartFile(t, "malware.exe", []byte("nope"))
	_, err := StoreUpload(file, IDDocumentDir)
	assert.Error(t, err)
}

func TestUploadURL(t *testing.T) {
	assert.Equal(t, "/uploads/products/abc.png", UploadURL(filepath.Join("products", "abc.png")))
}

func TestDeleteUploadEmptyPath(t *testing.T) {
	assert.NoError(t, DeleteUpload(""))
	assert.False(t, UploadExists(""))
}
