package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"room.jpg", true},
		{"room.JPEG", true},
		{"room.png", true},
		{"room.webp", true},
		{"room.gif", true},
		{"room.tiff", false},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsImageFile(tt.name), tt.name)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.JPG"))
	assert.Equal(t, "image/webp", ContentType("dir/a.webp"))
	assert.Equal(t, "", ContentType("a.txt"))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "living_annotated.jpg"), OutputPath("/photos/living.png", "out", "_annotated", "jpg"))
	assert.Equal(t, filepath.Join("out", "living_analysis.json"), OutputPath("living.png", "out", "_analysis", "json"))
	assert.Equal(t, filepath.Join("out", "a_b_analysis.json"), OutputPath("a:b.jpg", "out", "_analysis", "json"))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.jpg", "a.png", "notes.txt", filepath.Join("sub", "c.webp")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "sub", "c.webp"),
	}, files)

	_, err = ListImageFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "nope")))

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, EnsureDir(nested))
	assert.True(t, DirExists(nested))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "name", SanitizeFilename("  name. "))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "10.0 MB", FormatFileSize(10*1024*1024))
}
