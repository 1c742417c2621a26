package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageTypes maps the extensions the pipeline can decode to MIME types
var imageTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// GetFileExtension returns the lowercase file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile reports whether filename has an extension the pipeline decodes
func IsImageFile(filename string) bool {
	_, ok := imageTypes[GetFileExtension(filename)]
	return ok
}

// ContentType returns the MIME type for an image path, or "" if unknown
func ContentType(filename string) string {
	return imageTypes[GetFileExtension(filename)]
}

// OutputPath returns outputDir/<name><suffix>.<ext> for an input file, e.g.
// living.png -> out/living_annotated.jpg
func OutputPath(inputFile, outputDir, suffix, ext string) string {
	base := filepath.Base(inputFile)
	name := SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
	return filepath.Join(outputDir, fmt.Sprintf("%s%s.%s", name, suffix, ext))
}

// ListImageFiles recursively lists image files under dir in lexical order
func ListImageFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImageFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	return files, err
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename replaces characters that are invalid in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	return strings.Trim(result, " .")
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
