// Package storage persists uploaded room images and analysis history.
// Writes are best effort: callers log failures and carry on.
package storage

import (
	"context"
	"errors"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

var (
	// ErrStorageWrite wraps any failure to persist an image or record
	ErrStorageWrite = errors.New("storage write failed")
	// ErrInvalidKey is returned for keys that escape the store root
	ErrInvalidKey = errors.New("invalid storage key")
)

// ImagePrefix is the key prefix for uploaded room images
const ImagePrefix = "room-images"

// DefaultHistoryLimit is the number of records returned by history queries
const DefaultHistoryLimit = 10

// ImageStore stores an image and returns its public URL
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// HistoryStore keeps past analyses per user
type HistoryStore interface {
	Save(ctx context.Context, rec Record) (string, error)
	Recent(ctx context.Context, userID string, limit int) ([]Record, error)
}

// Record is one persisted analysis
type Record struct {
	ID               string                 `json:"id"`
	UserID           *string                `json:"user_id,omitempty"`
	ImageURL         *string                `json:"image_url"`
	RoomType         string                 `json:"room_type"`
	StyleDetected    string                 `json:"style_detected"`
	ImprovementScore float64                `json:"improvement_score"`
	DetectedObjects  []types.DetectedObject `json:"detected_objects"`
	FullAnalysis     *types.RoomAnalysis    `json:"full_analysis"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NewRecord builds a history record from a finished analysis
func NewRecord(userID string, imageURL *string, result *types.AnalysisResult) Record {
	analysis := result.Analysis
	rec := Record{
		ImageURL:         imageURL,
		RoomType:         analysis.RoomType,
		StyleDetected:    analysis.StyleDetected,
		ImprovementScore: analysis.ImprovementScore,
		DetectedObjects:  result.DetectedObjects,
		FullAnalysis:     &analysis,
	}
	if userID != "" {
		rec.UserID = &userID
	}
	if rec.DetectedObjects == nil {
		rec.DetectedObjects = []types.DetectedObject{}
	}
	return rec
}

// ImageKey returns a fresh key under ImagePrefix with an extension matching
// the content type
func ImageKey(contentType string) string {
	return ImagePrefix + "/" + uuid.NewString() + extension(contentType)
}

func extension(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".jpg"
	}
	switch mt {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if strings.HasPrefix(mt, "image/") {
		return "." + strings.TrimPrefix(mt, "image/")
	}
	return ".jpg"
}
