package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// PostgresHistory stores analyses in the analyses table
type PostgresHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenPostgres connects using a lib/pq DSN and prepares the schema
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresHistory, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	h, err := NewPostgresHistory(ctx, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

// NewPostgresHistory wraps an open database and creates the table if needed
func NewPostgresHistory(ctx context.Context, db *sql.DB, logger *zap.Logger) (*PostgresHistory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &PostgresHistory{db: db, logger: logger}
	if err := h.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure analyses table: %w", err)
	}
	return h, nil
}

func (h *PostgresHistory) ensureTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS analyses (
			id UUID PRIMARY KEY,
			user_id TEXT,
			image_url TEXT,
			room_type TEXT NOT NULL DEFAULT 'unknown',
			style_detected TEXT NOT NULL DEFAULT 'unknown',
			improvement_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			detected_objects JSONB NOT NULL DEFAULT '[]',
			full_analysis JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS analyses_user_created_idx ON analyses (user_id, created_at DESC);
	`
	if _, err := h.db.ExecContext(ctx, query); err != nil {
		return err
	}
	h.logger.Debug("analyses table ready")
	return nil
}

// Save inserts a record and returns its id
func (h *PostgresHistory) Save(ctx context.Context, rec Record) (string, error) {
	objects, err := json.Marshal(rec.DetectedObjects)
	if err != nil {
		return "", fmt.Errorf("%w: encoding detected objects: %v", ErrStorageWrite, err)
	}
	var analysis []byte
	if rec.FullAnalysis != nil {
		if analysis, err = json.Marshal(rec.FullAnalysis); err != nil {
			return "", fmt.Errorf("%w: encoding analysis: %v", ErrStorageWrite, err)
		}
	}

	query := `
		INSERT INTO analyses (id, user_id, image_url, room_type, style_detected, improvement_score, detected_objects, full_analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	id := uuid.NewString()
	_, err = h.db.ExecContext(ctx, query,
		id,
		nullString(rec.UserID),
		nullString(rec.ImageURL),
		rec.RoomType,
		rec.StyleDetected,
		rec.ImprovementScore,
		string(objects),
		nullBytes(analysis),
	)
	if err != nil {
		return "", fmt.Errorf("%w: inserting analysis: %v", ErrStorageWrite, err)
	}
	return id, nil
}

// Recent returns the newest records for userID
func (h *PostgresHistory) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, user_id, image_url, room_type, style_detected, improvement_score,
		       detected_objects, full_analysis, created_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := h.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return out, nil
}

// Close closes the database
func (h *PostgresHistory) Close() error {
	return h.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec      Record
		userID   sql.NullString
		imageURL sql.NullString
		objects  []byte
		analysis []byte
	)
	if err := s.Scan(&rec.ID, &userID, &imageURL, &rec.RoomType, &rec.StyleDetected,
		&rec.ImprovementScore, &objects, &analysis, &rec.CreatedAt); err != nil {
		return Record{}, fmt.Errorf("failed to scan history row: %w", err)
	}
	return decodeRecord(rec, userID, imageURL, objects, analysis)
}

func decodeRecord(rec Record, userID, imageURL sql.NullString, objects, analysis []byte) (Record, error) {
	if userID.Valid {
		rec.UserID = &userID.String
	}
	if imageURL.Valid {
		rec.ImageURL = &imageURL.String
	}

	rec.DetectedObjects = []types.DetectedObject{}
	if len(objects) > 0 {
		if err := json.Unmarshal(objects, &rec.DetectedObjects); err != nil {
			return Record{}, fmt.Errorf("failed to decode detected objects: %w", err)
		}
	}
	if len(analysis) > 0 {
		var a types.RoomAnalysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return Record{}, fmt.Errorf("failed to decode analysis: %w", err)
		}
		rec.FullAnalysis = &a
	}
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
