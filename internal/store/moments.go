package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ishaan-bit/reverie/internal/recap"
)

// NewMomentID mints a ULID for a moment created at t. ULIDs sort by
// creation time, which keeps the primary key aligned with the main query
// pattern (recent moments per user).
func NewMomentID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// CreateMoment inserts a moment. An empty ID is minted, an empty NormText
// is derived from Text, and a zero CreatedAt defaults to now. The passed
// struct is updated with the stored values.
func (db *DB) CreateMoment(ctx context.Context, m *recap.Moment) error {
	if m.UserID == "" {
		return fmt.Errorf("moment user_id required")
	}
	if _, err := recap.ParseMood(string(m.Mood)); err != nil {
		return err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.ID == "" {
		m.ID = NewMomentID(m.CreatedAt)
	}
	if m.NormText == "" {
		m.NormText = recap.NormalizeText(m.Text)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO moments (id, user_id, created_at, text, norm_text, mood, valence, arousal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.CreatedAt.UnixMilli(), m.Text, m.NormText, string(m.Mood),
		nullable(m.Valence), nullable(m.Arousal),
	)
	if err != nil {
		return fmt.Errorf("insert moment: %w", err)
	}
	return nil
}

// GetMoment fetches one moment by id. Returns (nil, nil) when absent.
func (db *DB) GetMoment(ctx context.Context, id string) (*recap.Moment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, text, norm_text, mood, valence, arousal
		FROM moments WHERE id = ?`, id)

	m, err := scanMoment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get moment %s: %w", id, err)
	}
	return m, nil
}

// ListMomentsSince returns a user's moments created at or after since,
// newest first. This is the record-provider surface the recap builder
// consumes; it makes no ordering promise the core relies on.
func (db *DB) ListMomentsSince(ctx context.Context, userID string, since time.Time) ([]recap.Moment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, created_at, text, norm_text, mood, valence, arousal
		FROM moments
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC`,
		userID, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}
	defer rows.Close()

	var out []recap.Moment
	for rows.Next() {
		m, err := scanMoment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan moment: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// CountMoments returns how many moments a user has recorded in total.
func (db *DB) CountMoments(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM moments WHERE user_id = ?", userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count moments: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMoment(row rowScanner) (*recap.Moment, error) {
	var (
		m         recap.Moment
		createdAt int64
		mood      string
		valence   sql.NullFloat64
		arousal   sql.NullFloat64
	)
	if err := row.Scan(&m.ID, &m.UserID, &createdAt, &m.Text, &m.NormText, &mood, &valence, &arousal); err != nil {
		return nil, err
	}
	m.CreatedAt = time.UnixMilli(createdAt)
	m.Mood = recap.Mood(mood)
	if valence.Valid {
		v := valence.Float64
		m.Valence = &v
	}
	if arousal.Valid {
		a := arousal.Float64
		m.Arousal = &a
	}
	return &m, nil
}

func nullable(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
