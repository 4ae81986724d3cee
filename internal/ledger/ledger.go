// Ledger of issued marks, used to trace a leaked copy back to its run.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

var ErrDuplicatePayload = errors.New("payload already recorded")

type Record struct {
	ID           string
	Payload      string
	Source       string
	Output       string
	TotalFrames  int
	FramesMarked int
	Frequency    int
	CreatedAt    time.Time
}

type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS marks (
			id            TEXT PRIMARY KEY,
			payload       TEXT NOT NULL UNIQUE,
			source        TEXT NOT NULL,
			output        TEXT NOT NULL,
			total_frames  INTEGER NOT NULL,
			frames_marked INTEGER NOT NULL,
			frequency     INTEGER NOT NULL,
			created_at    DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) Save(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO marks (id, payload, source, output, total_frames, frames_marked, frequency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Payload, r.Source, r.Output, r.TotalFrames, r.FramesMarked, r.Frequency, r.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s", ErrDuplicatePayload, r.Payload)
		}
		return fmt.Errorf("save mark record: %w", err)
	}
	return nil
}

// Find returns records whose payload contains text, newest first.
// Partial matches help when only part of the mark could be recovered.
func (l *Ledger) Find(ctx context.Context, text string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, payload, source, output, total_frames, frames_marked, frequency, created_at
		 FROM marks WHERE instr(payload, ?) > 0 ORDER BY created_at DESC`,
		text,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Payload, &r.Source, &r.Output, &r.TotalFrames, &r.FramesMarked, &r.Frequency, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
