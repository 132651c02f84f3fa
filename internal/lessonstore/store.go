// Package lessonstore archives generated daily lessons in SQLite.
package lessonstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/capitalize-ai/theology-chat/internal/model"
)

// ErrNotFound is returned when no lesson is archived for a topic and day.
var ErrNotFound = errors.New("lesson not found")

const dayLayout = "2006-01-02"

// Store implements a SQLite archive of lessons, one per topic and day.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS lessons (
			topic TEXT NOT NULL,
			day TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (topic, day)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating lessons table: %w", err)
	}

	return &Store{db: db}, nil
}

// Save archives a lesson, replacing any lesson for the same topic and day.
func (s *Store) Save(ctx context.Context, lesson *model.Lesson) error {
	date := lesson.Date.UTC()
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO lessons (topic, day, content, created_at)
		VALUES (?, ?, ?, ?)
	`, lesson.Topic, date.Format(dayLayout), lesson.Content, date.UnixMicro())
	if err != nil {
		return fmt.Errorf("writing lesson to database: %w", err)
	}
	return nil
}

// Get returns the lesson archived for topic on the day of date.
func (s *Store) Get(ctx context.Context, topic string, date time.Time) (*model.Lesson, error) {
	var (
		lesson    model.Lesson
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT topic, content, created_at
		FROM lessons
		WHERE topic = ? AND day = ?
	`, topic, date.UTC().Format(dayLayout)).Scan(&lesson.Topic, &lesson.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying lesson: %w", err)
	}
	lesson.Date = time.UnixMicro(createdAt).UTC()
	return &lesson, nil
}

// List returns up to limit archived lessons, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]model.Lesson, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT topic, content, created_at
		FROM lessons
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		var (
			lesson    model.Lesson
			createdAt int64
		)
		if err := rows.Scan(&lesson.Topic, &lesson.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		lesson.Date = time.UnixMicro(createdAt).UTC()
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lessons: %w", err)
	}
	return lessons, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
