package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Student is the minimal student record the planner needs.
type Student struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Exists implements goals.StudentStore.
func (s *Store) Exists(ctx context.Context, studentID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM students WHERE id = ?`, studentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup student: %w", err)
	}
	return true, nil
}

// UpsertStudent creates or renames a student.
func (s *Store) UpsertStudent(ctx context.Context, st Student) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		st.ID, st.Name, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert student %s: %w", st.ID, err)
	}
	return nil
}
