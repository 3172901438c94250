package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dohr-michael/dayplan/internal/sessions"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

const taskColumns = `id, student_id, task_content, task_category, estimated_minutes, status,
	source_goal_id, source_key_result_index, goal_title, generation_session_id, task_order,
	task_date, created_at, completed_at, actual_minutes, difficulty_rating, completion_notes`

// InsertBatch implements sessions.TaskStore. Rows are written in a single
// transaction.
func (s *Store) InsertBatch(ctx context.Context, ts []tasks.Persisted) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_tasks (`+taskColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range ts {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.StudentID, t.Content, t.Category, t.EstimatedMinutes, string(t.Status),
			nullString(t.SourceGoalID), t.SourceKeyResultIndex, t.GoalTitle, t.SessionID, t.Order,
			t.TaskDate, t.CreatedAt.UTC(), nullTime(t.CompletedAt),
			nullInt(t.ActualMinutes), nullInt(t.DifficultyRating), nullString(t.CompletionNotes),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert task %d: %w", t.Order, sessions.ErrDuplicateSession)
			}
			return fmt.Errorf("insert task %d: %w", t.Order, err)
		}
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// ListForDate implements sessions.TaskStore.
func (s *Store) ListForDate(ctx context.Context, studentID, date string) ([]tasks.Persisted, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM daily_tasks
		WHERE student_id = ? AND task_date = ?
		ORDER BY created_at ASC, generation_session_id ASC, task_order ASC`,
		studentID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []tasks.Persisted
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Get implements sessions.TaskStore.
func (s *Store) Get(ctx context.Context, id string) (*tasks.Persisted, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM daily_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", sessions.ErrTaskNotFound, id)
	}
	return t, err
}

// UpdateStatus implements sessions.TaskStore.
func (s *Store) UpdateStatus(ctx context.Context, id string, status tasks.TaskStatus, completedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE daily_tasks SET status = ?, completed_at = ? WHERE id = ?`,
		string(status), nullTime(completedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", sessions.ErrTaskNotFound, id)
	}
	return nil
}

// InsertSession implements sessions.SessionStore.
func (s *Store) InsertSession(ctx context.Context, sess tasks.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_task_sessions
			(id, student_id, generation_date, total_tasks, based_on_goals, descriptor, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		sess.ID, sess.StudentID, sess.GenerationDate, sess.TotalTasks,
		marshalList(sess.BasedOnGoals), sess.Descriptor, sess.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns a session summary by id.
func (s *Store) GetSession(ctx context.Context, id string) (*tasks.Session, error) {
	var sess tasks.Session
	var basedOn string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, generation_date, total_tasks, based_on_goals, descriptor, created_at
		FROM daily_task_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.StudentID, &sess.GenerationDate, &sess.TotalTasks, &basedOn, &sess.Descriptor, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := json.Unmarshal([]byte(basedOn), &sess.BasedOnGoals); err != nil {
		return nil, fmt.Errorf("session %s: decode goals: %w", id, err)
	}
	return &sess, nil
}

func scanTask(s scanner) (*tasks.Persisted, error) {
	var t tasks.Persisted
	var status string
	var sourceGoal, notes sql.NullString
	var completedAt sql.NullTime
	var actual, difficulty sql.NullInt64

	err := s.Scan(
		&t.ID, &t.StudentID, &t.Content, &t.Category, &t.EstimatedMinutes, &status,
		&sourceGoal, &t.SourceKeyResultIndex, &t.GoalTitle, &t.SessionID, &t.Order,
		&t.TaskDate, &t.CreatedAt, &completedAt, &actual, &difficulty, &notes,
	)
	if err != nil {
		return nil, err
	}

	t.Status = tasks.TaskStatus(status)
	if sourceGoal.Valid {
		t.SourceGoalID = &sourceGoal.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	if actual.Valid {
		v := int(actual.Int64)
		t.ActualMinutes = &v
	}
	if difficulty.Valid {
		v := int(difficulty.Int64)
		t.DifficultyRating = &v
	}
	if notes.Valid {
		t.CompletionNotes = &notes.String
	}
	return &t, nil
}
