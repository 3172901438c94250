package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dohr-michael/dayplan/internal/goals"
)

const goalColumns = `id, student_id, title, description, category, priority, status, progress, target_date, key_results`

// ListActive implements goals.GoalStore.
func (s *Store) ListActive(ctx context.Context, studentID string) ([]goals.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM learning_goals
		WHERE student_id = ? AND status IN (?, ?)
		ORDER BY
			CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 WHEN 'low' THEN 2 ELSE 3 END,
			target_date IS NULL,
			target_date ASC,
			created_at ASC`,
		studentID, string(goals.StatusNotStarted), string(goals.StatusInProgress),
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []goals.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// UpsertGoal creates or replaces a goal.
func (s *Store) UpsertGoal(ctx context.Context, g goals.Goal) error {
	krs, err := json.Marshal(g.KeyResults)
	if err != nil {
		return fmt.Errorf("marshal key results: %w", err)
	}
	if g.KeyResults == nil {
		krs = []byte("[]")
	}
	var target any
	if g.TargetDate != nil {
		target = g.TargetDate.Format(time.DateOnly)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learning_goals (`+goalColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			student_id = excluded.student_id, title = excluded.title,
			description = excluded.description, category = excluded.category,
			priority = excluded.priority, status = excluded.status,
			progress = excluded.progress, target_date = excluded.target_date,
			key_results = excluded.key_results`,
		g.ID, g.StudentID, g.Title, g.Description, string(g.Category),
		string(g.Priority), string(g.Status), g.Progress, target, string(krs),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert goal %s: %w", g.ID, err)
	}
	return nil
}

func scanGoal(s scanner) (*goals.Goal, error) {
	var g goals.Goal
	var category, priority, status, krJSON string
	var target sql.NullString

	err := s.Scan(
		&g.ID, &g.StudentID, &g.Title, &g.Description,
		&category, &priority, &status, &g.Progress,
		&target, &krJSON,
	)
	if err != nil {
		return nil, err
	}

	g.Category = goals.Category(category)
	g.Priority = goals.Priority(priority)
	g.Status = goals.Status(status)
	if err := json.Unmarshal([]byte(krJSON), &g.KeyResults); err != nil {
		return nil, fmt.Errorf("goal %s: decode key results: %w", g.ID, err)
	}
	if target.Valid && target.String != "" {
		d, err := time.Parse(time.DateOnly, target.String)
		if err != nil {
			return nil, fmt.Errorf("goal %s: parse target date: %w", g.ID, err)
		}
		g.TargetDate = &d
	}
	return &g, nil
}
