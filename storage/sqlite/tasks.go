package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"taskboard/domain"
)

// LoadTasks returns the tasks of a project, newest first, with their tags.
func (db *DB) LoadTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, project_id, title, description, status, priority, owner_id, due_date, created_at, updated_at,
			output_format, prompts
		FROM tasks
		WHERE project_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, projectID)
	if err != nil {
		return nil, err
	}

	tasks := []domain.Task{}
	index := map[string]int{}
	for rows.Next() {
		var t domain.Task
		var due sql.NullString
		var status, priority, format, prompts string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority,
			&t.OwnerID, &due, &t.CreatedAt, &t.UpdatedAt, &format, &prompts); err != nil {
			rows.Close()
			return nil, err
		}
		if t.DueDate, err = domain.ParseDueDate(due.String); err != nil {
			rows.Close()
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		if t.Status = domain.Status(status); !t.Status.Valid() {
			t.Status = domain.DefaultStatus
		}
		if t.Priority = domain.Priority(priority); !t.Priority.Valid() {
			t.Priority = domain.DefaultPriority
		}
		if t.OutputFormat = domain.OutputFormat(format); !t.OutputFormat.Valid() {
			t.OutputFormat = domain.DefaultOutputFormat
		}
		if prompts != "" {
			if err := json.Unmarshal([]byte(prompts), &t.Prompts); err != nil {
				rows.Close()
				return nil, fmt.Errorf("task %s prompts: %w", t.ID, err)
			}
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := db.loadTags(ctx, projectID, tasks, index); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (db *DB) loadTags(ctx context.Context, projectID string, tasks []domain.Task, index map[string]int) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tt.task_id, tt.tag
		FROM task_tags tt
		JOIN tasks t ON t.id = tt.task_id
		WHERE t.project_id = ?
		ORDER BY tt.task_id, tt.position
	`, projectID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return err
		}
		if i, ok := index[id]; ok {
			tasks[i].Tags = append(tasks[i].Tags, tag)
		}
	}
	return rows.Err()
}

// SaveTask creates or replaces a task and its tags.
func (db *DB) SaveTask(ctx context.Context, t domain.Task) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var due sql.NullString
	if t.DueDate != nil {
		due = sql.NullString{String: t.DueDate.Format(domain.DueDateLayout), Valid: true}
	}
	var prompts string
	if len(t.Prompts) > 0 {
		raw, err := json.Marshal(t.Prompts)
		if err != nil {
			return err
		}
		prompts = string(raw)
	}
	format := t.OutputFormat
	if !format.Valid() {
		format = domain.DefaultOutputFormat
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, priority, owner_id, due_date, created_at, updated_at,
			output_format, prompts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			owner_id = excluded.owner_id,
			due_date = excluded.due_date,
			updated_at = excluded.updated_at,
			output_format = excluded.output_format,
			prompts = excluded.prompts
	`, t.ID, t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority), t.OwnerID, due,
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(), string(format), prompts); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = ?", t.ID); err != nil {
		return err
	}
	for i, tag := range t.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_tags (task_id, position, tag) VALUES (?, ?, ?)", t.ID, i, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteTask removes a task. Tags go with it through the foreign key cascade.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

// Apply persists a board change.
func (db *DB) Apply(ctx context.Context, change domain.Change) error {
	switch change.Op {
	case domain.TaskCreated, domain.TaskUpdated:
		return db.SaveTask(ctx, change.Task)
	case domain.TaskDeleted:
		return db.DeleteTask(ctx, change.Task.ID)
	}
	return fmt.Errorf("unknown change op %q", change.Op)
}
