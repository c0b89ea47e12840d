package store

import (
	"database/sql"
	"fmt"
)

// GetTasks lists the tasks of a project, or the unattributed ones when projectID
// is nil.
func (s *Store) GetTasks(projectID *int64) ([]Task, error) {
	query := `SELECT id, name, project_id FROM tasks WHERE project_id IS NULL ORDER BY id`
	var args []any
	if projectID != nil {
		query = `SELECT id, name, project_id FROM tasks WHERE project_id = ? ORDER BY id`
		args = append(args, *projectID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var pid sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Name, &pid); err != nil {
			return nil, storageErr("list tasks", err)
		}
		if pid.Valid {
			t.ProjectID = &pid.Int64
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tasks", err)
	}
	return tasks, nil
}

func (s *Store) AddTask(name string, projectID *int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO tasks (name, project_id) VALUES (?, ?) RETURNING id`, name, projectID,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("add task", err)
	}
	return id, nil
}

// UpdateTask renames a task and returns the number of rows changed.
func (s *Store) UpdateTask(id int64, name string) (int64, error) {
	res, err := s.db.Exec(`UPDATE tasks SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("update task %d", id), err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) DeleteTask(id int64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("delete task %d", id), err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
