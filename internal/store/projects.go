package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sadopc/hourtree/internal/logging"
	"github.com/sadopc/hourtree/internal/rollup"
)

// GetProjects returns every non-archived project with its direct children and
// recursive totals filled in.
func (s *Store) GetProjects() ([]Project, error) {
	return s.ListProjects(false)
}

// ListProjects is GetProjects with archived rows optionally included.
func (s *Store) ListProjects(includeArchived bool) ([]Project, error) {
	all, err := s.loadProjects()
	if err != nil {
		return nil, storageErr("get projects", err)
	}
	own, err := s.ownDurations()
	if err != nil {
		return nil, storageErr("get projects", err)
	}

	nodes := make([]rollup.Node, len(all))
	for i, p := range all {
		nodes[i] = rollup.Node{ID: p.ID, Parent: p.Parent}
	}
	agg := rollup.Compute(nodes, own)

	var projects []Project
	for _, p := range all {
		if p.Archived && !includeArchived {
			continue
		}
		r := agg[p.ID]
		p.Children = r.Children
		p.TotalSeconds = r.TotalSeconds
		p.TotalHours = rollup.Hours(r.TotalSeconds)
		projects = append(projects, p)
	}
	return projects, nil
}

func (s *Store) loadProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT id, name, target_hours, parent, archived FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) ownDurations() (map[int64]int64, error) {
	rows, err := s.db.Query(`
		SELECT project_id, SUM(duration)
		FROM work
		WHERE project_id IS NOT NULL
		GROUP BY project_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	own := make(map[int64]int64)
	for rows.Next() {
		var id, secs int64
		if err := rows.Scan(&id, &secs); err != nil {
			return nil, err
		}
		own[id] = secs
	}
	return own, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(r scanner) (Project, error) {
	var p Project
	var target sql.NullFloat64
	var parent sql.NullInt64
	var archived int
	if err := r.Scan(&p.ID, &p.Name, &target, &parent, &archived); err != nil {
		return Project{}, err
	}
	if target.Valid {
		p.TargetHours = &target.Float64
	}
	if parent.Valid {
		p.Parent = &parent.Int64
	}
	p.Archived = archived == 1
	return p, nil
}

// GetProject returns a single row, archived or not, without derived fields.
func (s *Store) GetProject(id int64) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(
		`SELECT id, name, target_hours, parent, archived FROM projects WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, storageErr(fmt.Sprintf("get project %d", id), err)
	}
	return &p, nil
}

// AddProject inserts an unnamed project and returns its id. The parent is not
// checked for archival.
func (s *Store) AddProject(parent *int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO projects (name, parent) VALUES ('', ?) RETURNING id`, parent,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("add project", err)
	}
	logging.Logger().Debug("project added", "id", id, "parent", parent)
	return id, nil
}

// UpdateProject overwrites name, target hours and parent. It returns the number of
// rows changed; zero means the project no longer exists.
func (s *Store) UpdateProject(p Project) (int64, error) {
	if p.Parent != nil {
		if err := s.checkParent(p.ID, *p.Parent); err != nil {
			return 0, err
		}
	}
	res, err := s.db.Exec(
		`UPDATE projects SET name = ?, target_hours = ?, parent = ? WHERE id = ?`,
		p.Name, p.TargetHours, p.Parent, p.ID,
	)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("update project %d", p.ID), err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// checkParent rejects a parent that is the project itself, missing, archived, or
// one of the project's own descendants.
func (s *Store) checkParent(id, parent int64) error {
	if parent == id {
		return fmt.Errorf("project %d as its own parent: %w", id, ErrInvalidParent)
	}

	seen := map[int64]bool{}
	cur := parent
	for {
		var up sql.NullInt64
		var archived int
		err := s.db.QueryRow(`SELECT parent, archived FROM projects WHERE id = ?`, cur).Scan(&up, &archived)
		if errors.Is(err, sql.ErrNoRows) {
			if cur == parent {
				return fmt.Errorf("parent %d does not exist: %w", parent, ErrInvalidParent)
			}
			return nil
		}
		if err != nil {
			return storageErr("check parent", err)
		}
		if cur == parent && archived == 1 {
			return fmt.Errorf("parent %d is archived: %w", parent, ErrInvalidParent)
		}
		if !up.Valid || seen[up.Int64] {
			return nil
		}
		if up.Int64 == id {
			return fmt.Errorf("parent %d is a descendant of %d: %w", parent, id, ErrInvalidParent)
		}
		seen[cur] = true
		cur = up.Int64
	}
}

// ArchiveOrDeleteProject permanently deletes a project that has neither recorded
// work nor direct children, together with its tasks. Anything else is archived so
// its history keeps counting towards its ancestors.
func (s *Store) ArchiveOrDeleteProject(id int64) (Removal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return RemovalNone, storageErr("archive project", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return RemovalNone, storageErr("archive project", err)
	}
	if exists == 0 {
		return RemovalNone, nil
	}

	var sessions, children int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM work WHERE project_id = ?`, id).Scan(&sessions); err != nil {
		return RemovalNone, storageErr("archive project", err)
	}
	if err := tx.QueryRow(`SELECT COUNT(*) FROM projects WHERE parent = ?`, id).Scan(&children); err != nil {
		return RemovalNone, storageErr("archive project", err)
	}

	result := RemovalArchived
	if sessions == 0 && children == 0 {
		if _, err := tx.Exec(`DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
			return RemovalNone, storageErr("delete project tasks", err)
		}
		if _, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
			return RemovalNone, storageErr("delete project", err)
		}
		result = RemovalDeleted
	} else {
		if _, err := tx.Exec(`UPDATE projects SET archived = 1 WHERE id = ?`, id); err != nil {
			return RemovalNone, storageErr("archive project", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return RemovalNone, storageErr("archive project", err)
	}
	logging.Logger().Info("project removed", "id", id, "result", result.String(),
		"sessions", sessions, "children", children)
	return result, nil
}
