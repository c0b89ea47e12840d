package store

import (
	"errors"
	"math"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func mustAdd(t *testing.T, s *Store, name string, parent *int64) int64 {
	t.Helper()
	id, err := s.AddProject(parent)
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	if _, err := s.UpdateProject(Project{ID: id, Name: name, Parent: parent}); err != nil {
		t.Fatalf("name project: %v", err)
	}
	return id
}

func mustRecord(t *testing.T, s *Store, projectID *int64, start time.Time, secs int64) {
	t.Helper()
	err := s.AddWorkSession(WorkSession{TimeStart: start.Unix(), Duration: secs, ProjectID: projectID})
	if err != nil {
		t.Fatalf("add work session: %v", err)
	}
}

func byID(projects []Project) map[int64]Project {
	m := make(map[int64]Project, len(projects))
	for _, p := range projects {
		m[p.ID] = p
	}
	return m
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/hourtree.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := s.AddProject(nil)
	s.Close()

	// Reopen: data survives, migration is not re-run.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.GetProject(id); err != nil {
		t.Fatalf("project lost on reopen: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	if DefaultDBPath() == "" {
		t.Fatal("empty path")
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)
	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	if err := s.migrate(); err == nil {
		t.Fatal("expected error for a schema written by a newer build")
	}
}

// ============================================================
// Projects
// ============================================================

func TestAddProjectDefaults(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddProject(nil)
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected non-zero ID")
	}
	p, err := s.GetProject(id)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "" || p.Parent != nil || p.TargetHours != nil || p.Archived {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestAddProjectUnknownParent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddProject(ptr(int64(999)))
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError from foreign key, got %v", err)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProject(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProjectsEmpty(t *testing.T) {
	s := newTestStore(t)
	projects, err := s.GetProjects()
	if err != nil {
		t.Fatal(err)
	}
	if projects != nil {
		t.Fatalf("expected nil slice, got %d items", len(projects))
	}
}

func TestGetProjectsOrderedByID(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, "B", nil)
	b := mustAdd(t, s, "A", nil)

	projects, _ := s.GetProjects()
	if len(projects) != 2 || projects[0].ID != a || projects[1].ID != b {
		t.Fatalf("expected id order %d,%d: %+v", a, b, projects)
	}
}

func TestUpdateProject(t *testing.T) {
	s := newTestStore(t)
	root := mustAdd(t, s, "Root", nil)
	id := mustAdd(t, s, "Old", nil)

	n, err := s.UpdateProject(Project{ID: id, Name: "New", TargetHours: ptr(12.5), Parent: &root})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row affected, got %d", n)
	}
	p, _ := s.GetProject(id)
	if p.Name != "New" || p.TargetHours == nil || *p.TargetHours != 12.5 || p.Parent == nil || *p.Parent != root {
		t.Fatalf("update failed: %+v", p)
	}

	// Clearing optional fields.
	s.UpdateProject(Project{ID: id, Name: "New"})
	p, _ = s.GetProject(id)
	if p.TargetHours != nil || p.Parent != nil {
		t.Fatalf("expected cleared target and parent: %+v", p)
	}
}

func TestUpdateProjectMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	n, err := s.UpdateProject(Project{ID: 42, Name: "ghost"})
	if err != nil {
		t.Fatalf("missing id should not be an error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}
}

func TestUpdateProjectRejectsBadParents(t *testing.T) {
	s := newTestStore(t)
	root := mustAdd(t, s, "Root", nil)
	child := mustAdd(t, s, "Child", &root)
	grandchild := mustAdd(t, s, "Grandchild", &child)
	other := mustAdd(t, s, "Other", nil)
	mustRecord(t, s, &other, time.Now(), 60)
	if _, err := s.ArchiveOrDeleteProject(other); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		id     int64
		parent int64
	}{
		{"self", root, root},
		{"missing", root, 999},
		{"archived", child, other},
		{"child", root, child},
		{"grandchild", root, grandchild},
	}
	for _, tc := range cases {
		_, err := s.UpdateProject(Project{ID: tc.id, Name: "x", Parent: &tc.parent})
		if !errors.Is(err, ErrInvalidParent) {
			t.Fatalf("%s: expected ErrInvalidParent, got %v", tc.name, err)
		}
	}

	p, _ := s.GetProject(root)
	if p.Name != "Root" || p.Parent != nil {
		t.Fatalf("rejected update must not write: %+v", p)
	}

	// Moving a grandchild up to the root is fine.
	if _, err := s.UpdateProject(Project{ID: grandchild, Name: "Grandchild", Parent: &root}); err != nil {
		t.Fatalf("valid re-parent rejected: %v", err)
	}
}

// ============================================================
// Aggregation
// ============================================================

func TestGetProjectsRollsUpTotals(t *testing.T) {
	s := newTestStore(t)
	r := mustAdd(t, s, "R", nil)
	a := mustAdd(t, s, "A", &r)
	b := mustAdd(t, s, "B", &r)
	c := mustAdd(t, s, "C", &a)

	now := time.Now()
	mustRecord(t, s, &r, now, 10*3600)
	mustRecord(t, s, &a, now, 20*3600)
	mustRecord(t, s, &c, now, 30*3600)
	mustRecord(t, s, nil, now, 99*3600)

	projects, err := s.GetProjects()
	if err != nil {
		t.Fatal(err)
	}
	m := byID(projects)

	if !approx(m[c].TotalHours, 30) || !approx(m[a].TotalHours, 50) || !approx(m[r].TotalHours, 60) {
		t.Fatalf("totals: C=%v A=%v R=%v", m[c].TotalHours, m[a].TotalHours, m[r].TotalHours)
	}
	if m[b].TotalSeconds != 0 {
		t.Fatalf("B should be empty, got %d", m[b].TotalSeconds)
	}
	if len(m[r].Children) != 2 || m[r].Children[0] != a || m[r].Children[1] != b {
		t.Fatalf("R children: %v", m[r].Children)
	}
	if len(m[a].Children) != 1 || m[a].Children[0] != c {
		t.Fatalf("A children: %v", m[a].Children)
	}
}

func TestArchivedDescendantStillContributes(t *testing.T) {
	s := newTestStore(t)
	r := mustAdd(t, s, "R", nil)
	a := mustAdd(t, s, "A", &r)
	c := mustAdd(t, s, "C", &a)
	mustRecord(t, s, &c, time.Now(), 30*3600)

	res, err := s.ArchiveOrDeleteProject(c)
	if err != nil {
		t.Fatal(err)
	}
	if res != RemovalArchived {
		t.Fatalf("expected archive, got %s", res)
	}

	m := byID(must(s.GetProjects()))
	if _, ok := m[c]; ok {
		t.Fatal("archived project should be hidden")
	}
	if !approx(m[a].TotalHours, 30) || !approx(m[r].TotalHours, 30) {
		t.Fatalf("archived hours lost: A=%v R=%v", m[a].TotalHours, m[r].TotalHours)
	}
	// The archived child id is still listed so the tree walk can skip it.
	if len(m[a].Children) != 1 || m[a].Children[0] != c {
		t.Fatalf("A children: %v", m[a].Children)
	}

	all, _ := s.ListProjects(true)
	if len(all) != 3 || !byID(all)[c].Archived {
		t.Fatal("archived project should appear with includeArchived")
	}
}

func must(projects []Project, err error) []Project {
	if err != nil {
		panic(err)
	}
	return projects
}

// ============================================================
// Archive or delete
// ============================================================

func TestArchiveOrDeleteEmptyLeaf(t *testing.T) {
	s := newTestStore(t)
	id := mustAdd(t, s, "Oops", nil)

	res, err := s.ArchiveOrDeleteProject(id)
	if err != nil {
		t.Fatal(err)
	}
	if res != RemovalDeleted {
		t.Fatalf("expected delete, got %s", res)
	}
	if _, err := s.GetProject(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("row should be gone, got %v", err)
	}

	// ids are never reused
	next, _ := s.AddProject(nil)
	if next <= id {
		t.Fatalf("id %d reused after delete of %d", next, id)
	}
}

func TestArchiveOrDeleteWithSession(t *testing.T) {
	s := newTestStore(t)
	id := mustAdd(t, s, "Real work", nil)
	mustRecord(t, s, &id, time.Now(), 60)

	res, _ := s.ArchiveOrDeleteProject(id)
	if res != RemovalArchived {
		t.Fatalf("expected archive, got %s", res)
	}
	p, err := s.GetProject(id)
	if err != nil || !p.Archived {
		t.Fatalf("row should persist archived: %+v %v", p, err)
	}
}

func TestArchiveOrDeleteWithChild(t *testing.T) {
	s := newTestStore(t)
	parent := mustAdd(t, s, "Parent", nil)
	mustAdd(t, s, "Child", &parent)

	res, _ := s.ArchiveOrDeleteProject(parent)
	if res != RemovalArchived {
		t.Fatalf("expected archive, got %s", res)
	}
}

func TestArchiveOrDeleteMissing(t *testing.T) {
	s := newTestStore(t)
	res, err := s.ArchiveOrDeleteProject(404)
	if err != nil {
		t.Fatal(err)
	}
	if res != RemovalNone {
		t.Fatalf("expected none, got %s", res)
	}
}

func TestDeleteCascadesTasks(t *testing.T) {
	s := newTestStore(t)
	keep := mustAdd(t, s, "Keep", nil)
	gone := mustAdd(t, s, "Gone", nil)
	s.AddTask("one", &gone)
	s.AddTask("two", &gone)
	s.AddTask("other", &keep)

	if res, _ := s.ArchiveOrDeleteProject(gone); res != RemovalDeleted {
		t.Fatalf("expected delete, got %s", res)
	}

	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE project_id = ?`, gone).Scan(&n)
	if n != 0 {
		t.Fatalf("expected tasks deleted, %d left", n)
	}
	tasks, _ := s.GetTasks(&keep)
	if len(tasks) != 1 {
		t.Fatal("unrelated tasks should survive")
	}
}

func TestArchiveKeepsTasks(t *testing.T) {
	s := newTestStore(t)
	id := mustAdd(t, s, "Busy", nil)
	mustRecord(t, s, &id, time.Now(), 60)
	s.AddTask("stays", &id)

	s.ArchiveOrDeleteProject(id)
	tasks, _ := s.GetTasks(&id)
	if len(tasks) != 1 {
		t.Fatal("archiving must not touch tasks")
	}
}

// ============================================================
// Work sessions
// ============================================================

func TestAddWorkSessionUnknownProject(t *testing.T) {
	s := newTestStore(t)
	err := s.AddWorkSession(WorkSession{TimeStart: 1, Duration: 1, ProjectID: ptr(int64(77))})
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Op != "add work session" {
		t.Fatalf("unexpected op %q", se.Op)
	}
}

func TestListWorkSessions(t *testing.T) {
	s := newTestStore(t)
	id := mustAdd(t, s, "P", nil)
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	mustRecord(t, s, &id, base, 100)
	mustRecord(t, s, nil, base.Add(time.Hour), 200)
	mustRecord(t, s, &id, base.Add(48*time.Hour), 300)

	all, err := s.ListWorkSessions(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Duration != 300 {
		t.Fatalf("expected newest first: %+v", all)
	}
	if all[1].ProjectID != nil {
		t.Fatal("unattributed session should have nil project")
	}

	from, to := base, base.Add(24*time.Hour)
	window, _ := s.ListWorkSessions(&from, &to)
	if len(window) != 2 {
		t.Fatalf("expected 2 in window, got %d", len(window))
	}
}

func TestGetWorkHoursForDay(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mustRecord(t, s, nil, day.Add(9*time.Hour), 1800)
	mustRecord(t, s, nil, day.Add(23*time.Hour+59*time.Minute), 1800)
	mustRecord(t, s, nil, day.Add(24*time.Hour), 3600) // next day

	h, err := s.GetWorkHoursForDay(day.Add(15*time.Hour), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(h, 1) {
		t.Fatalf("expected 1h, got %v", h)
	}
}

func TestGetWorkHoursForDayOffset(t *testing.T) {
	s := newTestStore(t)
	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mar11 := mar10.AddDate(0, 0, 1)

	// 02:00 on the 11th belongs to the 10th when the day starts at 04:00.
	mustRecord(t, s, nil, mar11.Add(2*time.Hour), 3600)

	h10, _ := s.GetWorkHoursForDay(mar10, 4)
	h11, _ := s.GetWorkHoursForDay(mar11, 4)
	if !approx(h10, 1) || h11 != 0 {
		t.Fatalf("offset 4: mar10=%v mar11=%v", h10, h11)
	}

	// Offsets are reduced modulo 24.
	h10, _ = s.GetWorkHoursForDay(mar10, 28)
	if !approx(h10, 1) {
		t.Fatalf("offset 28 should equal offset 4, got %v", h10)
	}
}

func TestGetWorkHoursForDayEmpty(t *testing.T) {
	s := newTestStore(t)
	h, err := s.GetWorkHoursForDay(time.Now(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if h != 0 {
		t.Fatalf("expected 0, got %v", h)
	}
}

func TestDayBounds(t *testing.T) {
	day := time.Date(2024, 3, 10, 17, 30, 0, 0, time.UTC)
	start, end := DayBounds(day, -1)
	want := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	if !start.Equal(want) || end.Sub(start) != 24*time.Hour {
		t.Fatalf("got %v..%v", start, end)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestTaskCRUD(t *testing.T) {
	s := newTestStore(t)
	p := mustAdd(t, s, "Dev", nil)

	id, err := s.AddTask("Bug fix", &p)
	if err != nil {
		t.Fatal(err)
	}
	loose, _ := s.AddTask("Unfiled", nil)

	tasks, _ := s.GetTasks(&p)
	if len(tasks) != 1 || tasks[0].ID != id || tasks[0].Name != "Bug fix" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	unfiled, _ := s.GetTasks(nil)
	if len(unfiled) != 1 || unfiled[0].ID != loose || unfiled[0].ProjectID != nil {
		t.Fatalf("unexpected unattributed tasks: %+v", unfiled)
	}

	if n, _ := s.UpdateTask(id, "Bug fixed"); n != 1 {
		t.Fatal("expected rename to hit one row")
	}
	tasks, _ = s.GetTasks(&p)
	if tasks[0].Name != "Bug fixed" {
		t.Fatalf("rename failed: %+v", tasks[0])
	}

	if n, _ := s.DeleteTask(id); n != 1 {
		t.Fatal("expected delete to hit one row")
	}
	if n, _ := s.DeleteTask(id); n != 0 {
		t.Fatal("second delete should be a no-op")
	}
	tasks, _ = s.GetTasks(&p)
	if tasks != nil {
		t.Fatal("expected nil slice after delete")
	}
}

func TestAddTaskInvalidProject(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddTask("Orphan", ptr(int64(999)))
	if err == nil {
		t.Fatal("expected foreign key error for non-existent project")
	}
}

// ============================================================
// Close
// ============================================================

func TestClosedStoreReturnsStorageError(t *testing.T) {
	s, _ := NewMemory()
	s.Close()

	_, err := s.GetProjects()
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError after close, got %v", err)
	}
}
