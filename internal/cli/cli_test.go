package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/projects"
	"github.com/sadopc/hourtree/internal/session"
	"github.com/sadopc/hourtree/internal/store"
)

var testNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.Local)

type testEnv struct {
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	return testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		db:     filepath.Join(dir, "hourtree.db"),
	}
}

func runCLI(t *testing.T, env testEnv, args ...string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	app := &App{now: func() time.Time { return testNow }}
	cmd := newRootCmd(app)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(append([]string{"--config", env.config, "--db", env.db}, args...))

	e := cmd.Execute()
	app.close()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustRun(t *testing.T, env testEnv, args ...string) []byte {
	t.Helper()
	out, stderr, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("%v: %v\nstderr:\n%s", args, err, stderr)
	}
	return out
}

func listProjects(t *testing.T, env testEnv, args ...string) []projectOutput {
	t.Helper()
	out := mustRun(t, env, append([]string{"--json", "projects", "list"}, args...)...)
	var got []projectOutput
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, out)
	}
	return got
}

func TestRootWithoutTerminalListsProjects(t *testing.T) {
	env := newTestEnv(t)
	out := mustRun(t, env)
	if !strings.Contains(string(out), "No projects yet") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestProjectsAddAndList(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "projects", "add", "Client")
	mustRun(t, env, "projects", "add", "API", "--parent", "1", "--target", "40")

	got := listProjects(t, env)
	if len(got) != 2 {
		t.Fatalf("expected 2 projects, got %+v", got)
	}
	api := got[1]
	if api.Name != "API" || api.Depth != 1 || api.Path != "Client / API" {
		t.Fatalf("unexpected child %+v", api)
	}
	if api.TargetHours == nil || *api.TargetHours != 40 {
		t.Fatalf("target not stored: %+v", api)
	}

	out := mustRun(t, env, "projects")
	if !strings.Contains(string(out), "  API") {
		t.Fatalf("children should be indented:\n%s", out)
	}
}

func TestProjectsAddRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := runCLI(t, env, "projects", "add", "X", "--parent", "9"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := runCLI(t, env, "projects", "add", "X", "--target", "lots"); err == nil {
		t.Fatal("expected invalid target error")
	}
}

func TestProjectsRenameTargetMove(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "projects", "add", "A")
	mustRun(t, env, "projects", "add", "B")

	mustRun(t, env, "projects", "rename", "2", "Books")
	mustRun(t, env, "projects", "target", "2", "12.5")
	mustRun(t, env, "projects", "move", "2", "1")

	got := listProjects(t, env)
	if got[1].Path != "A / Books" || *got[1].TargetHours != 12.5 {
		t.Fatalf("unexpected %+v", got[1])
	}

	_, _, err := runCLI(t, env, "projects", "move", "1", "2")
	if !errors.Is(err, store.ErrInvalidParent) {
		t.Fatalf("moving under a descendant should fail, got %v", err)
	}

	mustRun(t, env, "projects", "target", "2", "")
	mustRun(t, env, "projects", "move", "2")
	got = listProjects(t, env)
	if got[1].Parent != nil || got[1].TargetHours != nil {
		t.Fatalf("expected top level without goal, got %+v", got[1])
	}
}

func TestProjectsArchive(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "projects", "add", "Root")
	mustRun(t, env, "projects", "add", "Leaf", "--parent", "1")

	s, err := store.New(env.db)
	if err != nil {
		t.Fatal(err)
	}
	root := int64(1)
	if err := s.AddWorkSession(store.WorkSession{TimeStart: testNow.Unix(), Duration: 600, ProjectID: &root}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	out := mustRun(t, env, "projects", "archive", "1")
	if !strings.Contains(string(out), "1 descendant") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if got := listProjects(t, env); len(got) != 0 {
		t.Fatalf("tree should be empty, got %+v", got)
	}
	all := listProjects(t, env, "--all")
	if len(all) != 1 || all[0].Name != "Root" || !all[0].Archived {
		t.Fatalf("only the root with history should survive, got %+v", all)
	}
}

func TestTasks(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "projects", "add", "Work")

	mustRun(t, env, "tasks", "add", "-p", "1", "write", "report")
	mustRun(t, env, "tasks", "add", "loose", "end")

	out := mustRun(t, env, "--json", "tasks", "list", "-p", "1")
	var got []taskOutput
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "write report" {
		t.Fatalf("unexpected tasks %+v", got)
	}

	mustRun(t, env, "tasks", "rm", "-p", "1", "1")
	out = mustRun(t, env, "tasks", "list", "-p", "1")
	if !strings.Contains(string(out), "No tasks") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, _, err := runCLI(t, env, "tasks", "list", "-p", "7"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	s, err := store.New(env.db)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, 5, 9, 10, 0, 0, 0, time.Local)
	if err := s.AddWorkSession(store.WorkSession{TimeStart: start.Unix(), Duration: 5400}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	out := mustRun(t, env, "--json", "stats", "--days", "3")
	var days []dayOutput
	if err := json.Unmarshal(out, &days); err != nil {
		t.Fatal(err)
	}
	if len(days) != 3 || days[0].Date != "2024-05-10" || days[1].Hours != 1.5 {
		t.Fatalf("unexpected stats %+v", days)
	}

	out = mustRun(t, env, "--json", "stats", "--day", "2024-05-09")
	days = nil
	if err := json.Unmarshal(out, &days); err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0].Hours != 1.5 {
		t.Fatalf("unexpected single day %+v", days)
	}

	if _, _, err := runCLI(t, env, "stats", "--days", "0"); err == nil {
		t.Fatal("expected error for --days 0")
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "projects", "add", "Work")

	for _, name := range []string{"out.csv", "out.json", "out.xlsx"} {
		path := filepath.Join(env.dir, name)
		mustRun(t, env, "export", "--out", path)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}

	if _, _, err := runCLI(t, env, "export", "--out", filepath.Join(env.dir, "out.txt")); err == nil {
		t.Fatal("expected unknown format error")
	}
	if _, _, err := runCLI(t, env, "export", "--out", filepath.Join(env.dir, "x.csv"), "--from", "not a date at all"); err == nil {
		t.Fatal("expected date parse error")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	env := newTestEnv(t)
	mustRun(t, env, "config", "set", "session_length", "50")
	mustRun(t, env, "config", "set", "day_boundary_offset_hours", "4")

	out := mustRun(t, env, "config", "show")
	if !strings.Contains(string(out), "session_length = 50") || !strings.Contains(string(out), "day_boundary_offset_hours = 4") {
		t.Fatalf("unexpected config:\n%s", out)
	}

	if _, _, err := runCLI(t, env, "config", "set", "session_length", "-1"); err == nil {
		t.Fatal("expected invalid value error")
	}
	if _, _, err := runCLI(t, env, "config", "set", "colour", "blue"); err == nil {
		t.Fatal("expected unknown key error")
	}

	out = mustRun(t, env, "config", "path")
	if strings.TrimSpace(string(out)) != env.config {
		t.Fatalf("unexpected path %q", out)
	}
}

// ============================================================
// Foreground timer
// ============================================================

func newTimerFixture(t *testing.T, clock func() time.Time) (*store.Store, *projects.Projects, *session.Recorder) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	tree, err := projects.New(s)
	if err != nil {
		t.Fatal(err)
	}
	return s, tree, session.New(s, tree, time.Minute, session.WithClock(clock))
}

func TestRunTimerRecords(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return testNow.Add(time.Duration(calls) * 20 * time.Second)
	}
	s, tree, rec := newTimerFixture(t, clock)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	if err := runTimer(context.Background(), cmd, tree, rec, time.Millisecond); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "Session recorded") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	sessions, err := s.ListWorkSessions(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Duration != 60 || sessions[0].ProjectID != nil {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
}

func TestRunTimerInterrupted(t *testing.T) {
	s, tree, rec := newTimerFixture(t, func() time.Time { return testNow })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	if err := runTimer(ctx, cmd, tree, rec, time.Hour); err != nil {
		t.Fatal(err)
	}

	if rec.Running() {
		t.Fatal("interrupted session should be cancelled")
	}
	if !strings.Contains(out.String(), "nothing recorded") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	sessions, _ := s.ListWorkSessions(nil, nil)
	if len(sessions) != 0 {
		t.Fatal("nothing should be recorded")
	}
}
