// Package export writes recorded work sessions to CSV, JSON and XLSX files.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/hourtree/internal/store"
)

const (
	unattributed   = "(no project)"
	unknownProject = "Unknown"
)

// row is a work session flattened for output.
type row struct {
	Project   string
	ProjectID *int64
	Start     time.Time
	End       time.Time
	Seconds   int64
}

func (r row) projectIDString() string {
	if r.ProjectID == nil {
		return ""
	}
	return strconv.FormatInt(*r.ProjectID, 10)
}

func rows(sessions []store.WorkSession, paths map[int64]string) []row {
	out := make([]row, 0, len(sessions))
	for _, ws := range sessions {
		start := ws.Start()
		out = append(out, row{
			Project:   projectLabel(ws.ProjectID, paths),
			ProjectID: ws.ProjectID,
			Start:     start,
			End:       start.Add(time.Duration(ws.Duration) * time.Second),
			Seconds:   ws.Duration,
		})
	}
	return out
}

// ProjectPaths maps every project id to its "Root / Child" path. Archived
// projects are included since their sessions are still exported.
func ProjectPaths(projects []store.Project) map[int64]string {
	byID := make(map[int64]store.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	paths := make(map[int64]string, len(projects))
	for _, p := range projects {
		var parts []string
		seen := map[int64]bool{}
		for cur, ok := p, true; ok && !seen[cur.ID]; {
			seen[cur.ID] = true
			name := cur.Name
			if name == "" {
				name = "(unnamed)"
			}
			parts = append([]string{name}, parts...)
			if cur.Parent == nil {
				break
			}
			cur, ok = byID[*cur.Parent]
		}
		paths[p.ID] = strings.Join(parts, " / ")
	}
	return paths
}

func projectLabel(id *int64, paths map[int64]string) string {
	if id == nil {
		return unattributed
	}
	if p, ok := paths[*id]; ok {
		return p
	}
	return unknownProject
}

// projectTotal is the summed time of one label across sessions.
type projectTotal struct {
	Project string
	Seconds int64
}

// totals groups rows by project label, largest first.
func totals(rs []row) []projectTotal {
	sums := map[string]int64{}
	for _, r := range rs {
		sums[r.Project] += r.Seconds
	}
	out := make([]projectTotal, 0, len(sums))
	for p, s := range sums {
		out = append(out, projectTotal{Project: p, Seconds: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].Project < out[j].Project
	})
	return out
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
