// Package projects keeps an in-memory snapshot of the project tree for rendering.
//
// The snapshot is never patched: every mutation goes to the store and is followed
// by a full refetch, so the cache cannot drift from the database.
package projects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/hourtree/internal/logging"
	"github.com/sadopc/hourtree/internal/store"
)

// Store is the part of *store.Store the cache writes through.
type Store interface {
	GetProjects() ([]store.Project, error)
	AddProject(parent *int64) (int64, error)
	UpdateProject(p store.Project) (int64, error)
	ArchiveOrDeleteProject(id int64) (store.Removal, error)
}

// Entry is one row of the depth-annotated tree listing.
type Entry struct {
	Depth   int
	Project *store.Project
}

type Projects struct {
	store    Store
	snapshot []store.Project
	index    map[int64]int
	active   *int64
	edit     *store.Project
}

// New builds the cache and loads the first snapshot.
func New(s Store) (*Projects, error) {
	p := &Projects{store: s}
	if err := p.Refresh(); err != nil {
		return nil, err
	}
	return p, nil
}

// Refresh replaces the snapshot with the store's current state. A selection that
// is no longer listed is dropped.
func (p *Projects) Refresh() error {
	projects, err := p.store.GetProjects()
	if err != nil {
		return fmt.Errorf("refresh projects: %w", err)
	}
	p.snapshot = projects
	p.index = make(map[int64]int, len(projects))
	for i, proj := range projects {
		p.index[proj.ID] = i
	}
	if p.active != nil && p.Get(*p.active) == nil {
		p.active = nil
	}
	return nil
}

// All returns the snapshot in store order. Callers must not modify it.
func (p *Projects) All() []store.Project {
	return p.snapshot
}

// Get returns the cached project or nil.
func (p *Projects) Get(id int64) *store.Project {
	i, ok := p.index[id]
	if !ok {
		return nil
	}
	return &p.snapshot[i]
}

// TreeListing walks the snapshot depth first from every root. Children that are
// not in the snapshot are skipped together with their subtrees.
func (p *Projects) TreeListing() []Entry {
	var out []Entry
	for i := range p.snapshot {
		if p.snapshot[i].Parent == nil {
			out = p.walk(out, &p.snapshot[i], 0)
		}
	}
	return out
}

// Subtree is TreeListing restricted to id and its descendants.
func (p *Projects) Subtree(id int64) []Entry {
	root := p.Get(id)
	if root == nil {
		return nil
	}
	return p.walk(nil, root, 0)
}

func (p *Projects) walk(out []Entry, proj *store.Project, depth int) []Entry {
	out = append(out, Entry{Depth: depth, Project: proj})
	for _, cid := range proj.Children {
		child := p.Get(cid)
		if child == nil {
			continue
		}
		out = p.walk(out, child, depth+1)
	}
	return out
}

// Path renders the ancestry of id as "Root / Child / Leaf".
func (p *Projects) Path(id int64) string {
	var parts []string
	seen := map[int64]bool{}
	for cur := p.Get(id); cur != nil && !seen[cur.ID]; {
		seen[cur.ID] = true
		parts = append(parts, DisplayName(cur))
		if cur.Parent == nil {
			break
		}
		cur = p.Get(*cur.Parent)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}

// DisplayName substitutes a placeholder for projects that were never named.
func DisplayName(proj *store.Project) string {
	if proj.Name == "" {
		return "(unnamed)"
	}
	return proj.Name
}

// SetActive selects a listed project; nil clears the selection. Unknown or
// archived ids are refused.
func (p *Projects) SetActive(id *int64) bool {
	if id == nil {
		p.active = nil
		return true
	}
	if p.Get(*id) == nil {
		return false
	}
	v := *id
	p.active = &v
	return true
}

func (p *Projects) Active() *int64 {
	if p.active == nil {
		return nil
	}
	v := *p.active
	return &v
}

func (p *Projects) ActiveProject() *store.Project {
	if p.active == nil {
		return nil
	}
	return p.Get(*p.active)
}

// BeginEdit copies a project into the edit buffer. nil, or an id that is not
// listed, clears the buffer.
func (p *Projects) BeginEdit(id *int64) {
	p.edit = nil
	if id == nil {
		return
	}
	if proj := p.Get(*id); proj != nil {
		c := proj.Clone()
		p.edit = &c
	}
}

// Editing returns the edit buffer, or nil.
func (p *Projects) Editing() *store.Project {
	return p.edit
}

func (p *Projects) SetEditName(name string) {
	if p.edit != nil {
		p.edit.Name = name
	}
}

// ErrInvalidTarget is returned for goals that are not a non-negative number.
var ErrInvalidTarget = errors.New("target hours must be a non-negative number")

// ParseTargetHours reads a goal in hours. Empty input means no goal.
func ParseTargetHours(input string) (*float64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil || v < 0 || v != v {
		return nil, fmt.Errorf("%q: %w", input, ErrInvalidTarget)
	}
	return &v, nil
}

// SetEditTargetHours parses input as the edited project's goal. Empty input clears
// the goal. Anything ParseTargetHours rejects leaves the previous value.
func (p *Projects) SetEditTargetHours(input string) bool {
	if p.edit == nil {
		return false
	}
	v, err := ParseTargetHours(input)
	if err != nil {
		return false
	}
	p.edit.TargetHours = v
	return true
}

// SetEditParent moves the edited project. The store validates it on commit.
func (p *Projects) SetEditParent(parent *int64) {
	if p.edit == nil {
		return
	}
	if parent == nil {
		p.edit.Parent = nil
		return
	}
	v := *parent
	p.edit.Parent = &v
}

// CommitEdit writes the edit buffer and refreshes. An invalid parent keeps the
// buffer open so it can be corrected.
func (p *Projects) CommitEdit() error {
	if p.edit == nil {
		return nil
	}
	n, err := p.store.UpdateProject(*p.edit)
	if errors.Is(err, store.ErrInvalidParent) {
		return err
	}
	if err != nil {
		return fmt.Errorf("commit project %d: %w", p.edit.ID, err)
	}
	if n == 0 {
		logging.Logger().Debug("edited project vanished before commit", "id", p.edit.ID)
	}
	p.edit = nil
	return p.Refresh()
}

// ArchiveEdit removes the edited project and its whole listed subtree. Nodes are
// handled in reverse pre-order so empty children are deleted before their parent
// is looked at, which lets an emptied parent be deleted as well.
func (p *Projects) ArchiveEdit() error {
	if p.edit == nil {
		return nil
	}
	subtree := p.Subtree(p.edit.ID)
	p.edit = nil

	var firstErr error
	for i := len(subtree) - 1; i >= 0; i-- {
		id := subtree[i].Project.ID
		if _, err := p.store.ArchiveOrDeleteProject(id); err != nil {
			firstErr = fmt.Errorf("archive project %d: %w", id, err)
			break
		}
	}
	if err := p.Refresh(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Add creates a child of parent (nil for a root) and opens it for editing.
func (p *Projects) Add(parent *int64) (int64, error) {
	id, err := p.store.AddProject(parent)
	if err != nil {
		return 0, fmt.Errorf("add project: %w", err)
	}
	if err := p.Refresh(); err != nil {
		return id, err
	}
	p.BeginEdit(&id)
	return id, nil
}
