package store

import "time"

type Project struct {
	ID          int64
	Name        string
	TargetHours *float64
	Parent      *int64
	Archived    bool

	// Derived on read, never written.
	Children     []int64
	TotalSeconds int64
	TotalHours   float64
}

// Clone returns a copy that shares no memory with p.
func (p Project) Clone() Project {
	c := p
	if p.TargetHours != nil {
		v := *p.TargetHours
		c.TargetHours = &v
	}
	if p.Parent != nil {
		v := *p.Parent
		c.Parent = &v
	}
	if p.Children != nil {
		c.Children = append([]int64(nil), p.Children...)
	}
	return c
}

// WorkSession is one completed countdown. Rows are immutable.
type WorkSession struct {
	TimeStart int64 // unix seconds
	Duration  int64 // seconds
	ProjectID *int64
}

// Start returns TimeStart as a time in the local zone.
func (w WorkSession) Start() time.Time {
	return time.Unix(w.TimeStart, 0)
}

type Task struct {
	ID        int64
	Name      string
	ProjectID *int64
}

// Removal reports what ArchiveOrDeleteProject did.
type Removal int

const (
	RemovalNone Removal = iota
	RemovalDeleted
	RemovalArchived
)

func (r Removal) String() string {
	switch r {
	case RemovalDeleted:
		return "deleted"
	case RemovalArchived:
		return "archived"
	default:
		return "none"
	}
}
