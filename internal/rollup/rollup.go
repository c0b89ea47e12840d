// Package rollup computes recursive project totals from a flat parent-pointer table.
//
// Every project's total is its own recorded seconds plus the totals of all of its
// children, archived or not. The input is walked once: child lists are built from the
// parent pointers and totals are evaluated depth-first with memoization, so each node
// and each edge is visited a single time.
package rollup

import "sort"

// Node is one row of the project table as far as the roll-up cares.
type Node struct {
	ID     int64
	Parent *int64
}

// Result is the derived data for one node.
type Result struct {
	Children     []int64 // direct children, ascending id
	TotalSeconds int64
}

type state uint8

const (
	unvisited state = iota
	visiting
	done
)

// Compute returns a Result for every node. own maps a project id to the seconds
// recorded directly against it; ids in own that are not nodes are ignored.
func Compute(nodes []Node, own map[int64]int64) map[int64]Result {
	out := make(map[int64]Result, len(nodes))
	for _, n := range nodes {
		out[n.ID] = Result{}
	}

	children := make(map[int64][]int64, len(nodes))
	for _, n := range nodes {
		if n.Parent == nil {
			continue
		}
		if _, ok := out[*n.Parent]; !ok {
			continue
		}
		children[*n.Parent] = append(children[*n.Parent], n.ID)
	}
	for id := range children {
		ids := children[id]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	marks := make(map[int64]state, len(nodes))
	totals := make(map[int64]int64, len(nodes))

	var total func(id int64) int64
	total = func(id int64) int64 {
		switch marks[id] {
		case done:
			return totals[id]
		case visiting:
			// Back edge of a cycle. Parents are validated on write so this only
			// happens with a hand-edited database.
			return 0
		}
		marks[id] = visiting
		sum := own[id]
		for _, c := range children[id] {
			sum += total(c)
		}
		marks[id] = done
		totals[id] = sum
		return sum
	}

	for _, n := range nodes {
		out[n.ID] = Result{
			Children:     children[n.ID],
			TotalSeconds: total(n.ID),
		}
	}
	return out
}

// Hours converts seconds to fractional hours.
func Hours(secs int64) float64 {
	return float64(secs) / 3600
}
