package tree

import (
	"github.com/aristath/prioritysync/internal/priority"
	"github.com/aristath/prioritysync/internal/taskapi"
)

// Node is an active task together with its active subtasks.
// A Node belongs to exactly one tree; children are never shared.
type Node struct {
	ID        string
	Title     string
	Completed bool
	Archived  bool
	Deleted   bool
	Labels    map[string]string // sticker id -> state id
	Children  []*Node

	subtaskIDs []string
}

// FromTask creates a childless Node from a task record.
func FromTask(task taskapi.Task) *Node {
	labels := make(map[string]string, len(task.Stickers))
	for k, v := range task.Stickers {
		labels[k] = v
	}

	return &Node{
		ID:         task.ID,
		Title:      task.Title,
		Completed:  task.Completed,
		Archived:   task.Archived,
		Deleted:    task.Deleted,
		Labels:     labels,
		subtaskIDs: append([]string(nil), task.Subtasks...),
	}
}

// Label returns the value stored under key, or priority.NoPriority.
func (n *Node) Label(key string) string {
	if v, ok := n.Labels[key]; ok {
		return v
	}
	return priority.NoPriority
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Filter decides which tasks take part in aggregation.
type Filter struct {
	LabelKey     string // sticker holding the priority
	DelayedState string // state that removes a task from consideration
}

// Active reports whether n is open and not delayed.
func (f Filter) Active(n *Node) bool {
	if n.Deleted || n.Archived || n.Completed {
		return false
	}
	v, ok := n.Labels[f.LabelKey]
	return !ok || v != f.DelayedState
}

// Count returns the number of nodes in the given trees.
func Count(roots []*Node) int {
	total := 0
	for _, r := range roots {
		r.Walk(func(*Node) { total++ })
	}
	return total
}
