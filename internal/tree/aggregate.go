package tree

import (
	"github.com/aristath/prioritysync/internal/priority"
)

// Change records one priority label rewritten by the aggregator.
type Change struct {
	Node *Node
	From string
	To   string
}

// Aggregator lifts the most urgent priority of each node's children onto the node.
type Aggregator struct {
	table    *priority.Table
	labelKey string
}

// NewAggregator creates an Aggregator reading and writing the labelKey sticker.
func NewAggregator(table *priority.Table, labelKey string) *Aggregator {
	return &Aggregator{table: table, labelKey: labelKey}
}

// CollectUpdates returns the nodes whose priority label had to change, in the
// order they were discovered.
func (a *Aggregator) CollectUpdates(roots []*Node) []*Node {
	changes := a.CollectChanges(roots)
	nodes := make([]*Node, len(changes))
	for i, c := range changes {
		nodes[i] = c.Node
	}
	return nodes
}

// CollectChanges walks the trees post-order. A node with children gets the
// most urgent label among its direct children; since children are settled
// first, urgency climbs one level per step. Childless nodes are never touched.
func (a *Aggregator) CollectChanges(roots []*Node) []Change {
	return a.collect(roots, nil)
}

func (a *Aggregator) collect(nodes []*Node, changes []Change) []Change {
	for _, n := range nodes {
		if len(n.Children) == 0 {
			continue
		}
		changes = a.collect(n.Children, changes)

		states := make([]string, len(n.Children))
		for i, c := range n.Children {
			states[i] = c.Label(a.labelKey)
		}
		required, _ := a.table.MostUrgent(states)

		current := n.Label(a.labelKey)
		if current != required {
			if n.Labels == nil {
				n.Labels = make(map[string]string)
			}
			n.Labels[a.labelKey] = required
			changes = append(changes, Change{Node: n, From: current, To: required})
		}
	}
	return changes
}
