package priority

import (
	"fmt"
	"sort"
)

// NoPriority is the state of a task that carries no priority sticker value.
const NoPriority = "-"

// Entry ranks one priority state. Lower Order means more urgent.
type Entry struct {
	StateID string `json:"stateId"`
	Order   int    `json:"order"`
}

// Table is the immutable lookup of known priority states and their ranks.
type Table struct {
	ranks  map[string]int
	states []string // sorted by rank, most urgent first
}

// NewTable builds a Table from configured entries.
// State ids and ranks must both be unique; ranks need not be contiguous.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		ranks:  make(map[string]int, len(entries)),
		states: make([]string, 0, len(entries)),
	}

	seenOrder := make(map[int]string, len(entries))
	for _, e := range entries {
		if e.StateID == "" {
			return nil, fmt.Errorf("priority entry with order %d has empty state id", e.Order)
		}
		if _, exists := t.ranks[e.StateID]; exists {
			return nil, fmt.Errorf("priority state %q listed more than once", e.StateID)
		}
		if other, exists := seenOrder[e.Order]; exists {
			return nil, fmt.Errorf("priority states %q and %q share order %d", other, e.StateID, e.Order)
		}
		t.ranks[e.StateID] = e.Order
		seenOrder[e.Order] = e.StateID
		t.states = append(t.states, e.StateID)
	}

	sort.Slice(t.states, func(i, j int) bool {
		return t.ranks[t.states[i]] < t.ranks[t.states[j]]
	})

	return t, nil
}

// Len returns the number of known states.
func (t *Table) Len() int {
	return len(t.states)
}

// Rank returns the configured order of state and whether the state is known.
func (t *Table) Rank(state string) (int, bool) {
	r, ok := t.ranks[state]
	return r, ok
}

// Contains reports whether state is listed in the table.
func (t *Table) Contains(state string) bool {
	_, ok := t.ranks[state]
	return ok
}

// States returns the known states, most urgent first.
func (t *Table) States() []string {
	return append([]string(nil), t.states...)
}

// Compare orders two states by urgency. It returns a negative number when a is
// more urgent than b, a positive number when b is more urgent, and zero when
// neither wins. A known state always outranks an unknown one, NoPriority included.
func (t *Table) Compare(a, b string) int {
	ra, okA := t.ranks[a]
	rb, okB := t.ranks[b]

	switch {
	case okA && okB:
		return ra - rb
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// MostUrgent returns the most urgent of states. Ties keep the first one seen,
// so a set with no known state yields its first member. An empty set yields
// NoPriority and false.
func (t *Table) MostUrgent(states []string) (string, bool) {
	if len(states) == 0 {
		return NoPriority, false
	}

	best := states[0]
	for _, s := range states[1:] {
		if t.Compare(s, best) < 0 {
			best = s
		}
	}
	return best, true
}
