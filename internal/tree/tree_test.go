package tree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aristath/prioritysync/internal/priority"
	"github.com/aristath/prioritysync/internal/taskapi"
)

const prioKey = "prio"

// memRepo is an in-memory Repository.
type memRepo struct {
	mu       sync.Mutex
	tasks    map[string]taskapi.Task
	columns  map[string][]string
	pageSize int
	getErr   map[string]error
	gets     int
	lists    int
}

func newMemRepo() *memRepo {
	return &memRepo{
		tasks:    make(map[string]taskapi.Task),
		columns:  make(map[string][]string),
		getErr:   make(map[string]error),
		pageSize: 100,
	}
}

func (r *memRepo) add(column string, task taskapi.Task) {
	r.tasks[task.ID] = task
	if column != "" {
		r.columns[column] = append(r.columns[column], task.ID)
	}
}

func (r *memRepo) ListTasks(ctx context.Context, columnID string, offset int) (taskapi.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++

	ids := r.columns[columnID]
	end := offset + r.pageSize
	if end > len(ids) {
		end = len(ids)
	}
	page := taskapi.Page{Paging: taskapi.Paging{Count: end - offset, Limit: r.pageSize, Offset: offset, Next: end < len(ids)}}
	for _, id := range ids[offset:end] {
		page.Content = append(page.Content, r.tasks[id])
	}
	return page, nil
}

func (r *memRepo) GetTask(ctx context.Context, id string) (taskapi.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++

	if err, ok := r.getErr[id]; ok {
		return taskapi.Task{}, err
	}
	task, ok := r.tasks[id]
	if !ok {
		return taskapi.Task{}, taskapi.ErrNotFound
	}
	return task, nil
}

func task(id, state string, subtasks ...string) taskapi.Task {
	t := taskapi.Task{ID: id, Title: "Task " + id, Subtasks: subtasks}
	if state != "" {
		t.Stickers = map[string]string{prioKey: state}
	}
	return t
}

func testFilter() Filter {
	return Filter{LabelKey: prioKey, DelayedState: "later"}
}

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()
	table, err := priority.NewTable([]priority.Entry{
		{StateID: "urgent", Order: 0},
		{StateID: "normal", Order: 1},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return NewAggregator(table, prioKey)
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func equalIDs(t *testing.T, what string, got []*Node, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("%s = %v, want %v", what, g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("%s = %v, want %v", what, g, want)
		}
	}
}

func TestBuildColumn_PagesAndFilters(t *testing.T) {
	repo := newMemRepo()
	repo.pageSize = 2

	archived := task("archived", "", "under-archived")
	archived.Archived = true
	completed := task("completed", "")
	completed.Completed = true
	deleted := task("deleted", "")
	deleted.Deleted = true

	repo.add("col", task("root-1", "normal", "child-1", "child-2"))
	repo.add("col", archived)
	repo.add("col", completed)
	repo.add("col", deleted)
	repo.add("col", task("delayed", "later", "under-delayed"))
	repo.add("col", task("root-2", ""))
	repo.add("", task("child-1", "urgent"))
	repo.add("", task("child-2", "normal"))
	repo.add("", task("under-archived", "urgent"))
	repo.add("", task("under-delayed", "urgent"))

	roots, err := NewBuilder(repo, testFilter()).BuildColumn(context.Background(), "col")
	if err != nil {
		t.Fatalf("BuildColumn failed: %v", err)
	}

	equalIDs(t, "roots", roots, "root-1", "root-2")
	equalIDs(t, "root-1 children", roots[0].Children, "child-1", "child-2")

	if repo.lists != 3 {
		t.Errorf("list calls = %d, want 3 pages", repo.lists)
	}
	// Only the two children of root-1 should have been fetched.
	if repo.gets != 2 {
		t.Errorf("get calls = %d, want 2", repo.gets)
	}
	if Count(roots) != 4 {
		t.Errorf("Count = %d, want 4", Count(roots))
	}
}

func TestBuildColumn_SkipsMissingAndInactiveSubtasks(t *testing.T) {
	repo := newMemRepo()
	done := task("done", "urgent", "grandchild")
	done.Completed = true

	repo.add("col", task("root", "normal", "gone", "done", "kept", "delayed"))
	repo.add("", done)
	repo.add("", task("grandchild", "urgent"))
	repo.add("", task("kept", "normal", "leaf"))
	repo.add("", task("leaf", ""))
	repo.add("", task("delayed", "later"))

	roots, err := NewBuilder(repo, testFilter()).BuildColumn(context.Background(), "col")
	if err != nil {
		t.Fatalf("BuildColumn failed: %v", err)
	}

	equalIDs(t, "roots", roots, "root")
	equalIDs(t, "root children", roots[0].Children, "kept")
	equalIDs(t, "kept children", roots[0].Children[0].Children, "leaf")
}

func TestBuildColumn_PreservesChildOrder(t *testing.T) {
	repo := newMemRepo()
	var subtasks []string
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"} {
		subtasks = append(subtasks, id)
		repo.add("", task(id, "normal"))
	}
	repo.add("col", task("root", "normal", subtasks...))

	roots, err := NewBuilder(repo, testFilter(), WithConcurrency(3)).BuildColumn(context.Background(), "col")
	if err != nil {
		t.Fatalf("BuildColumn failed: %v", err)
	}
	equalIDs(t, "children", roots[0].Children, subtasks...)
}

func TestBuildColumn_BreaksCycles(t *testing.T) {
	repo := newMemRepo()
	repo.add("col", task("a", "normal", "b"))
	repo.add("", task("b", "normal", "c"))
	repo.add("", task("c", "urgent", "a"))

	roots, err := NewBuilder(repo, testFilter()).BuildColumn(context.Background(), "col")
	if err != nil {
		t.Fatalf("BuildColumn failed: %v", err)
	}
	if Count(roots) != 3 {
		t.Errorf("Count = %d, want 3 (cycle must be cut)", Count(roots))
	}
}

func TestBuildColumn_PropagatesErrors(t *testing.T) {
	repo := newMemRepo()
	boom := errors.New("boom")
	repo.add("col", task("root", "normal", "ok", "bad"))
	repo.add("", task("ok", "normal"))
	repo.add("", task("bad", "normal"))
	repo.getErr["bad"] = boom

	_, err := NewBuilder(repo, testFilter()).BuildColumn(context.Background(), "col")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestFilter_Active(t *testing.T) {
	f := testFilter()

	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"open without label", &Node{}, true},
		{"open with state", &Node{Labels: map[string]string{prioKey: "urgent"}}, true},
		{"delayed", &Node{Labels: map[string]string{prioKey: "later"}}, false},
		{"delayed under other key", &Node{Labels: map[string]string{"other": "later"}}, true},
		{"completed", &Node{Completed: true}, false},
		{"archived", &Node{Archived: true}, false},
		{"deleted", &Node{Deleted: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Active(tt.node); got != tt.want {
				t.Errorf("Active = %v, want %v", got, tt.want)
			}
		})
	}
}

func node(id, state string, children ...*Node) *Node {
	n := &Node{ID: id, Labels: map[string]string{}, Children: children}
	if state != "" {
		n.Labels[prioKey] = state
	}
	return n
}

// TestCollectUpdates_UrgentChildWins covers a parent marked normal with an
// urgent child and a child in the delayed state.
func TestCollectUpdates_UrgentChildWins(t *testing.T) {
	agg := testAggregator(t)
	parent := node("parent", "normal", node("c1", "urgent"), node("c2", "later"))

	updates := agg.CollectUpdates([]*Node{parent})

	equalIDs(t, "updates", updates, "parent")
	if parent.Label(prioKey) != "urgent" {
		t.Errorf("parent label = %q, want urgent", parent.Label(prioKey))
	}
}

func TestCollectUpdates_Idempotent(t *testing.T) {
	agg := testAggregator(t)
	roots := []*Node{
		node("a", "", node("b", "normal", node("c", "urgent"))),
		node("d", "urgent", node("e", "")),
	}

	first := agg.CollectUpdates(roots)
	if len(first) == 0 {
		t.Fatal("expected updates on first pass")
	}
	if second := agg.CollectUpdates(roots); len(second) != 0 {
		t.Errorf("second pass updates = %v, want none", ids(second))
	}
}

func TestCollectUpdates_ChildlessNeverUpdated(t *testing.T) {
	agg := testAggregator(t)
	lonely := node("lonely", "")

	if updates := agg.CollectUpdates([]*Node{lonely}); len(updates) != 0 {
		t.Errorf("updates = %v, want none", ids(updates))
	}
	if _, ok := lonely.Labels[prioKey]; ok {
		t.Error("childless node label should be untouched")
	}
}

// TestCollectChanges_PropagatesLevelByLevel verifies deeper nodes settle first
// and their new labels feed the next level.
func TestCollectChanges_PropagatesLevelByLevel(t *testing.T) {
	agg := testAggregator(t)
	child := node("child", "normal", node("grandchild", "urgent"))
	root := node("root", "normal", child, node("sibling", "normal"))

	changes := agg.CollectChanges([]*Node{root})

	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}
	if changes[0].Node.ID != "child" || changes[0].From != "normal" || changes[0].To != "urgent" {
		t.Errorf("first change = %+v", changes[0])
	}
	if changes[1].Node.ID != "root" || changes[1].To != "urgent" {
		t.Errorf("second change = %+v", changes[1])
	}
}

func TestCollectUpdates_UnknownStates(t *testing.T) {
	agg := testAggregator(t)

	tests := []struct {
		name      string
		parent    *Node
		wantLabel string
		wantCount int
	}{
		{
			name:      "children without labels clear parent",
			parent:    node("p", "normal", node("c1", ""), node("c2", "")),
			wantLabel: priority.NoPriority,
			wantCount: 1,
		},
		{
			name:      "unknown states keep first seen",
			parent:    node("p", "", node("c1", "mystery"), node("c2", "other")),
			wantLabel: "mystery",
			wantCount: 1,
		},
		{
			name:      "known state beats unknown",
			parent:    node("p", "mystery", node("c1", "mystery"), node("c2", "normal")),
			wantLabel: "normal",
			wantCount: 1,
		},
		{
			name:      "unlabelled parent of unlabelled child stays",
			parent:    node("p", "", node("c1", "")),
			wantLabel: priority.NoPriority,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := agg.CollectUpdates([]*Node{tt.parent})
			if len(updates) != tt.wantCount {
				t.Errorf("updates = %d, want %d", len(updates), tt.wantCount)
			}
			if got := tt.parent.Label(prioKey); got != tt.wantLabel {
				t.Errorf("parent label = %q, want %q", got, tt.wantLabel)
			}
		})
	}
}

// TestBuildAndCollect_DelayedBlocksInfluence verifies that a delayed task is
// cut out with its subtree, so its urgent children cannot reach the root.
func TestBuildAndCollect_DelayedBlocksInfluence(t *testing.T) {
	repo := newMemRepo()
	repo.add("col", task("root", "normal", "delayed", "plain"))
	repo.add("", task("delayed", "later", "hot"))
	repo.add("", task("hot", "urgent"))
	repo.add("", task("plain", "normal"))

	roots, err := NewBuilder(repo, testFilter()).BuildColumn(context.Background(), "col")
	if err != nil {
		t.Fatalf("BuildColumn failed: %v", err)
	}

	updates := testAggregator(t).CollectUpdates(roots)
	if len(updates) != 0 {
		t.Errorf("updates = %v, want none", ids(updates))
	}
	if roots[0].Label(prioKey) != "normal" {
		t.Errorf("root label = %q, want normal", roots[0].Label(prioKey))
	}
}

func TestCollectUpdates_NilLabels(t *testing.T) {
	agg := testAggregator(t)
	parent := &Node{ID: "p", Children: []*Node{node("c", "urgent")}}

	updates := agg.CollectUpdates([]*Node{parent})
	equalIDs(t, "updates", updates, "p")
	if parent.Labels[prioKey] != "urgent" {
		t.Errorf("label = %q, want urgent", parent.Labels[prioKey])
	}
}
