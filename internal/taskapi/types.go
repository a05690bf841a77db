package taskapi

import "context"

// Task is a task record as returned by the REST API.
// Stickers map a sticker id to the id of its selected state.
type Task struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	ColumnID  string            `json:"columnId,omitempty"`
	Archived  bool              `json:"archived"`
	Completed bool              `json:"completed"`
	Deleted   bool              `json:"deleted"`
	Subtasks  []string          `json:"subtasks,omitempty"`
	Stickers  map[string]string `json:"stickers,omitempty"`
}

// Paging describes where a page sits in a list result.
type Paging struct {
	Count  int  `json:"count"`
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
	Next   bool `json:"next"`
}

// Page is one page of a task listing.
type Page struct {
	Paging  Paging `json:"paging"`
	Content []Task `json:"content"`
}

// NextOffset returns the offset of the page following p.
func (p Page) NextOffset() int {
	return p.Paging.Offset + p.Paging.Count
}

// Repository is the task storage the sync operates on.
type Repository interface {
	// ListTasks returns one page of the tasks in a column, starting at offset.
	ListTasks(ctx context.Context, columnID string, offset int) (Page, error)

	// GetTask fetches a single task. Missing tasks yield ErrNotFound.
	GetTask(ctx context.Context, id string) (Task, error)

	// UpdateTaskLabels replaces the sticker map of a task.
	UpdateTaskLabels(ctx context.Context, id string, labels map[string]string) error
}
