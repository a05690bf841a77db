package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Topic() string
}

// Topic constants
const (
	TopicRun    = "run"
	TopicColumn = "column"
	TopicTask   = "task"
	TopicAPI    = "api"
)

// Event type constants
const (
	EventTypeRunStarted    = "run.started"
	EventTypeRunFinished   = "run.finished"
	EventTypeColumnScanned = "column.scanned"
	EventTypeTaskUpdated   = "task.updated"
	EventTypeCallIssued    = "api.call"
)

// RunStartedEvent is published before the first column is scanned.
type RunStartedEvent struct {
	RunID     string
	Columns   []string
	DryRun    bool
	Timestamp time.Time
}

func (e RunStartedEvent) EventType() string { return EventTypeRunStarted }
func (e RunStartedEvent) Topic() string     { return TopicRun }

// ColumnScannedEvent is published once a column's trees are built.
type ColumnScannedEvent struct {
	RunID     string
	ColumnID  string
	Roots     int
	Nodes     int
	Duration  time.Duration
	Timestamp time.Time
}

func (e ColumnScannedEvent) EventType() string { return EventTypeColumnScanned }
func (e ColumnScannedEvent) Topic() string     { return TopicColumn }

// TaskUpdatedEvent is published for every priority change, written or not.
type TaskUpdatedEvent struct {
	RunID     string
	ID        string
	Title     string
	From      string
	To        string
	Written   bool // false in dry-run mode
	Timestamp time.Time
}

func (e TaskUpdatedEvent) EventType() string { return EventTypeTaskUpdated }
func (e TaskUpdatedEvent) Topic() string     { return TopicTask }

// CallIssuedEvent is published after every remote call.
type CallIssuedEvent struct {
	Op        string
	Issued    int64
	InUse     int
	Budget    int
	Err       error
	Timestamp time.Time
}

func (e CallIssuedEvent) EventType() string { return EventTypeCallIssued }
func (e CallIssuedEvent) Topic() string     { return TopicAPI }

// RunFinishedEvent is published when a run ends, successfully or not.
type RunFinishedEvent struct {
	RunID     string
	Updates   int
	Applied   int
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

func (e RunFinishedEvent) EventType() string { return EventTypeRunFinished }
func (e RunFinishedEvent) Topic() string     { return TopicRun }
