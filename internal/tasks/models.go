package tasks

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a batch task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusRunning:   1,
	StatusCompleted: 2,
	StatusFailed:    2,
	StatusCancelled: 2,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusRank[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is final.
func (s Status) IsTerminal() bool {
	return statusRank[s] == 2
}

// CanTransition reports whether moving from one status to another is a legal
// forward transition. Staying in place is allowed so field updates while
// running are not rejected.
func CanTransition(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	return toRank > fromRank
}

// Task is one unit of batch work (one episode) tracked independently of the
// pipeline's internal stage state.
type Task struct {
	ID           int64
	TaskID       string
	Project      string
	Name         string
	Episode      int
	ConfigJSON   string
	Status       Status
	EpisodeDir   string
	ConfigPath   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
}

// SetRunning transitions the task to running and stamps the start time.
func (t *Task) SetRunning() {
	now := time.Now().UTC()
	t.Status = StatusRunning
	t.StartedAt = &now
	t.ErrorMessage = ""
}

// SetCompleted transitions the task to completed with pointers to its
// produced episode directory and config file.
func (t *Task) SetCompleted(episodeDir, configPath string) {
	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.EpisodeDir = episodeDir
	t.ConfigPath = configPath
	t.EndedAt = &now
}

// SetFailed transitions the task to failed with the error message.
func (t *Task) SetFailed(message string) {
	now := time.Now().UTC()
	t.Status = StatusFailed
	t.ErrorMessage = message
	t.EndedAt = &now
}

// StatusCounts aggregates task counts for one project.
type StatusCounts struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Cancelled int
}

// Add accumulates one task with the given status.
func (c *StatusCounts) Add(status Status, count int) {
	c.Total += count
	switch status {
	case StatusPending:
		c.Pending += count
	case StatusRunning:
		c.Running += count
	case StatusCompleted:
		c.Completed += count
	case StatusFailed:
		c.Failed += count
	case StatusCancelled:
		c.Cancelled += count
	}
}
