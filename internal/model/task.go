package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state shared by tasks and subtasks.
type Status string

// Status constants. The cycle order is PENDING -> INPROGRESS -> DONE -> PENDING.
const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "INPROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in cycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Next returns the status that follows s in the cycle. Unknown values
// restart the cycle at PENDING.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusPending
}

// Open reports whether the status still needs work.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusInProgress
}

// Label returns a human-readable name for the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseStatus accepts a status name in any case ("done", "InProgress",
// "in_progress") and returns the canonical value.
func ParseStatus(s string) (Status, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.NewReplacer("_", "", "-", "", " ", "").Replace(v)
	st := Status(v)
	if !st.Valid() {
		return "", false
	}
	return st, true
}

// Task is one unit of work stored in exactly one tag shard.
type Task struct {
	// ID is unique within the owning shard only.
	ID int `yaml:"id" json:"id"`

	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Status      Status `yaml:"status" json:"status"`

	// Tag is the canonical name of the shard holding this task.
	Tag string `yaml:"tag" json:"tag"`

	// Order controls display sequence within the shard.
	Order int `yaml:"order" json:"order"`

	Subtasks  []Subtask `yaml:"subtasks" json:"subtasks"`
	CreatedAt time.Time `yaml:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt" json:"updatedAt"`
}

// Subtask is a single flat breakdown item owned by a Task.
type Subtask struct {
	// ID is unique within the parent task only.
	ID        int       `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Status    Status    `yaml:"status" json:"status"`
	Order     int       `yaml:"order" json:"order"`
	CreatedAt time.Time `yaml:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt" json:"updatedAt"`
}

// SubtaskProgress returns the number of DONE subtasks and the total.
func (t Task) SubtaskProgress() (done, total int) {
	for _, st := range t.Subtasks {
		if st.Status == StatusDone {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// Clone returns a deep copy so callers cannot alias shard state.
func (t Task) Clone() Task {
	c := t
	if t.Subtasks != nil {
		c.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(c.Subtasks, t.Subtasks)
	}
	return c
}

// Shard is the durable record for one tag.
type Shard struct {
	// NextID is the id handed to the next task created in this shard.
	// It only grows; ids of deleted tasks are never reused.
	NextID      int    `yaml:"next_id" json:"next_id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Tasks       []Task `yaml:"tasks" json:"tasks"`
}

// NewShard returns an empty shard with the id counter at 1.
func NewShard() *Shard {
	return &Shard{NextID: 1, Tasks: []Task{}}
}

// IndexOf returns the slice index of the task with the given id, or -1.
func (s *Shard) IndexOf(id int) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// MaxID returns the largest task id present in the shard, or 0.
func (s *Shard) MaxID() int {
	maxID := 0
	for _, t := range s.Tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID
}

// TaskUpdate carries optional task field changes. A nil field is left
// untouched; a pointer to "" sets the field to empty.
type TaskUpdate struct {
	Title       *string
	Description *string
	Tag         *string
}

// Empty reports whether no field is set.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Tag == nil
}

// SubtaskUpdate carries optional subtask field changes.
type SubtaskUpdate struct {
	Title  *string
	Status *Status
}

// Empty reports whether no field is set.
func (u SubtaskUpdate) Empty() bool {
	return u.Title == nil && u.Status == nil
}

// StatusOptions tunes a task status change.
type StatusOptions struct {
	// CompleteSubtasks marks every subtask DONE before the task status
	// is applied.
	CompleteSubtasks bool
}
