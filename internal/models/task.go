package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind discriminates plain tasks, epics and subtasks.
type Kind string

const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// ParseKind converts the persisted name of a kind back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTask, KindEpic, KindSubtask:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}

// Status is the progress state of any entity.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ParseStatus converts the persisted name of a status back into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNew, StatusInProgress, StatusDone:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Task is the single record type for all three kinds of entity.
// EpicID is only meaningful for subtasks, SubtaskIDs only for epics.
type Task struct {
	ID          int64          `json:"id"`
	Kind        Kind           `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      Status         `json:"status"`
	StartTime   *time.Time     `json:"start_time,omitempty"`
	Duration    *time.Duration `json:"duration,omitempty"`

	// EpicID references the owning epic of a subtask.
	EpicID int64 `json:"epic_id,omitempty"`

	// SubtaskIDs lists the members of an epic in insertion order.
	SubtaskIDs []int64 `json:"subtask_ids,omitempty"`

	// epicEnd holds the aggregated end time of an epic.
	epicEnd *time.Time
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("title is required")
	}

	if _, err := ParseKind(string(t.Kind)); err != nil {
		return errors.New("kind must be 'TASK', 'EPIC', or 'SUBTASK'")
	}

	if _, err := ParseStatus(string(t.Status)); err != nil {
		return errors.New("status must be 'NEW', 'IN_PROGRESS', or 'DONE'")
	}

	if t.Duration != nil && *t.Duration < 0 {
		return errors.New("duration must not be negative")
	}

	if t.Kind == KindSubtask && t.EpicID <= 0 {
		return errors.New("epic_id is required for subtasks")
	}

	if err := checkStorableTime("start_time", t.StartTime); err != nil {
		return err
	}
	if err := checkStorableTime("end_time", t.EndTime()); err != nil {
		return err
	}

	return nil
}

// checkStorableTime rejects instants that do not survive an RFC 3339 round
// trip: years outside 0000-9999 and zone offsets with a seconds part.
func checkStorableTime(field string, v *time.Time) error {
	if v == nil {
		return nil
	}
	if y := v.Year(); y < 0 || y > 9999 {
		return fmt.Errorf("%s year must be between 0 and 9999", field)
	}
	if _, offset := v.Zone(); offset%60 != 0 {
		return fmt.Errorf("%s zone offset must be whole minutes", field)
	}
	return nil
}

// EndTime returns the time the task is expected to finish. For plain tasks and
// subtasks it is StartTime plus Duration; epics report the latest end time of
// their subtasks. It is nil when the inputs are missing.
func (t *Task) EndTime() *time.Time {
	if t.Kind == KindEpic {
		return copyTime(t.epicEnd)
	}
	if t.StartTime == nil || t.Duration == nil {
		return nil
	}
	end := t.StartTime.Add(*t.Duration)
	return &end
}

// SetEpicTiming overwrites the derived timing fields of an epic.
func (t *Task) SetEpicTiming(start *time.Time, duration *time.Duration, end *time.Time) {
	t.StartTime = copyTime(start)
	t.Duration = copyDuration(duration)
	t.epicEnd = copyTime(end)
}

// HasSubtask reports whether id is a member of the epic.
func (t *Task) HasSubtask(id int64) bool {
	for _, sid := range t.SubtaskIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias store state.
func (t *Task) Clone() *Task {
	c := *t
	c.StartTime = copyTime(t.StartTime)
	c.Duration = copyDuration(t.Duration)
	c.epicEnd = copyTime(t.epicEnd)
	if t.SubtaskIDs != nil {
		c.SubtaskIDs = append([]int64(nil), t.SubtaskIDs...)
	}
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
