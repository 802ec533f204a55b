package models

import (
	"testing"
	"time"
)

func TestTaskValidation_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty title should fail",
			task:    Task{Title: "", Kind: KindTask, Status: StatusNew},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name:    "whitespace title should fail",
			task:    Task{Title: "   ", Kind: KindTask, Status: StatusNew},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name:    "subtask without epic should fail",
			task:    Task{Title: "Sub", Kind: KindSubtask, Status: StatusNew},
			wantErr: true,
			errMsg:  "epic_id is required for subtasks",
		},
		{
			name:    "valid subtask should pass",
			task:    Task{Title: "Sub", Kind: KindSubtask, Status: StatusNew, EpicID: 1},
			wantErr: false,
		},
		{
			name:    "valid task should pass",
			task:    Task{Title: "Test task", Kind: KindTask, Status: StatusDone},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				} else if err.Error() != tt.errMsg {
					t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestTaskValidation_EnumValues(t *testing.T) {
	negative := -time.Minute

	tests := []struct {
		name   string
		task   Task
		errMsg string
	}{
		{
			name:   "unknown status should fail",
			task:   Task{Title: "Test", Kind: KindTask, Status: "BLOCKED"},
			errMsg: "status must be 'NEW', 'IN_PROGRESS', or 'DONE'",
		},
		{
			name:   "empty kind should fail",
			task:   Task{Title: "Test", Status: StatusNew},
			errMsg: "kind must be 'TASK', 'EPIC', or 'SUBTASK'",
		},
		{
			name:   "negative duration should fail",
			task:   Task{Title: "Test", Kind: KindTask, Status: StatusNew, Duration: &negative},
			errMsg: "duration must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestParseStatusAndKind(t *testing.T) {
	for _, s := range []string{"NEW", "IN_PROGRESS", "DONE"} {
		if got, err := ParseStatus(s); err != nil || string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("new"); err == nil {
		t.Error("expected lowercase status to be rejected")
	}

	for _, k := range []string{"TASK", "EPIC", "SUBTASK"} {
		if got, err := ParseKind(k); err != nil || string(got) != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("STORY"); err == nil {
		t.Error("expected unknown kind to be rejected")
	}
}

func TestTask_EndTime(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	hour := time.Hour

	tests := []struct {
		name     string
		task     Task
		expected *time.Time
	}{
		{
			name:     "start and duration give end",
			task:     Task{Kind: KindTask, StartTime: &start, Duration: &hour},
			expected: func() *time.Time { e := start.Add(time.Hour); return &e }(),
		},
		{
			name:     "missing duration gives no end",
			task:     Task{Kind: KindTask, StartTime: &start},
			expected: nil,
		},
		{
			name:     "missing start gives no end",
			task:     Task{Kind: KindSubtask, Duration: &hour},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.task.EndTime()
			if tt.expected == nil {
				if got != nil {
					t.Errorf("expected no end time, got %v", got)
				}
				return
			}
			if got == nil || !got.Equal(*tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTask_EpicEndTimeIsAggregated(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	d := 2 * time.Hour

	epic := Task{Kind: KindEpic}
	if epic.EndTime() != nil {
		t.Fatal("expected fresh epic to have no end time")
	}

	epic.SetEpicTiming(&start, &d, &end)
	if got := epic.EndTime(); got == nil || !got.Equal(end) {
		t.Errorf("expected end %v, got %v", end, got)
	}
}

func TestTask_CloneDoesNotAlias(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := &Task{ID: 1, Kind: KindEpic, StartTime: &start, SubtaskIDs: []int64{2, 3}}

	c := orig.Clone()
	c.SubtaskIDs[0] = 99
	*c.StartTime = start.Add(time.Hour)

	if orig.SubtaskIDs[0] != 2 {
		t.Error("clone shares subtask ids with original")
	}
	if !orig.StartTime.Equal(start) {
		t.Error("clone shares start time with original")
	}
	if !c.HasSubtask(3) || c.HasSubtask(2) {
		t.Errorf("unexpected membership in clone: %v", c.SubtaskIDs)
	}
}

func TestTaskValidation_StorableTimes(t *testing.T) {
	lateStart := time.Date(9999, 12, 31, 23, 0, 0, 0, time.UTC)
	tooLate := time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
	oddOffset := time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("LMT", 3630))
	wholeOffset := time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	hour := time.Hour
	twoHours := 2 * time.Hour

	tests := []struct {
		name   string
		task   Task
		errMsg string
	}{
		{
			name:   "end past year 9999 should fail",
			task:   Task{Title: "Late", Kind: KindTask, Status: StatusNew, StartTime: &lateStart, Duration: &twoHours},
			errMsg: "end_time year must be between 0 and 9999",
		},
		{
			name:   "start past year 9999 should fail",
			task:   Task{Title: "Late", Kind: KindTask, Status: StatusNew, StartTime: &tooLate},
			errMsg: "start_time year must be between 0 and 9999",
		},
		{
			name:   "offset with seconds should fail",
			task:   Task{Title: "Odd", Kind: KindTask, Status: StatusNew, StartTime: &oddOffset},
			errMsg: "start_time zone offset must be whole minutes",
		},
		{
			name: "last hour of year 9999 should pass",
			task: Task{Title: "Late", Kind: KindTask, Status: StatusNew, StartTime: &lateStart, Duration: &hour},
		},
		{
			name: "whole minute offset should pass",
			task: Task{Title: "Ok", Kind: KindTask, Status: StatusNew, StartTime: &wholeOffset, Duration: &hour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}
