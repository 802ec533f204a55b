package store

import (
	"time"

	"tasktracker/internal/models"
)

// AggregateStatus derives an epic's status from the statuses of its subtasks.
// No subtasks, or only NEW ones, give NEW; only DONE ones give DONE; any other
// mix gives IN_PROGRESS.
func AggregateStatus(statuses []models.Status) models.Status {
	if len(statuses) == 0 {
		return models.StatusNew
	}

	allNew, allDone := true, true
	for _, st := range statuses {
		if st != models.StatusNew {
			allNew = false
		}
		if st != models.StatusDone {
			allDone = false
		}
	}

	switch {
	case allDone:
		return models.StatusDone
	case allNew:
		return models.StatusNew
	default:
		return models.StatusInProgress
	}
}

// aggregateTiming derives an epic's schedule: the earliest start, the summed
// durations and the latest end among its subtasks. Subtasks without timing
// data are ignored.
func aggregateTiming(subtasks []*models.Task) (start *time.Time, duration *time.Duration, end *time.Time) {
	for _, st := range subtasks {
		if st.StartTime != nil && (start == nil || st.StartTime.Before(*start)) {
			v := *st.StartTime
			start = &v
		}
		if st.Duration != nil {
			var total time.Duration
			if duration != nil {
				total = *duration
			}
			total += *st.Duration
			duration = &total
		}
		if e := st.EndTime(); e != nil && (end == nil || e.After(*end)) {
			end = e
		}
	}
	return start, duration, end
}
