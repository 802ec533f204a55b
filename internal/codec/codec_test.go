package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
)

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestEncodeTask(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task models.Task
		want string
	}{
		{
			name: "plain task without timing",
			task: models.Task{ID: 1, Kind: models.KindTask, Title: "Write report", Status: models.StatusNew, Description: "Numbers"},
			want: "1,TASK,Write report,NEW,Numbers,,null,null,null",
		},
		{
			name: "subtask with timing",
			task: models.Task{
				ID: 3, Kind: models.KindSubtask, Title: "Pack", Status: models.StatusDone, EpicID: 2,
				StartTime: &start, Duration: durationPtr(90 * time.Minute),
			},
			want: "3,SUBTASK,Pack,DONE,,2,2024-03-01T09:00:00Z,1h30m0s,2024-03-01T10:30:00Z",
		},
		{
			name: "epic ignores epic id",
			task: models.Task{ID: 2, Kind: models.KindEpic, Title: "Move", Status: models.StatusInProgress, EpicID: 9},
			want: "2,EPIC,Move,IN_PROGRESS,,,null,null,null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeTask(&tt.task)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeTask_RejectsDelimiterInText(t *testing.T) {
	for _, task := range []models.Task{
		{ID: 1, Kind: models.KindTask, Title: "a,b", Status: models.StatusNew},
		{ID: 1, Kind: models.KindTask, Title: "ok", Description: "line\nbreak", Status: models.StatusNew},
	} {
		_, err := EncodeTask(&task)
		assert.ErrorIs(t, err, models.ErrMalformedRecord)
	}
}

func TestDecodeTask(t *testing.T) {
	got, err := DecodeTask("3,SUBTASK,Pack,DONE,Fragile first,2,2024-03-01T09:00:00Z,1h30m0s,2024-03-01T10:30:00Z")
	require.NoError(t, err)

	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, models.KindSubtask, got.Kind)
	assert.Equal(t, "Pack", got.Title)
	assert.Equal(t, "Fragile first", got.Description)
	assert.Equal(t, models.StatusDone, got.Status)
	assert.Equal(t, int64(2), got.EpicID)
	require.NotNil(t, got.StartTime)
	assert.True(t, got.StartTime.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NotNil(t, got.Duration)
	assert.Equal(t, 90*time.Minute, *got.Duration)
}

func TestDecodeTask_NullTiming(t *testing.T) {
	got, err := DecodeTask("1,TASK,Write report,NEW,,,null,null,null")
	require.NoError(t, err)

	assert.Nil(t, got.StartTime)
	assert.Nil(t, got.Duration)
	assert.Nil(t, got.EndTime())
}

func TestDecodeTask_EpicTimingIsDerived(t *testing.T) {
	got, err := DecodeTask("2,EPIC,Move,DONE,,,2024-03-01T09:00:00Z,1h0m0s,2024-03-01T10:00:00Z")
	require.NoError(t, err)

	assert.Nil(t, got.StartTime)
	assert.Nil(t, got.Duration)
	assert.Empty(t, got.SubtaskIDs)
}

func TestDecodeTask_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "1,TASK,Title,NEW"},
		{"too many fields", "1,TASK,Ti,tle,NEW,,,null,null,null"},
		{"bad id", "x,TASK,Title,NEW,,,null,null,null"},
		{"zero id", "0,TASK,Title,NEW,,,null,null,null"},
		{"unknown kind", "1,STORY,Title,NEW,,,null,null,null"},
		{"blank title", "1,TASK, ,NEW,,,null,null,null"},
		{"unknown status", "1,TASK,Title,OPEN,,,null,null,null"},
		{"subtask without epic", "1,SUBTASK,Title,NEW,,,null,null,null"},
		{"task with epic", "1,TASK,Title,NEW,,4,null,null,null"},
		{"bad timestamp", "1,TASK,Title,NEW,,,yesterday,null,null"},
		{"bad duration", "1,TASK,Title,NEW,,,null,PT15M,null"},
		{"negative duration", "1,TASK,Title,NEW,,,null,-5m,null"},
		{"bad end time", "1,TASK,Title,NEW,,,null,null,soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTask(tt.line)
			assert.ErrorIs(t, err, models.ErrMalformedRecord)
		})
	}
}

func TestHistoryLine(t *testing.T) {
	assert.Equal(t, "", EncodeHistory(nil))
	assert.Equal(t, "4", EncodeHistory([]int64{4}))
	assert.Equal(t, "3,1,2", EncodeHistory([]int64{3, 1, 2}))

	ids, err := DecodeHistory("3,1,2")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = DecodeHistory("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = DecodeHistory("3,x")
	assert.ErrorIs(t, err, models.ErrMalformedRecord)
}
