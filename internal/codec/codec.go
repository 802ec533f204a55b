// Package codec converts tasks and view history to and from the line-oriented
// snapshot format:
//
//	id,type,name,status,description,epic,starttime,duration,endtime
//	1,TASK,Write report,NEW,Quarterly numbers,,null,null,null
//	2,EPIC,Move house,IN_PROGRESS,,,2024-03-01T09:00:00Z,3h0m0s,2024-03-02T12:00:00Z
//	3,SUBTASK,Pack boxes,DONE,,2,2024-03-01T09:00:00Z,3h0m0s,2024-03-01T12:00:00Z
//
//	3,1
//
// Fields are separated by commas without any escaping, so free text must not
// contain commas or line breaks. Timestamps use RFC 3339 with nanoseconds and
// durations use Go duration syntax; absent values are written as null.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tasktracker/internal/models"
)

const (
	// Header is the legend written as the first line of every snapshot.
	Header = "id,type,name,status,description,epic,starttime,duration,endtime"

	null       = "null"
	separator  = ","
	fieldCount = 9
)

// CheckText reports whether the free-text fields of t can be written without
// corrupting the line structure.
func CheckText(t *models.Task) error {
	for _, f := range []struct{ name, value string }{
		{"title", t.Title},
		{"description", t.Description},
	} {
		if strings.ContainsAny(f.value, ",\r\n") {
			return fmt.Errorf("%w: %s must not contain commas or line breaks", models.ErrMalformedRecord, f.name)
		}
	}
	return nil
}

// EncodeTask renders t as a single line without a trailing newline.
func EncodeTask(t *models.Task) (string, error) {
	if err := CheckText(t); err != nil {
		return "", err
	}

	epic := ""
	if t.Kind == models.KindSubtask {
		epic = strconv.FormatInt(t.EpicID, 10)
	}

	fields := []string{
		strconv.FormatInt(t.ID, 10),
		string(t.Kind),
		t.Title,
		string(t.Status),
		t.Description,
		epic,
		formatTime(t.StartTime),
		formatDuration(t.Duration),
		formatTime(t.EndTime()),
	}
	return strings.Join(fields, separator), nil
}

// DecodeTask parses a line produced by EncodeTask. The end time column is
// checked for syntax only because it is derived from the other fields.
// Epics come back without members; their status and timing are recomputed
// once their subtasks are attached.
func DecodeTask(line string) (*models.Task, error) {
	fields := strings.Split(line, separator)
	if len(fields) != fieldCount {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", models.ErrMalformedRecord, fieldCount, len(fields))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrMalformedRecord, fields[0])
	}

	kind, err := models.ParseKind(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
	}

	status, err := models.ParseStatus(strings.TrimSpace(fields[3]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedRecord, err)
	}

	if strings.TrimSpace(fields[2]) == "" {
		return nil, fmt.Errorf("%w: blank title", models.ErrMalformedRecord)
	}

	t := &models.Task{
		ID:          id,
		Kind:        kind,
		Title:       fields[2],
		Status:      status,
		Description: fields[4],
	}

	epicField := strings.TrimSpace(fields[5])
	switch {
	case kind == models.KindSubtask:
		epicID, err := strconv.ParseInt(epicField, 10, 64)
		if err != nil || epicID <= 0 {
			return nil, fmt.Errorf("%w: invalid epic id %q", models.ErrMalformedRecord, fields[5])
		}
		t.EpicID = epicID
	case epicField != "":
		return nil, fmt.Errorf("%w: epic id set on %s", models.ErrMalformedRecord, kind)
	}

	start, err := parseTime(fields[6])
	if err != nil {
		return nil, err
	}
	duration, err := parseDuration(fields[7])
	if err != nil {
		return nil, err
	}
	if _, err := parseTime(fields[8]); err != nil {
		return nil, err
	}

	if kind != models.KindEpic {
		t.StartTime = start
		t.Duration = duration
	}

	return t, nil
}

// EncodeHistory joins ids with commas. An empty history is an empty string.
func EncodeHistory(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, separator)
}

// DecodeHistory parses a line produced by EncodeHistory.
func DecodeHistory(line string) ([]int64, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	parts := strings.Split(line, separator)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid history id %q", models.ErrMalformedRecord, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return null
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == null {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timestamp %q", models.ErrMalformedRecord, s)
	}
	return &t, nil
}

func formatDuration(d *time.Duration) string {
	if d == nil {
		return null
	}
	return d.String()
}

func parseDuration(s string) (*time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == null {
		return nil, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("%w: invalid duration %q", models.ErrMalformedRecord, s)
	}
	return &d, nil
}
