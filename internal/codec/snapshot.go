package codec

import (
	"fmt"
	"sort"
	"strings"

	"tasktracker/internal/models"
)

// Snapshot is the full persisted state of a store, bucketed by kind.
type Snapshot struct {
	Epics    []*models.Task
	Subtasks []*models.Task
	Tasks    []*models.Task

	// History is the view order, oldest first.
	History []int64

	// MaxID is the largest id of any entity in the snapshot.
	MaxID int64
}

// Encode renders the snapshot as a document. Entities are written in
// ascending id order.
func Encode(s *Snapshot) ([]byte, error) {
	all := make([]*models.Task, 0, len(s.Epics)+len(s.Subtasks)+len(s.Tasks))
	all = append(all, s.Epics...)
	all = append(all, s.Subtasks...)
	all = append(all, s.Tasks...)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	for _, t := range all {
		line, err := EncodeTask(t)
		if err != nil {
			return nil, fmt.Errorf("encode %s %d: %w", t.Kind, t.ID, err)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(EncodeHistory(s.History))

	return []byte(b.String()), nil
}

// Decode parses a document produced by Encode. The first line is skipped as
// the header. Entity lines run until the first blank line; the line after it
// holds the history. Every subtask must reference an epic present in the
// document and no id may appear twice.
func Decode(data []byte) (*Snapshot, error) {
	s := &Snapshot{}
	if len(data) == 0 {
		return s, nil
	}

	lines := strings.Split(string(data), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	seen := make(map[int64]int)
	inEntities := true
	historyRead := false

	for n, line := range lines {
		lineNo := n + 1
		if n == 0 {
			continue
		}

		if inEntities {
			if line == "" {
				inEntities = false
				continue
			}

			t, err := DecodeTask(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if prev, ok := seen[t.ID]; ok {
				return nil, fmt.Errorf("line %d: %w: id %d already used on line %d", lineNo, models.ErrMalformedRecord, t.ID, prev)
			}
			seen[t.ID] = lineNo

			switch t.Kind {
			case models.KindEpic:
				s.Epics = append(s.Epics, t)
			case models.KindSubtask:
				s.Subtasks = append(s.Subtasks, t)
			default:
				s.Tasks = append(s.Tasks, t)
			}
			if t.ID > s.MaxID {
				s.MaxID = t.ID
			}
			continue
		}

		if historyRead {
			if strings.TrimSpace(line) != "" {
				return nil, fmt.Errorf("line %d: %w: unexpected content after history", lineNo, models.ErrMalformedRecord)
			}
			continue
		}

		ids, err := DecodeHistory(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		s.History = ids
		historyRead = true
	}

	epics := make(map[int64]bool, len(s.Epics))
	for _, e := range s.Epics {
		epics[e.ID] = true
	}
	for _, st := range s.Subtasks {
		if !epics[st.EpicID] {
			return nil, fmt.Errorf("line %d: %w: %w: subtask %d references epic %d",
				seen[st.ID], models.ErrMalformedRecord, models.ErrInvalidReference, st.ID, st.EpicID)
		}
	}

	return s, nil
}
