package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"tasktracker/internal/codec"
	"tasktracker/internal/history"
	"tasktracker/internal/models"
)

// MemoryStore implements the Store interface on maps keyed by id. Tasks,
// epics and subtasks share one id space. Subtasks point at their epic by id
// and every epic lists its subtask ids in ascending order.
type MemoryStore struct {
	mu       sync.Mutex
	lastID   int64
	tasks    map[int64]*models.Task
	epics    map[int64]*models.Task
	subtasks map[int64]*models.Task
	history  history.Manager
}

// NewMemoryStore creates an empty store that records views in h. A nil h
// gets a fresh in-memory history.
func NewMemoryStore(h history.Manager) *MemoryStore {
	if h == nil {
		h = history.NewInMemory()
	}
	return &MemoryStore{
		tasks:    make(map[int64]*models.Task),
		epics:    make(map[int64]*models.Task),
		subtasks: make(map[int64]*models.Task),
		history:  h,
	}
}

func (s *MemoryStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

// prepare fixes the kind, defaults an empty status to NEW and validates.
func prepare(t *models.Task, kind models.Kind) error {
	t.Kind = kind
	if t.Status == "" {
		t.Status = models.StatusNew
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidTask, err)
	}
	return nil
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, models.ErrNotFound)
}

func invalidEpic(id int64) error {
	return fmt.Errorf("epic %d: %w", id, models.ErrInvalidReference)
}

// AddTask stores a plain task and writes the assigned id back into task.
func (s *MemoryStore) AddTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := prepare(task, models.KindTask); err != nil {
		return err
	}
	task.ID = s.nextID()
	task.EpicID = 0
	task.SubtaskIDs = nil
	s.tasks[task.ID] = task.Clone()
	return nil
}

// GetTask retrieves a plain task by ID and records the view.
func (s *MemoryStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(s.tasks, "task", id)
}

func (s *MemoryStore) get(m map[int64]*models.Task, kind string, id int64) (*models.Task, error) {
	t, ok := m[id]
	if !ok {
		return nil, notFound(kind, id)
	}
	s.history.Add(id)
	return t.Clone(), nil
}

// ListTasks returns all plain tasks ordered by id.
func (s *MemoryStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return list(s.tasks), nil
}

func list(m map[int64]*models.Task) []models.Task {
	out := make([]models.Task, 0, len(m))
	for _, id := range sortedIDs(m) {
		out = append(out, *m[id].Clone())
	}
	return out
}

func sortedIDs(m map[int64]*models.Task) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UpdateTask replaces the plain task with the same ID.
func (s *MemoryStore) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return notFound("task", task.ID)
	}
	if err := prepare(task, models.KindTask); err != nil {
		return err
	}
	task.EpicID = 0
	task.SubtaskIDs = nil
	s.tasks[task.ID] = task.Clone()
	return nil
}

// DeleteTask removes a plain task. Unknown ids are ignored.
func (s *MemoryStore) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, id)
	return nil
}

// DeleteAllTasks removes every plain task. Epics and subtasks are kept.
func (s *MemoryStore) DeleteAllTasks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[int64]*models.Task)
	return nil
}

// AddEpic stores a new epic with no subtasks. Status and timing supplied by
// the caller are discarded; the derived values are written back into epic.
func (s *MemoryStore) AddEpic(ctx context.Context, epic *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic.Status = models.StatusNew
	if err := prepare(epic, models.KindEpic); err != nil {
		return err
	}
	stored := epic.Clone()
	stored.ID = s.nextID()
	stored.EpicID = 0
	stored.SubtaskIDs = nil
	s.epics[stored.ID] = stored
	s.refreshEpic(stored)

	*epic = *stored.Clone()
	return nil
}

// GetEpic retrieves an epic by ID and records the view.
func (s *MemoryStore) GetEpic(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(s.epics, "epic", id)
}

// ListEpics returns all epics ordered by id.
func (s *MemoryStore) ListEpics(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return list(s.epics), nil
}

// ListEpicSubtasks returns the subtasks of an epic in id order.
func (s *MemoryStore) ListEpicSubtasks(ctx context.Context, epicID int64) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, ok := s.epics[epicID]
	if !ok {
		return nil, notFound("epic", epicID)
	}

	out := make([]models.Task, 0, len(epic.SubtaskIDs))
	for _, sid := range epic.SubtaskIDs {
		out = append(out, *s.subtasks[sid].Clone())
	}
	return out, nil
}

// UpdateEpic replaces the title and description of an epic. Membership,
// status and timing stay derived from the current subtasks.
func (s *MemoryStore) UpdateEpic(ctx context.Context, epic *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.epics[epic.ID]
	if !ok {
		return notFound("epic", epic.ID)
	}

	epic.Status = existing.Status
	if err := prepare(epic, models.KindEpic); err != nil {
		return err
	}
	stored := epic.Clone()
	stored.EpicID = 0
	stored.SubtaskIDs = existing.SubtaskIDs
	s.epics[stored.ID] = stored
	s.refreshEpic(stored)

	*epic = *stored.Clone()
	return nil
}

// DeleteEpic removes an epic together with all of its subtasks. Unknown ids
// are ignored.
func (s *MemoryStore) DeleteEpic(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, ok := s.epics[id]
	if !ok {
		return nil
	}
	for _, sid := range epic.SubtaskIDs {
		delete(s.subtasks, sid)
	}
	delete(s.epics, id)
	return nil
}

// DeleteAllEpics removes every epic and, with them, every subtask.
func (s *MemoryStore) DeleteAllEpics(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epics = make(map[int64]*models.Task)
	s.subtasks = make(map[int64]*models.Task)
	return nil
}

// AddSubtask stores a subtask under the epic named by EpicID and writes the
// assigned id back into subtask.
func (s *MemoryStore) AddSubtask(ctx context.Context, subtask *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, ok := s.epics[subtask.EpicID]
	if !ok {
		return invalidEpic(subtask.EpicID)
	}
	if err := prepare(subtask, models.KindSubtask); err != nil {
		return err
	}

	subtask.ID = s.nextID()
	subtask.SubtaskIDs = nil
	s.subtasks[subtask.ID] = subtask.Clone()
	epic.SubtaskIDs = insertID(epic.SubtaskIDs, subtask.ID)
	s.refreshEpic(epic)
	return nil
}

// GetSubtask retrieves a subtask by ID and records the view.
func (s *MemoryStore) GetSubtask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(s.subtasks, "subtask", id)
}

// ListSubtasks returns all subtasks ordered by id.
func (s *MemoryStore) ListSubtasks(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return list(s.subtasks), nil
}

// UpdateSubtask replaces a subtask. When EpicID changes the subtask moves to
// the new epic; both epics are recomputed.
func (s *MemoryStore) UpdateSubtask(ctx context.Context, subtask *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subtasks[subtask.ID]
	if !ok {
		return notFound("subtask", subtask.ID)
	}
	epic, ok := s.epics[subtask.EpicID]
	if !ok {
		return invalidEpic(subtask.EpicID)
	}
	if err := prepare(subtask, models.KindSubtask); err != nil {
		return err
	}

	subtask.SubtaskIDs = nil
	s.subtasks[subtask.ID] = subtask.Clone()

	if existing.EpicID != subtask.EpicID {
		if old, ok := s.epics[existing.EpicID]; ok {
			old.SubtaskIDs = removeID(old.SubtaskIDs, subtask.ID)
			s.refreshEpic(old)
		}
		epic.SubtaskIDs = insertID(epic.SubtaskIDs, subtask.ID)
	}
	s.refreshEpic(epic)
	return nil
}

// DeleteSubtask detaches a subtask from its epic and removes it. Unknown ids
// are ignored.
func (s *MemoryStore) DeleteSubtask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtask, ok := s.subtasks[id]
	if !ok {
		return nil
	}
	delete(s.subtasks, id)
	if epic, ok := s.epics[subtask.EpicID]; ok {
		epic.SubtaskIDs = removeID(epic.SubtaskIDs, id)
		s.refreshEpic(epic)
	}
	return nil
}

// DeleteAllSubtasks removes every subtask. Epics are kept and reset to NEW.
func (s *MemoryStore) DeleteAllSubtasks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subtasks = make(map[int64]*models.Task)
	for _, epic := range s.epics {
		epic.SubtaskIDs = nil
		s.refreshEpic(epic)
	}
	return nil
}

// History resolves the viewed ids against the current entities. Ids of
// deleted entities are skipped.
func (s *MemoryStore) History(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Task
	for _, id := range s.history.IDs() {
		if t := s.lookup(id); t != nil {
			out = append(out, *t.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) lookup(id int64) *models.Task {
	if t, ok := s.tasks[id]; ok {
		return t
	}
	if t, ok := s.epics[id]; ok {
		return t
	}
	if t, ok := s.subtasks[id]; ok {
		return t
	}
	return nil
}

// refreshEpic recomputes the status and timing of epic from its subtasks.
// It must run after every change to the epic's membership or to the status
// or timing of one of its subtasks.
func (s *MemoryStore) refreshEpic(epic *models.Task) {
	members := make([]*models.Task, 0, len(epic.SubtaskIDs))
	statuses := make([]models.Status, 0, len(epic.SubtaskIDs))
	for _, sid := range epic.SubtaskIDs {
		st := s.subtasks[sid]
		members = append(members, st)
		statuses = append(statuses, st.Status)
	}

	epic.Status = AggregateStatus(statuses)
	epic.SetEpicTiming(aggregateTiming(members))
}

// Snapshot captures the current state for persistence. History only keeps
// ids that still resolve.
func (s *MemoryStore) Snapshot() *codec.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &codec.Snapshot{MaxID: s.lastID}
	for _, id := range sortedIDs(s.epics) {
		snap.Epics = append(snap.Epics, s.epics[id].Clone())
	}
	for _, id := range sortedIDs(s.subtasks) {
		snap.Subtasks = append(snap.Subtasks, s.subtasks[id].Clone())
	}
	for _, id := range sortedIDs(s.tasks) {
		snap.Tasks = append(snap.Tasks, s.tasks[id].Clone())
	}
	for _, id := range s.history.IDs() {
		if s.lookup(id) != nil {
			snap.History = append(snap.History, id)
		}
	}
	return snap
}

// Restore loads a decoded snapshot into an empty store. Epics are inserted
// first so that subtasks can be attached to them, then subtasks, then plain
// tasks. The id counter continues after the largest id seen.
func (s *MemoryStore) Restore(snap *codec.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks)+len(s.epics)+len(s.subtasks) > 0 || s.lastID != 0 {
		return errors.New("restore into non-empty store")
	}

	taken := func(id int64) error {
		if s.lookup(id) != nil {
			return fmt.Errorf("%w: duplicate id %d", models.ErrMalformedRecord, id)
		}
		return nil
	}

	maxID := snap.MaxID
	for _, e := range snap.Epics {
		if err := taken(e.ID); err != nil {
			return err
		}
		epic := e.Clone()
		epic.Kind = models.KindEpic
		epic.SubtaskIDs = nil
		s.epics[epic.ID] = epic
		maxID = max(maxID, epic.ID)
	}

	for _, st := range snap.Subtasks {
		if err := taken(st.ID); err != nil {
			return err
		}
		epic, ok := s.epics[st.EpicID]
		if !ok {
			return fmt.Errorf("%w: subtask %d: %w", models.ErrMalformedRecord, st.ID, invalidEpic(st.EpicID))
		}
		subtask := st.Clone()
		subtask.Kind = models.KindSubtask
		s.subtasks[subtask.ID] = subtask
		epic.SubtaskIDs = insertID(epic.SubtaskIDs, subtask.ID)
		maxID = max(maxID, subtask.ID)
	}

	for _, t := range snap.Tasks {
		if err := taken(t.ID); err != nil {
			return err
		}
		task := t.Clone()
		task.Kind = models.KindTask
		s.tasks[task.ID] = task
		maxID = max(maxID, task.ID)
	}

	for _, epic := range s.epics {
		s.refreshEpic(epic)
	}
	s.lastID = maxID

	for _, id := range snap.History {
		if s.lookup(id) != nil {
			s.history.Add(id)
		}
	}
	return nil
}

func insertID(ids []int64, id int64) []int64 {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeID(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

var _ Store = (*MemoryStore)(nil)
