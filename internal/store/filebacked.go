package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"tasktracker/internal/codec"
	"tasktracker/internal/history"
	"tasktracker/internal/models"
)

// FileBackedStore is a MemoryStore whose full state is written to a Backend
// after every change and every Get. Reads that do not touch the view history
// are served from memory without saving.
//
// A failed save is reported as models.ErrPersistence. The in-memory change
// that triggered it is kept, so the next successful save catches up.
type FileBackedStore struct {
	mu      sync.Mutex
	mem     *MemoryStore
	backend Backend
	logger  *zap.Logger
}

// NewFileBackedStore loads the document held by backend and rebuilds the
// store from it. Nothing is returned unless the whole document loads.
func NewFileBackedStore(ctx context.Context, backend Backend, logger *zap.Logger) (*FileBackedStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	snap, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	mem := NewMemoryStore(history.NewInMemory())
	if err := mem.Restore(snap); err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}

	logger.Info("snapshot loaded",
		zap.Int("tasks", len(snap.Tasks)),
		zap.Int("epics", len(snap.Epics)),
		zap.Int("subtasks", len(snap.Subtasks)),
		zap.Int("history", len(snap.History)),
		zap.Int64("last_id", mem.lastID),
	)

	return &FileBackedStore{mem: mem, backend: backend, logger: logger}, nil
}

// save writes the current state to the backend. Callers hold s.mu.
func (s *FileBackedStore) save(ctx context.Context) error {
	data, err := codec.Encode(s.mem.Snapshot())
	if err != nil {
		s.logger.Error("failed to encode snapshot", zap.Error(err))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	if err := s.backend.Save(ctx, data); err != nil {
		s.logger.Error("failed to save snapshot", zap.Error(err))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	s.logger.Debug("snapshot saved", zap.Int("bytes", len(data)))
	return nil
}

// apply runs op and saves when it succeeds.
func (s *FileBackedStore) apply(ctx context.Context, op func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := op(); err != nil {
		return err
	}
	return s.save(ctx)
}

// checkText rejects free text the snapshot format cannot hold, before the
// in-memory store is touched.
func checkText(t *models.Task) error {
	if err := codec.CheckText(t); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidTask, err)
	}
	return nil
}

func (s *FileBackedStore) AddTask(ctx context.Context, task *models.Task) error {
	if err := checkText(task); err != nil {
		return err
	}
	return s.apply(ctx, func() error { return s.mem.AddTask(ctx, task) })
}

func (s *FileBackedStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return s.getAndSave(ctx, id, s.mem.GetTask)
}

func (s *FileBackedStore) getAndSave(ctx context.Context, id int64, get func(context.Context, int64) (*models.Task, error)) (*models.Task, error) {
	var t *models.Task
	err := s.apply(ctx, func() error {
		var err error
		t, err = get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *FileBackedStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.mem.ListTasks(ctx)
}

func (s *FileBackedStore) UpdateTask(ctx context.Context, task *models.Task) error {
	if err := checkText(task); err != nil {
		return err
	}
	return s.apply(ctx, func() error { return s.mem.UpdateTask(ctx, task) })
}

func (s *FileBackedStore) DeleteTask(ctx context.Context, id int64) error {
	return s.apply(ctx, func() error { return s.mem.DeleteTask(ctx, id) })
}

func (s *FileBackedStore) DeleteAllTasks(ctx context.Context) error {
	return s.apply(ctx, func() error { return s.mem.DeleteAllTasks(ctx) })
}

func (s *FileBackedStore) AddEpic(ctx context.Context, epic *models.Task) error {
	if err := checkText(epic); err != nil {
		return err
	}
	return s.apply(ctx, func() error { return s.mem.AddEpic(ctx, epic) })
}

func (s *FileBackedStore) GetEpic(ctx context.Context, id int64) (*models.Task, error) {
	return s.getAndSave(ctx, id, s.mem.GetEpic)
}

func (s *FileBackedStore) ListEpics(ctx context.Context) ([]models.Task, error) {
	return s.mem.ListEpics(ctx)
}

func (s *FileBackedStore) ListEpicSubtasks(ctx context.Context, epicID int64) ([]models.Task, error) {
	return s.mem.ListEpicSubtasks(ctx, epicID)
}

func (s *FileBackedStore) UpdateEpic(ctx context.Context, epic *models.Task) error {
	if err := checkText(epic); err != nil {
		return err
	}
	return s.apply(ctx, func() error { return s.mem.UpdateEpic(ctx, epic) })
}

func (s *FileBackedStore) DeleteEpic(ctx context.Context, id int64) error {
	return s.apply(ctx, func() error { return s.mem.DeleteEpic(ctx, id) })
}

func (s *FileBackedStore) DeleteAllEpics(ctx context.Context) error {
	return s.apply(ctx, func() error { return s.mem.DeleteAllEpics(ctx) })
}

func (s *FileBackedStore) AddSubtask(ctx context.Context, subtask *models.Task) error {
	if err := checkText(subtask); err != nil {
		return err
	}
	return s.apply(ctx, func() error { return s.mem.AddSubtask(ctx, subtask) })
}

func (s *FileBackedStore) GetSubtask(ctx context.Context, id int64) (*models.Task, error) {
	return s.getAndSave(ctx, id, s.mem.GetSubtask)
}

func (s *FileBackedStore) ListSubtasks(ctx context.Context) ([]models.Task, error) {
	return s.mem.ListSubtasks(ctx)
}

func (s *FileBackedStore) UpdateSubtask(ctx context.Context, subtask *models.Task) error {
	if err := checkText(subtask); err != nil {
		return err
	}
	return s.apply(ctx, func() error { return s.mem.UpdateSubtask(ctx, subtask) })
}

func (s *FileBackedStore) DeleteSubtask(ctx context.Context, id int64) error {
	return s.apply(ctx, func() error { return s.mem.DeleteSubtask(ctx, id) })
}

func (s *FileBackedStore) DeleteAllSubtasks(ctx context.Context) error {
	return s.apply(ctx, func() error { return s.mem.DeleteAllSubtasks(ctx) })
}

func (s *FileBackedStore) History(ctx context.Context) ([]models.Task, error) {
	return s.mem.History(ctx)
}

// Close releases the backend.
func (s *FileBackedStore) Close() error {
	return s.backend.Close()
}

var _ Store = (*FileBackedStore)(nil)
