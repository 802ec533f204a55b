package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tasktracker/internal/models"
	"tasktracker/internal/store"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store  store.Store
	logger *zap.Logger
}

// New creates a new Handlers instance.
func New(s store.Store, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		store:  s,
		logger: logger,
	}
}

// Routes mounts every API route on a fresh router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Delete("/", h.DeleteAllTasks)
		r.Get("/{id}", h.GetTask)
		r.Put("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	})

	r.Route("/api/epics", func(r chi.Router) {
		r.Get("/", h.ListEpics)
		r.Post("/", h.CreateEpic)
		r.Delete("/", h.DeleteAllEpics)
		r.Get("/{id}", h.GetEpic)
		r.Put("/{id}", h.UpdateEpic)
		r.Delete("/{id}", h.DeleteEpic)
		r.Get("/{id}/subtasks", h.ListEpicSubtasks)
	})

	r.Route("/api/subtasks", func(r chi.Router) {
		r.Get("/", h.ListSubtasks)
		r.Post("/", h.CreateSubtask)
		r.Delete("/", h.DeleteAllSubtasks)
		r.Get("/{id}", h.GetSubtask)
		r.Put("/{id}", h.UpdateSubtask)
		r.Delete("/{id}", h.DeleteSubtask)
	})

	r.Get("/api/history", h.History)

	return r
}

// taskPayload is the request body for creating or updating any entity.
type taskPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	EpicID      int64   `json:"epic_id"`
	StartTime   *string `json:"start_time"`
	Duration    *string `json:"duration"`
}

// toTask converts the payload into a task. Times use RFC 3339 and durations
// use Go duration syntax.
func (p taskPayload) toTask(id int64) (*models.Task, error) {
	t := &models.Task{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		Status:      models.Status(p.Status),
		EpicID:      p.EpicID,
	}

	if p.StartTime != nil && *p.StartTime != "" {
		start, err := time.Parse(time.RFC3339Nano, *p.StartTime)
		if err != nil {
			return nil, errors.New("start_time must be an RFC 3339 timestamp")
		}
		t.StartTime = &start
	}

	if p.Duration != nil && *p.Duration != "" {
		d, err := time.ParseDuration(*p.Duration)
		if err != nil {
			return nil, errors.New("duration must look like 1h30m")
		}
		t.Duration = &d
	}

	return t, nil
}

// taskResponse is the JSON form of an entity, including its derived end time.
type taskResponse struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	EpicID      int64      `json:"epic_id,omitempty"`
	SubtaskIDs  []int64    `json:"subtask_ids,omitempty"`
	StartTime   *time.Time `json:"start_time"`
	Duration    *string    `json:"duration"`
	EndTime     *time.Time `json:"end_time"`
}

func newTaskResponse(t *models.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		EpicID:      t.EpicID,
		SubtaskIDs:  t.SubtaskIDs,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime(),
	}
	if t.Duration != nil {
		d := t.Duration.String()
		resp.Duration = &d
	}
	return resp
}

func newTaskResponses(tasks []models.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, newTaskResponse(&tasks[i]))
	}
	return out
}

// parseID extracts and parses an integer ID from URL parameters.
func parseID(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	return strconv.ParseInt(idStr, 10, 64)
}

// decodePayload reads a JSON task payload from the request body.
func decodePayload(r *http.Request, id int64) (*models.Task, error) {
	var p taskPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, errors.New("invalid json")
	}
	return p.toTask(id)
}

func respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// respondStoreError maps store errors to status codes.
func (h *Handlers) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidReference), errors.Is(err, models.ErrInvalidTask):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal server error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
