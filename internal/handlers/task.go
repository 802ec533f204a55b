package handlers

import (
	"net/http"
)

// ListTasks returns every plain task.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.ListTasks(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponses(tasks))
}

// CreateTask creates a new plain task.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	task, err := decodePayload(r, 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.AddTask(r.Context(), task); err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTaskResponse(task))
}

// GetTask returns a plain task and records the view.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.store.GetTask(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponse(task))
}

// UpdateTask replaces an existing plain task.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := decodePayload(r, id)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateTask(r.Context(), task); err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponse(task))
}

// DeleteTask deletes a plain task.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllTasks deletes every plain task.
func (h *Handlers) DeleteAllTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAllTasks(r.Context()); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
