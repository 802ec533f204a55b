package handlers

import (
	"net/http"
)

// ListEpics returns every epic.
func (h *Handlers) ListEpics(w http.ResponseWriter, r *http.Request) {
	epics, err := h.store.ListEpics(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponses(epics))
}

// CreateEpic creates a new epic. Status and timing in the payload are ignored.
func (h *Handlers) CreateEpic(w http.ResponseWriter, r *http.Request) {
	epic, err := decodePayload(r, 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.AddEpic(r.Context(), epic); err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTaskResponse(epic))
}

// GetEpic returns an epic and records the view.
func (h *Handlers) GetEpic(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epic id")
		return
	}

	epic, err := h.store.GetEpic(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponse(epic))
}

// ListEpicSubtasks returns the subtasks of an epic.
func (h *Handlers) ListEpicSubtasks(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epic id")
		return
	}

	subtasks, err := h.store.ListEpicSubtasks(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponses(subtasks))
}

// UpdateEpic renames an epic or changes its description.
func (h *Handlers) UpdateEpic(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epic id")
		return
	}

	epic, err := decodePayload(r, id)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateEpic(r.Context(), epic); err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponse(epic))
}

// DeleteEpic deletes an epic and its subtasks.
func (h *Handlers) DeleteEpic(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid epic id")
		return
	}

	if err := h.store.DeleteEpic(r.Context(), id); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllEpics deletes every epic and subtask.
func (h *Handlers) DeleteAllEpics(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAllEpics(r.Context()); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
