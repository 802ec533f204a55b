package handlers

import (
	"net/http"
)

// ListSubtasks returns every subtask.
func (h *Handlers) ListSubtasks(w http.ResponseWriter, r *http.Request) {
	subtasks, err := h.store.ListSubtasks(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponses(subtasks))
}

// CreateSubtask creates a subtask under the epic named by epic_id.
func (h *Handlers) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	subtask, err := decodePayload(r, 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.AddSubtask(r.Context(), subtask); err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTaskResponse(subtask))
}

// GetSubtask returns a subtask and records the view.
func (h *Handlers) GetSubtask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subtask id")
		return
	}

	subtask, err := h.store.GetSubtask(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponse(subtask))
}

// UpdateSubtask replaces an existing subtask.
func (h *Handlers) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subtask id")
		return
	}

	subtask, err := decodePayload(r, id)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateSubtask(r.Context(), subtask); err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponse(subtask))
}

// DeleteSubtask deletes a subtask.
func (h *Handlers) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subtask id")
		return
	}

	if err := h.store.DeleteSubtask(r.Context(), id); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllSubtasks deletes every subtask and resets the epics.
func (h *Handlers) DeleteAllSubtasks(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAllSubtasks(r.Context()); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
