package handlers

import (
	"net/http"
)

// History returns the recently viewed entities, oldest view first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	viewed, err := h.store.History(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskResponses(viewed))
}
