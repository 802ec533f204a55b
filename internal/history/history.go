// Package history keeps the order in which entities were last viewed.
package history

// Manager records views of entities by id.
type Manager interface {
	// Add marks id as the most recently viewed entity.
	Add(id int64)
	// Remove forgets id.
	Remove(id int64)
	// IDs returns the viewed ids, oldest first.
	IDs() []int64
}

// InMemory is a Manager backed by a slice. Each id appears at most once, at
// the position of its latest view.
type InMemory struct {
	ids []int64
}

// NewInMemory creates an empty history.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (h *InMemory) Add(id int64) {
	h.Remove(id)
	h.ids = append(h.ids, id)
}

func (h *InMemory) Remove(id int64) {
	for i, v := range h.ids {
		if v == id {
			h.ids = append(h.ids[:i], h.ids[i+1:]...)
			return
		}
	}
}

func (h *InMemory) IDs() []int64 {
	out := make([]int64, len(h.ids))
	copy(out, h.ids)
	return out
}

var _ Manager = (*InMemory)(nil)
