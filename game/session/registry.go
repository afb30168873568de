package session

// Registry is the reverse index from connection id to the room it occupies.
// A connection is indexed to at most one room at a time.
type Registry struct {
	rooms map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]string)}
}

// Assign indexes connID to code, replacing any previous entry.
func (r *Registry) Assign(connID, code string) {
	r.rooms[connID] = code
}

// Lookup returns the room connID occupies.
func (r *Registry) Lookup(connID string) (string, bool) {
	code, ok := r.rooms[connID]
	return code, ok
}

// Remove drops connID from the index.
func (r *Registry) Remove(connID string) {
	delete(r.rooms, connID)
}

// Len returns the number of indexed connections.
func (r *Registry) Len() int {
	return len(r.rooms)
}
