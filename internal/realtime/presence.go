package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// PresenceRegistry counts open connections per user. A user is online while
// at least one connection is registered; the entry is removed when the last
// connection drops so the map never grows with offline users.
type PresenceRegistry struct {
	mu          sync.Mutex
	connections map[uuid.UUID]int
}

// NewPresenceRegistry returns an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{connections: make(map[uuid.UUID]int)}
}

// Increment records one more connection for the user.
func (p *PresenceRegistry) Increment(userID uuid.UUID) {
	p.mu.Lock()
	p.connections[userID]++
	p.mu.Unlock()
}

// Decrement records a closed connection, deleting the entry at zero.
func (p *PresenceRegistry) Decrement(userID uuid.UUID) {
	p.mu.Lock()
	count, ok := p.connections[userID]
	if ok {
		count--
		if count <= 0 {
			delete(p.connections, userID)
		} else {
			p.connections[userID] = count
		}
	}
	p.mu.Unlock()
}

// IsOnline reports whether the user has at least one open connection.
func (p *PresenceRegistry) IsOnline(userID uuid.UUID) bool {
	p.mu.Lock()
	_, ok := p.connections[userID]
	p.mu.Unlock()
	return ok
}

// OnlineCount returns the number of distinct online users.
func (p *PresenceRegistry) OnlineCount() int {
	p.mu.Lock()
	count := len(p.connections)
	p.mu.Unlock()
	return count
}
