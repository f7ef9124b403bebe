package room

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"sync"

	"ballpit/game"
)

// RoomInfo is returned by the API for the room list.
type RoomInfo struct {
	Code    string `json:"code"`
	Clients int    `json:"clients"`
}

// Manager holds multiple rooms by code. Rooms are created on first join or via CreateRoom,
// and removed when the last client leaves.
type Manager struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	cfg     game.Config
	seed    uint64
	created uint64
}

// NewManager returns a manager whose rooms all use cfg. Room n is seeded
// with (seed, n) so runs are reproducible.
func NewManager(cfg game.Config, seed uint64) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		seed:  seed,
	}
}

// GetOrCreateRoom returns the room for the given code, creating it if needed.
func (m *Manager) GetOrCreateRoom(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		select {
		case <-r.Done():
			// stopped but not yet removed; replace it
		default:
			return r
		}
	}
	return m.startRoom(code)
}

func (m *Manager) Room(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

// startRoom must be called with m.mu held.
func (m *Manager) startRoom(code string) *Room {
	m.created++
	r := New(m.cfg, mrand.New(mrand.NewPCG(m.seed, m.created)))
	r.Code = code
	r.OnEmpty = func(c string) {
		m.removeRoom(c, r)
	}
	m.rooms[code] = r
	go r.Run()
	return r
}

// removeRoom stops r and forgets it, unless code already points at a
// newer room.
func (m *Manager) removeRoom(code string, r *Room) {
	r.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[code]; ok && cur == r {
		delete(m.rooms, code)
	}
}

// StopAll stops every room, used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		r.Stop()
		delete(m.rooms, code)
	}
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CreateRoom generates a unique 6-char code, creates the room, and returns the code.
func (m *Manager) CreateRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		m.startRoom(code)
		return code
	}
}

// ListRooms returns all active rooms with code and client count.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, RoomInfo{Code: code, Clients: r.NumClients()})
	}
	return out
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
