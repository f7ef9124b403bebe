package room

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"ballpit/game"
	"ballpit/protocol"
)

// Room owns one simulation. All state is touched only from Run.
type Room struct {
	Inbox       chan any
	broadcastHz int
	state       *game.State
	clients     map[string]Conn
	numClients  atomic.Int32
	nextID      int
	quit        chan struct{}
	stopOnce    sync.Once

	Code    string            // room code (e.g. "ABC123")
	OnEmpty func(code string) // called when last client leaves
}

func New(cfg game.Config, rng *rand.Rand) *Room {
	return &Room{
		Inbox:       make(chan any, protocol.FrameInboxSize),
		broadcastHz: protocol.BroadcastHz,
		state:       game.NewState(cfg, rng),
		clients:     make(map[string]Conn),
		nextID:      1,
		quit:        make(chan struct{}),
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once the room stops.
func (r *Room) Done() <-chan struct{} {
	return r.quit
}

// NumClients returns the current number of connected clients.
func (r *Room) NumClients() int {
	return int(r.numClients.Load())
}

// TryFrame queues f without blocking. It reports false when the inbox is
// full and the frame was dropped.
func (r *Room) TryFrame(f Frame) bool {
	select {
	case r.Inbox <- f:
		return true
	default:
		return false
	}
}

func (r *Room) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(r.broadcastHz))
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.broadcastState()
		}
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		clientID := fmt.Sprintf("c%d", r.nextID)
		r.nextID++
		r.clients[clientID] = c.Conn
		r.numClients.Store(int32(len(r.clients)))
		name := c.Name
		if name == "" {
			name = clientID
		}
		log.Printf("room %s: %s joined as %s", r.Code, name, clientID)
		c.Reply <- JoinResult{ClientID: clientID, Bounds: r.state.Config.Bounds}
	case Frame:
		if _, ok := r.clients[c.ClientID]; !ok {
			return
		}
		game.Step(r.state, c.Input)
	case Probe:
		c.Reply <- r.probe(c.Point)
	case Leave:
		r.handleLeave(c.ClientID)
	default:
		log.Printf("room %s: unknown command %T", r.Code, cmd)
	}
}

func (r *Room) handleLeave(clientID string) {
	c, ok := r.clients[clientID]
	if ok {
		r.sendStateTo(c)
		_ = c.Close()
		r.removeClient(clientID)
		log.Printf("room %s: %s left", r.Code, clientID)
	}
	if len(r.clients) == 0 && r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

func (r *Room) removeClient(clientID string) {
	delete(r.clients, clientID)
	r.numClients.Store(int32(len(r.clients)))
}

func (r *Room) broadcastState() {
	if len(r.clients) == 0 {
		return
	}
	b, err := protocol.Encode(protocol.MsgState, r.buildSnapshot())
	if err != nil {
		log.Printf("room %s: encode state: %v", r.Code, err)
		return
	}

	var failed []string
	for id, c := range r.clients {
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		log.Printf("room %s: dropping %s after failed send", r.Code, id)
		_ = r.clients[id].Close()
		r.removeClient(id)
	}
	if len(failed) > 0 && len(r.clients) == 0 && r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

func (r *Room) sendStateTo(c Conn) {
	b, err := protocol.Encode(protocol.MsgState, r.buildSnapshot())
	if err != nil {
		return
	}
	_ = c.Send(b)
}

func (r *Room) buildSnapshot() protocol.State {
	snapshot := protocol.State{
		Tick:  r.state.Tick,
		Balls: make([]protocol.BallSnapshot, 0, len(r.state.Balls)),
	}
	for i, b := range r.state.Balls {
		col := game.BodyColor(b)
		snapshot.Balls = append(snapshot.Balls, protocol.BallSnapshot{
			ID:    i,
			X:     b.Pos.X,
			Y:     b.Pos.Y,
			R:     b.Radius,
			Color: fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B),
		})
	}
	for _, side := range []game.Side{game.Left, game.Right} {
		h := r.state.Hand(side)
		if h == nil {
			continue
		}
		snapshot.Hands = append(snapshot.Hands, protocol.HandSnapshot{
			Side: string(side),
			X:    h.Pos.X,
			Y:    h.Pos.Y,
			R:    h.Radius,
			VX:   h.Moved.X,
			VY:   h.Moved.Y,
		})
	}
	return snapshot
}

func (r *Room) probe(p game.Vector) protocol.ProbeResult {
	res := protocol.ProbeResult{Balls: r.state.BallsAt(p)}
	if res.Balls == nil {
		res.Balls = []int{}
	}
	for _, side := range r.state.HandsAt(p) {
		res.Hands = append(res.Hands, string(side))
	}
	return res
}
