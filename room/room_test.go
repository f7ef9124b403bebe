package room

import (
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"ballpit/game"
	"ballpit/protocol"
)

type fakeConn struct {
	sendCh chan []byte
	closed atomic.Bool
}

func newFakeConn(n int) *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, n)}
}

func (f *fakeConn) Send(b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case f.sendCh <- cp:
	default:
		// test is not reading; drop like a lagging viewer would
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.closed.Store(true)
	return nil
}

type errConn struct{}

func (errConn) Send([]byte) error { return errors.New("broken pipe") }
func (errConn) Close() error      { return nil }

func startRoom(t *testing.T) *Room {
	t.Helper()
	r := New(game.DefaultConfig(), rand.New(rand.NewPCG(1, 1)))
	go r.Run()
	t.Cleanup(r.Stop)
	return r
}

func join(t *testing.T, r *Room, c Conn) JoinResult {
	t.Helper()
	reply := make(chan JoinResult, 1)
	r.Inbox <- Join{Conn: c, Name: "test", Reply: reply}
	select {
	case res := <-reply:
		return res
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for join reply")
	}
	return JoinResult{}
}

// waitState returns the first state snapshot accepted by ok.
func waitState(t *testing.T, fc *fakeConn, ok func(protocol.State) bool) protocol.State {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			env, err := protocol.DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T != protocol.MsgState {
				continue
			}
			st, err := protocol.DecodePayload[protocol.State](env)
			if err != nil {
				t.Fatalf("decode state: %v", err)
			}
			if ok(st) {
				return st
			}
		case <-timeout:
			t.Fatalf("timed out waiting for matching state snapshot")
		}
	}
}

func TestRoomJoinBroadcastIncludesBalls(t *testing.T) {
	r := startRoom(t)
	fc := newFakeConn(8)
	res := join(t, r, fc)
	if res.ClientID == "" {
		t.Fatalf("expected client id, got empty")
	}
	if res.Bounds != game.DefaultConfig().Bounds {
		t.Fatalf("join bounds = %+v", res.Bounds)
	}

	st := waitState(t, fc, func(protocol.State) bool { return true })
	if len(st.Balls) != game.BallCount {
		t.Fatalf("balls in snapshot = %d, want %d", len(st.Balls), game.BallCount)
	}
	if st.Tick != 0 {
		t.Fatalf("tick = %d before any frame, want 0", st.Tick)
	}
	for _, b := range st.Balls {
		if b.R != game.BallRadius || len(b.Color) != 7 || b.Color[0] != '#' {
			t.Fatalf("bad ball snapshot %+v", b)
		}
	}
}

func TestRoomFramesDriveTicks(t *testing.T) {
	r := startRoom(t)
	fc := newFakeConn(64)
	res := join(t, r, fc)

	for i := 0; i < 3; i++ {
		r.Inbox <- Frame{ClientID: res.ClientID}
	}

	st := waitState(t, fc, func(s protocol.State) bool { return s.Tick >= 3 })
	if st.Tick != 3 {
		t.Fatalf("tick = %d, want 3", st.Tick)
	}
	for _, b := range st.Balls {
		if b.Y <= 0 {
			t.Fatalf("ball %d did not move off the top edge: y=%f", b.ID, b.Y)
		}
	}
}

func TestRoomIgnoresFramesFromStrangers(t *testing.T) {
	r := startRoom(t)
	fc := newFakeConn(64)
	r.Inbox <- Frame{ClientID: "nobody"}
	res := join(t, r, fc)
	r.Inbox <- Frame{ClientID: res.ClientID}

	st := waitState(t, fc, func(s protocol.State) bool { return s.Tick >= 1 })
	if st.Tick != 1 {
		t.Fatalf("tick = %d, want 1", st.Tick)
	}
}

func TestRoomTrackedHandsAppear(t *testing.T) {
	r := startRoom(t)
	fc := newFakeConn(64)
	res := join(t, r, fc)

	in := FrameInput(protocol.Frame{Points: []protocol.Point{
		{Joint: game.LeftHandJoint, X: 300.9, Y: 500.1},
	}})
	r.Inbox <- Frame{ClientID: res.ClientID, Input: in}

	st := waitState(t, fc, func(s protocol.State) bool { return len(s.Hands) > 0 })
	h := st.Hands[0]
	if h.Side != "left" || h.X != 300 || h.Y != 500 || h.R != game.HandRadius {
		t.Fatalf("hand snapshot = %+v", h)
	}

	reply := make(chan protocol.ProbeResult, 1)
	r.Inbox <- Probe{Point: game.Vector{X: 305, Y: 505}, Reply: reply}
	select {
	case pr := <-reply:
		if len(pr.Hands) != 1 || pr.Hands[0] != "left" {
			t.Fatalf("probe = %+v, want left hand", pr)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for probe")
	}
}

func TestRoomTryFrameDropsWhenFull(t *testing.T) {
	r := New(game.DefaultConfig(), rand.New(rand.NewPCG(1, 1)))
	for i := 0; i < protocol.FrameInboxSize; i++ {
		if !r.TryFrame(Frame{}) {
			t.Fatalf("frame %d dropped before inbox was full", i)
		}
	}
	if r.TryFrame(Frame{}) {
		t.Fatalf("expected frame to be dropped on full inbox")
	}
}

func TestRoomLeaveClosesAndEmpties(t *testing.T) {
	r := New(game.DefaultConfig(), rand.New(rand.NewPCG(1, 1)))
	emptied := make(chan string, 1)
	r.Code = "TEST01"
	r.OnEmpty = func(code string) { emptied <- code }
	go r.Run()
	defer r.Stop()

	fc := newFakeConn(128)
	res := join(t, r, fc)
	if r.NumClients() != 1 {
		t.Fatalf("clients = %d, want 1", r.NumClients())
	}

	r.Inbox <- Leave{ClientID: res.ClientID}

	select {
	case code := <-emptied:
		if code != "TEST01" {
			t.Fatalf("OnEmpty code = %q", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for OnEmpty")
	}
	if !fc.closed.Load() {
		t.Fatalf("expected conn closed on leave")
	}
	if r.NumClients() != 0 {
		t.Fatalf("clients = %d after leave, want 0", r.NumClients())
	}
}

func TestRoomDropsClientOnFailedSend(t *testing.T) {
	r := startRoom(t)
	join(t, r, errConn{})

	deadline := time.After(time.Second)
	for r.NumClients() != 0 {
		select {
		case <-deadline:
			t.Fatalf("client with failing sends was not dropped")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type slowConn struct {
	sendCh chan []byte
	block  chan struct{}
}

func (s *slowConn) Send(b []byte) error {
	cp := append([]byte(nil), b...)
	s.sendCh <- cp
	<-s.block // block until released
	return nil
}
func (s *slowConn) Close() error { return nil }

func TestRoomBroadcastDoesNotDeadlockOnSlowConn(t *testing.T) {
	r := startRoom(t)

	sc := &slowConn{
		sendCh: make(chan []byte, 1),
		block:  make(chan struct{}),
	}
	join(t, r, sc)

	select {
	case <-sc.sendCh:
		close(sc.block)
	case <-time.After(1 * time.Second):
		t.Fatalf("expected at least one state send; possible deadlock")
	}
}

func TestRoomBroadcastRateRoughly20Hz(t *testing.T) {
	r := startRoom(t)
	fc := newFakeConn(256)
	join(t, r, fc)

	deadline := time.After(300 * time.Millisecond)
	count := 0

	for {
		select {
		case b := <-fc.sendCh:
			env, err := protocol.DecodeEnvelope(b)
			if err == nil && env.T == protocol.MsgState {
				count++
			}
		case <-deadline:
			// 20Hz for 0.3s => ~6 msgs, wide range to avoid flakes.
			if count < 2 || count > 12 {
				t.Fatalf("unexpected state broadcast count in 300ms: %d", count)
			}
			return
		}
	}
}
