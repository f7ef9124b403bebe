package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"ballpit/game"
	"ballpit/protocol"
	"ballpit/room"
)

const (
	DefaultRoom  = "LOBBY"
	replyTimeout = 5 * time.Second
)

var errRoomClosed = errors.New("room closed")

type Server struct {
	mgr      *room.Manager
	upgrader websocket.Upgrader
}

func NewServer(mgr *room.Manager) *Server {
	return &Server{
		mgr: mgr,
		upgrader: websocket.Upgrader{
			// Trackers run on other machines on the LAN; allow all origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("/rooms", s.roomsHandler)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down and stops
// every room.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Println("shutdown:", err)
		}
		s.mgr.StopAll()
	}()

	log.Printf("listening on %s (ws endpoint: /ws)", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}

func (s *Server) roomsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.mgr.ListRooms())
	case http.MethodPost:
		code := s.mgr.CreateRoom()
		writeJSON(w, http.StatusCreated, room.RoomInfo{Code: code})
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("write json:", err)
	}
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		code = DefaultRoom
	}

	// Upgrade HTTP -> WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	c := newWSConn(conn)
	defer c.Close()

	hello, err := readHello(conn)
	if err != nil {
		log.Println("hello:", err)
		sendError(c, err.Error())
		return
	}

	rm := s.mgr.GetOrCreateRoom(code)
	res, err := joinRoom(rm, c, hello.Name)
	if errors.Is(err, errRoomClosed) {
		// the room emptied between lookup and join; the manager has
		// dropped it, so this makes a fresh one
		rm = s.mgr.GetOrCreateRoom(code)
		res, err = joinRoom(rm, c, hello.Name)
	}
	if err != nil {
		log.Printf("join %s: %v", code, err)
		sendError(c, err.Error())
		return
	}
	defer func() {
		select {
		case rm.Inbox <- room.Leave{ClientID: res.ClientID}:
		case <-rm.Done():
		}
	}()

	send(c, protocol.MsgWelcome, protocol.Welcome{
		ClientID: res.ClientID,
		Room:     code,
		Bounds: protocol.Bounds{
			MinX: res.Bounds.MinX,
			MinY: res.Bounds.MinY,
			MaxX: res.Bounds.MaxX,
			MaxY: res.Bounds.MaxY,
		},
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("read:", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if err := s.handleMessage(rm, c, res.ClientID, msg); err != nil {
			sendError(c, err.Error())
		}
	}
}

func readHello(conn *websocket.Conn) (protocol.Hello, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return protocol.Hello{}, err
	}
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		return protocol.Hello{}, err
	}
	if env.T != protocol.MsgHello {
		return protocol.Hello{}, fmt.Errorf("expected %q, got %q", protocol.MsgHello, env.T)
	}
	hello, err := protocol.DecodePayload[protocol.Hello](env)
	if err != nil {
		return protocol.Hello{}, err
	}
	if hello.V != protocol.Version {
		return protocol.Hello{}, fmt.Errorf("unsupported protocol version %d, want %d", hello.V, protocol.Version)
	}
	return hello, nil
}

func joinRoom(rm *room.Room, c room.Conn, name string) (room.JoinResult, error) {
	reply := make(chan room.JoinResult, 1)
	select {
	case rm.Inbox <- room.Join{Conn: c, Name: name, Reply: reply}:
	case <-rm.Done():
		return room.JoinResult{}, errRoomClosed
	}
	select {
	case res := <-reply:
		return res, nil
	case <-rm.Done():
		return room.JoinResult{}, errRoomClosed
	case <-time.After(replyTimeout):
		return room.JoinResult{}, fmt.Errorf("timed out joining room")
	}
}

func (s *Server) handleMessage(rm *room.Room, c room.Conn, clientID string, msg []byte) error {
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		return err
	}
	switch env.T {
	case protocol.MsgFrame:
		f, err := protocol.DecodePayload[protocol.Frame](env)
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if !rm.TryFrame(room.Frame{ClientID: clientID, Input: room.FrameInput(f)}) {
			log.Printf("room %s: inbox full, dropped frame from %s", rm.Code, clientID)
		}
	case protocol.MsgProbe:
		p, err := protocol.DecodePayload[protocol.Probe](env)
		if err != nil {
			return fmt.Errorf("decode probe: %w", err)
		}
		reply := make(chan protocol.ProbeResult, 1)
		select {
		case rm.Inbox <- room.Probe{Point: game.Vector{X: p.X, Y: p.Y}, Reply: reply}:
		case <-rm.Done():
			return errRoomClosed
		}
		select {
		case res := <-reply:
			send(c, protocol.MsgProbeResult, res)
		case <-rm.Done():
			return errRoomClosed
		case <-time.After(replyTimeout):
			return fmt.Errorf("timed out waiting for probe")
		}
	default:
		return fmt.Errorf("unknown message type %q", env.T)
	}
	return nil
}

func send(c room.Conn, t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("encode %s: %v", t, err)
		return
	}
	if err := c.Send(b); err != nil {
		log.Printf("send %s: %v", t, err)
	}
}

func sendError(c room.Conn, msg string) {
	send(c, protocol.MsgError, protocol.Error{Message: msg})
}
