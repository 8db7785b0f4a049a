// Package session hosts live editing sessions. Each session owns one engine;
// connected WebSocket clients send commands to it and receive the frames it
// produces.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cutsprite/cutsprite/internal/engine"
	"github.com/cutsprite/cutsprite/internal/export"
	"github.com/cutsprite/cutsprite/internal/typeid"
)

// ErrUnknownSession is returned for session ids the hub does not host.
var ErrUnknownSession = errors.New("session not found")

// Room is one session: its engine and the clients connected to it.
type Room struct {
	id       string
	engine   *engine.Engine
	log      *slog.Logger
	presence *PresenceManager
	seq      atomic.Int64
	created  time.Time

	// pubMu orders frame delivery: seq numbers follow snapshot order and a
	// snapshot older than the last one sent is dropped.
	pubMu   sync.Mutex
	lastVer uint64

	mu      sync.RWMutex
	clients map[string]*Client // clientID -> client
}

// ID returns the session id.
func (r *Room) ID() string { return r.id }

// Engine returns the session's engine.
func (r *Room) Engine() *engine.Engine { return r.engine }

// Clients returns the number of connected clients.
func (r *Room) Clients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// broadcast sends msg to every client except excludeClientID.
func (r *Room) broadcast(msg *Message, excludeClientID string) {
	msg.SessionID = r.id
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// frameMessage wraps f with the next session sequence number. It returns
// nil when f is older than a frame already sent. r.pubMu must be held.
func (r *Room) frameMessage(f *engine.Frame) *Message {
	if f.Version <= r.lastVer {
		return nil
	}
	msg, err := newMessage(TypeFrame, newFramePayload(f))
	if err != nil {
		r.log.Error("marshal frame", "error", err)
		return nil
	}
	r.lastVer = f.Version
	msg.SessionID = r.id
	msg.Seq = r.seq.Add(1)
	return msg
}

// broadcastFrame sends f to every client unless a newer frame has already
// gone out. Playback ticks arrive here with a snapshot taken by the engine.
func (r *Room) broadcastFrame(f *engine.Frame) {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	if msg := r.frameMessage(f); msg != nil {
		r.broadcast(msg, "")
	}
}

// Publish sends the current frame to every client. HTTP handlers call it
// after changing the session outside the WebSocket.
func (r *Room) Publish() {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	if msg := r.frameMessage(r.engine.Frame()); msg != nil {
		r.broadcast(msg, "")
	}
}

// Hub owns every session and routes client messages to them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // sessionID -> room

	opts       []engine.Option
	log        *slog.Logger
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub whose sessions are built with opts.
func NewHub(logger *slog.Logger, opts ...engine.Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		opts:       opts,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes client registration until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop ends Run and stops every session's playback.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, room := range h.rooms {
			room.engine.Close()
		}
		h.log.Info("hub stopped", "sessions", len(h.rooms))
	})
}

// Register hands a connected client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from its session.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// CreateSession starts a new session with an empty engine.
func (h *Hub) CreateSession() *Room {
	room := &Room{
		id:       typeid.NewSessionID(),
		presence: NewPresenceManager(),
		clients:  make(map[string]*Client),
		created:  time.Now(),
	}
	room.log = h.log.With("session", room.id)

	opts := append([]engine.Option{}, h.opts...)
	opts = append(opts,
		engine.WithLogger(room.log),
		engine.WithTickListener(room.broadcastFrame),
	)
	room.engine = engine.New(opts...)

	h.mu.Lock()
	h.rooms[room.id] = room
	h.mu.Unlock()

	room.log.Info("session created")
	return room
}

// Room returns the session with id.
func (h *Hub) Room(id string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrUnknownSession)
	}
	return room, nil
}

// DeleteSession stops a session and disconnects its clients.
func (h *Hub) DeleteSession(id string) error {
	h.mu.Lock()
	room, ok := h.rooms[id]
	if ok {
		delete(h.rooms, id)
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrUnknownSession)
	}

	room.engine.Close()
	room.mu.Lock()
	for cid, c := range room.clients {
		delete(room.clients, cid)
		c.close()
	}
	room.mu.Unlock()
	room.log.Info("session deleted")
	return nil
}

// Sessions returns the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ExportJob snapshots a session for export.
func (h *Hub) ExportJob(sessionID string, allGroups bool) (*export.Job, error) {
	room, err := h.Room(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", export.ErrUnknownSource, err)
	}
	return room.engine.ExportJob(allGroups)
}

// Open starts a session from a saved project file.
func (h *Hub) Open(data []byte) (string, error) {
	room := h.CreateSession()
	if err := room.engine.LoadProject(data); err != nil {
		h.DeleteSession(room.id)
		return "", err
	}
	return room.id, nil
}

// Snapshot encodes a session as a project file.
func (h *Hub) Snapshot(sessionID string) ([]byte, error) {
	room, err := h.Room(sessionID)
	if err != nil {
		return nil, err
	}
	return room.engine.SaveProject(time.Now())
}

func (h *Hub) addClient(client *Client) {
	room, err := h.Room(client.SessionID)
	if err != nil {
		client.Send(errorMessage(0, err))
		client.close()
		return
	}

	// No frame goes out between registration and the welcome.
	room.pubMu.Lock()
	room.mu.Lock()
	room.clients[client.ClientID] = client
	room.mu.Unlock()

	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		SessionID: room.id,
		ClientID:  client.ClientID,
		Frame:     newFramePayload(room.engine.Frame()),
	})
	if err == nil {
		welcome.SessionID = room.id
		welcome.Seq = room.seq.Load()
		client.Send(welcome)
	}
	room.pubMu.Unlock()
	if state := room.presence.StateMessage(client.ClientID); state != nil {
		client.Send(state)
	}

	if join, err := newMessage(TypePresenceJoin, PresenceJoinPayload{ClientID: client.ClientID}); err == nil {
		join.ClientID = client.ClientID
		room.broadcast(join, client.ClientID)
	}

	room.log.Info("client joined", "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	room, err := h.Room(client.SessionID)
	if err != nil {
		client.close()
		return
	}

	room.mu.Lock()
	_, ok := room.clients[client.ClientID]
	delete(room.clients, client.ClientID)
	room.mu.Unlock()
	if !ok {
		return
	}
	client.close()
	room.presence.Remove(client.ClientID)

	if leave, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID}); err == nil {
		leave.ClientID = client.ClientID
		room.broadcast(leave, "")
	}

	room.log.Info("client left", "client", client.ClientID)
}

// handleMessage applies one client command and fans out the result.
func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, err := h.Room(sender.SessionID)
	if err != nil {
		sender.Send(errorMessage(msg.Seq, err))
		return
	}

	res, err := room.Apply(sender.ClientID, msg)
	if err != nil {
		room.log.Debug("command failed", "type", msg.Type, "client", sender.ClientID, "error", err)
		sender.Send(errorMessage(msg.Seq, err))
		return
	}
	if res.reply != nil {
		res.reply.SessionID = room.id
		res.reply.Seq = msg.Seq
		sender.Send(res.reply)
	}
	if res.changed {
		room.Publish()
	}
}
