// Krakenbox Feed the Kraken companion
//
// Room-based companion server for in-person games of Feed the Kraken.
// Each room holds an authoritative lobby snapshot; every accepted
// action persists the snapshot and broadcasts it whole to all
// connected clients. Secret information (role reveals, prompts) goes
// out as targeted messages on top of the broadcast.
//
// Features:
// - WebSockets per room code: /path/:room and /path/:room/ws
// - Players identified by cookie (playerID); reconnects are seamless
// - Single goroutine per room owns all game state, so the engine
//   itself needs no locking
// - Snapshots persisted after every mutation (in-memory by default,
//   Postgres when --database-url is set), so rooms survive restarts
// - Quiz deadlines armed per round; stale deadlines are ignored
// - Rooms auto-reaped after configurable idle timeout
// - Random 6-char room codes via crypto/rand, with server-side
//   collision check
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type actionRequest struct {
	client *Client
	act    Action
}

// Room owns one game session. Every channel below is consumed by the
// single run goroutine, which is the only code allowed to touch the
// engine.
type Room struct {
	code    string
	engine  *Engine
	clients map[*Client]bool

	register  chan *Client
	unreg     chan *Client
	actions   chan actionRequest
	deadlines chan int
	saves     chan *LobbyState

	done     chan struct{}
	shutdown sync.Once

	mu         sync.RWMutex
	lastActive time.Time
}

func newRoom(cfg *Config, code string, initial *LobbyState) *Room {
	room := &Room{
		code:       code,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan actionRequest),
		deadlines:  make(chan int),
		saves:      make(chan *LobbyState, 16),
		done:       make(chan struct{}),
		lastActive: time.Now(),
	}

	room.engine = newEngine(code, cfg.quizDuration, nil, func(gen int, d time.Duration) {
		time.AfterFunc(d, func() {
			select {
			case room.deadlines <- gen:
			case <-room.done:
			}
		})
	})

	// A room restored from the store comes back cold: nobody is
	// connected yet, whatever the snapshot says.
	if initial != nil {
		for _, p := range initial.Players {
			if !p.IsBot {
				p.IsOnline = false
			}
		}
		room.engine.state = initial
		room.engine.Resume()
	}

	return room
}

func (room *Room) touch() {
	room.mu.Lock()
	room.lastActive = time.Now()
	room.mu.Unlock()
}

func (room *Room) idleSince() time.Time {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return room.lastActive
}

func (room *Room) stop() {
	room.shutdown.Do(func() {
		close(room.done)
	})
}

func (room *Room) run(cfg *Config, rm *RoomManager) {
	defer func() {
		for c := range room.clients {
			close(c.send)
			_ = c.conn.Close()
			delete(room.clients, c)
		}
		close(room.saves)
	}()

	for {
		select {
		case <-room.done:
			return

		case c := <-room.register:
			room.touch()
			room.clients[c] = true

			// The fresh connection gets the current snapshot straight
			// away; everyone else only hears about it if the online
			// flag actually flipped.
			if snap := room.snapshot(); snap != nil {
				room.trySend(c, LobbyUpdateMessage{Type: "LOBBY_UPDATE", Lobby: snap})
			}
			if room.engine.SetOnline(c.playerID, true) {
				room.commit(cfg)
			}

		case c := <-room.unreg:
			room.touch()
			if _, ok := room.clients[c]; ok {
				delete(room.clients, c)
				close(c.send)
			}

			// Another tab may still be open for the same player.
			if !room.connected(c.playerID) && room.engine.SetOnline(c.playerID, false) {
				room.commit(cfg)
			}

		case ar := <-room.actions:
			room.touch()

			events, err := room.engine.Apply(ar.client.playerID, ar.act)
			if err != nil {
				room.trySend(ar.client, ErrorMessage{Type: "ERROR", Message: err.Error()})
				continue
			}

			if state := room.engine.state; state != nil && len(state.Players) == 0 {
				logf(cfg, "KRAKEN: Room %s emptied, tearing down", room.code)
				rm.drop(room.code)
				room.enqueueSave(nil)
				room.stop()
				continue
			}

			room.commit(cfg)
			room.deliver(events)

		case gen := <-room.deadlines:
			events, ok := room.engine.Expire(gen)
			if !ok {
				continue
			}
			room.touch()
			logf(cfg, "KRAKEN: Room %s quiz deadline expired", room.code)
			room.commit(cfg)
			room.deliver(events)
		}
	}
}

// snapshot deep-copies the current state so the write pumps and the
// saver never share structures with the run loop.
func (room *Room) snapshot() *LobbyState {
	state := room.engine.state
	if state == nil {
		return nil
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	out := &LobbyState{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil
	}
	return out
}

// commit persists the snapshot and broadcasts it to every connection.
func (room *Room) commit(cfg *Config) {
	snap := room.snapshot()
	if snap == nil {
		return
	}

	room.enqueueSave(snap)

	msg := LobbyUpdateMessage{Type: "LOBBY_UPDATE", Lobby: snap}
	for c := range room.clients {
		room.trySend(c, msg)
	}
}

// deliver routes targeted events. An event with no recipients goes to
// every connection.
func (room *Room) deliver(events []Event) {
	for _, ev := range events {
		if len(ev.To) == 0 {
			for c := range room.clients {
				room.trySend(c, ev.Msg)
			}
			continue
		}

		for c := range room.clients {
			for _, id := range ev.To {
				if c.playerID == id {
					room.trySend(c, ev.Msg)
					break
				}
			}
		}
	}
}

func (room *Room) trySend(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(room.clients, c)
		close(c.send)
	}
}

func (room *Room) connected(playerID string) bool {
	for c := range room.clients {
		if c.playerID == playerID {
			return true
		}
	}
	return false
}

// enqueueSave hands a snapshot to the saver without ever blocking the
// run loop. If the saver is behind, the oldest queued snapshot is
// superseded by this one.
func (room *Room) enqueueSave(state *LobbyState) {
	select {
	case room.saves <- state:
		return
	default:
	}

	select {
	case <-room.saves:
	default:
	}
	select {
	case room.saves <- state:
	default:
	}
}

// saver drains queued snapshots into the store. A nil snapshot deletes
// the room's record.
func (room *Room) saver(cfg *Config, store SnapshotStore) {
	for state := range room.saves {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)

		var err error
		if state == nil {
			err = store.Delete(ctx, room.code)
		} else {
			err = store.Save(ctx, room.code, state)
		}
		cancel()

		if err != nil {
			logf(cfg, "STORE: %v", err)
		}
	}
}

// RoomManager holds the live rooms keyed by room code, so each
// $path/$room is its own isolated session.
type RoomManager struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	idleTimeout time.Duration
	store       SnapshotStore
}

func newRoomManager(idleTimeout time.Duration, store SnapshotStore) *RoomManager {
	rm := &RoomManager{
		rooms:       make(map[string]*Room),
		idleTimeout: idleTimeout,
		store:       store,
	}
	if idleTimeout > 0 {
		go rm.reaperLoop()
	}
	return rm
}

// getRoom returns the live room for code, restoring it from the store
// if a snapshot exists, or creating it fresh otherwise.
func (rm *RoomManager) getRoom(cfg *Config, code string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, ok := rm.rooms[code]; ok {
		return room
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	initial, err := rm.store.Load(ctx, code)
	cancel()
	if err != nil {
		logf(cfg, "STORE: %v", err)
		initial = nil
	}
	if initial != nil {
		logf(cfg, "KRAKEN: Restored room %s from store", code)
	}

	room := newRoom(cfg, code, initial)
	rm.rooms[code] = room
	go room.run(cfg, rm)
	go room.saver(cfg, rm.store)
	return room
}

func (rm *RoomManager) drop(code string) {
	rm.mu.Lock()
	delete(rm.rooms, code)
	rm.mu.Unlock()
}

// newRoomCode generates a crypto-random room code and ensures it
// doesn't collide with a live room.
func (rm *RoomManager) newRoomCode() string {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 6)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		rm.mu.Lock()
		_, exists := rm.rooms[code]
		rm.mu.Unlock()

		if !exists {
			return code
		}
	}
}

// reaperLoop periodically stops rooms that have been idle longer than
// idleTimeout. Their snapshots stay in the store, so a reaped room can
// still be restored if someone comes back.
func (rm *RoomManager) reaperLoop() {
	ticker := time.NewTicker(rm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-rm.idleTimeout)

		rm.mu.Lock()
		for code, room := range rm.rooms {
			if room.idleSince().Before(cutoff) {
				delete(rm.rooms, code)
				room.stop()
			}
		}
		rm.mu.Unlock()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "krakenbox_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// WebSocket handler that picks the room based on :room
func serveWSForManager(cfg *Config, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("room"))
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		room := rm.getRoom(cfg, code)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case room.register <- client:
		case <-room.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(room)
	}
}

func (c *Client) readPump(room *Room) {
	defer func() {
		select {
		case room.unreg <- c:
		case <-room.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var act Action
		if err := c.conn.ReadJSON(&act); err != nil {
			return
		}

		select {
		case room.actions <- actionRequest{client: c, act: act}:
		case <-room.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("room")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:room/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getRoomPageHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = io.WriteString(w, newPage("Feed the Kraken", "Room "+strings.ToUpper(ps.ByName("room"))))
	}
}

// redirectNewRoom handles GET /path by generating a new random room
// code (with server-side collision detection) and redirecting to
// /path/:room.
func redirectNewRoom(cfg *Config, path string, rm *RoomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code := rm.newRoomCode()
		logf(cfg, "KRAKEN: Created room %s/%s", path, code)
		http.Redirect(w, r, path+"/"+code, http.StatusTemporaryRedirect)
	}
}

// registerKrakenGame sets up routes so that:
//   - $path               → redirects to a new random room (6-char code)
//   - $path/:room         → HTML client
//   - $path/:room/ws      → WebSocket for that room
//   - $path/:room/qr      → PNG QR code for that room URL
func registerKrakenGame(cfg *Config, path string, store SnapshotStore, mux *httprouter.Router) {
	rm := newRoomManager(cfg.sessionTimeout, store)

	// Root path → redirect to new random room
	mux.GET(cfg.prefix+path, redirectNewRoom(cfg, cfg.prefix+path, rm))

	// Per-room client view (HTML)
	mux.GET(cfg.prefix+path+"/:room", getRoomPageHandler(cfg))

	// Per-room websocket
	mux.GET(cfg.prefix+path+"/:room/ws", serveWSForManager(cfg, rm))

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/:room/qr", qrHandler)
}
