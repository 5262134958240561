/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Bank Heist of Hypotheses scoreboard
//
// Every board lives at /board/:boardid and is shared by everyone who opens
// that URL. The first browser to connect becomes the host (the quiz master);
// everyone else watches.
//
// Features:
// - WebSockets per board ID: /board/:boardid/ws
// - Host can rename teams, finish the current round and reset the game
// - Every change is broadcast to all viewers of the board
// - Read-only JSON state and YAML export of standings and history
// - Boards auto-reaped after a configurable idle timeout
// - Random 8-char board IDs via crypto/rand, with server-side collision check
// - QR code for sharing the board, backed by go-qrcode

package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/bankheist/scoring"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	boardIDLength    = 8
	maxMessageSize   = 4096
	viewerCookieName = "bankheist_id"
	writeWait        = 10 * time.Second
)

// ClientMessage is everything a browser may send.
type ClientMessage struct {
	Type    string          `json:"type"`              // "rename", "finish_round", "reset"
	Team    *int            `json:"team,omitempty"`    // rename
	Name    string          `json:"name,omitempty"`    // rename
	Entries []scoring.Entry `json:"entries,omitempty"` // finish_round
}

// SessionInfoMessage is sent once on connect.
type SessionInfoMessage struct {
	Type    string `json:"type"` // "session_info"
	BoardID string `json:"board_id"`
	IsHost  bool   `json:"is_host"`
}

// RulesMessage describes the scoring formula for the rules tab.
type RulesMessage struct {
	Formula             string               `json:"formula"`
	TotalRounds         int                  `json:"total_rounds"`
	RoundCoefficients   []scoring.TableEntry `json:"round_coefficients"`
	CoefficientFallback int                  `json:"coefficient_fallback"`
	PlacePoints         []scoring.TableEntry `json:"place_points"`
}

// BoardStateMessage carries the whole board.
type BoardStateMessage struct {
	Type        string             `json:"type"` // "board_state"
	BoardID     string             `json:"board_id"`
	Round       int                `json:"round"`
	TotalRounds int                `json:"total_rounds"`
	Coefficient int                `json:"coefficient"`
	Finished    bool               `json:"finished"`
	Teams       []scoring.Team     `json:"teams"`
	Leaderboard []scoring.Standing `json:"leaderboard"`
	Rules       RulesMessage       `json:"rules"`
	CreatedAt   time.Time          `json:"created_at"`
	LastActive  time.Time          `json:"last_active"`
}

// RoundResultsMessage announces the outcome of a finished round.
type RoundResultsMessage struct {
	Type     string            `json:"type"` // "round_results"
	Round    int               `json:"round"`
	Placings []scoring.Placing `json:"placings"`
}

// SimpleMessage is for refusals ("not_host", "game_over", ...).
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func rules() RulesMessage {
	return RulesMessage{
		Formula:             "points = correctness × round coefficient × place points",
		TotalRounds:         scoring.TotalRounds,
		RoundCoefficients:   scoring.RoundCoefficients.Entries(),
		CoefficientFallback: scoring.RoundCoefficients.Fallback(),
		PlacePoints:         scoring.PlacePoints.Entries(),
	}
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	viewerID string
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	clients map[*Client]bool
	board   *scoring.Board

	register chan *Client
	unreg    chan *Client
	commands chan command
	done     chan struct{}

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
	hostID     string // viewer ID of the host
	closed     bool
}

func newHub(boardID string) *Hub {
	now := time.Now()
	return &Hub{
		id:         boardID,
		clients:    make(map[*Client]bool),
		board:      scoring.NewBoard(),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.addClient(cfg, c)

		case c := <-h.unreg:
			h.removeClient(c)

		case cmd := <-h.commands:
			h.handleCommand(cfg, cmd)

		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(cfg *Config, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if h.hostID == "" {
		h.hostID = c.viewerID
		logf(cfg, "BOARD: Viewer %s is host of %s", c.viewerID, h.id)
	}

	h.clients[c] = true
	viewersConnected.Inc()

	h.deliverLocked(c, SessionInfoMessage{
		Type:    "session_info",
		BoardID: h.id,
		IsHost:  c.viewerID == h.hostID,
	})
	h.deliverLocked(c, h.stateLocked())
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		viewersConnected.Dec()
	}
}

// handleCommand applies one host command and tells everyone, or tells the
// sender why it was refused.
func (h *Hub) handleCommand(cfg *Config, cmd command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if err := h.applyLocked(cfg, cmd); err != nil {
		reason := errorType(err)
		commandsRejected.WithLabelValues(reason).Inc()

		h.deliverLocked(cmd.client, SimpleMessage{
			Type:    reason,
			Message: err.Error(),
		})

		return
	}

	h.broadcastLocked(h.stateLocked())
}

func (h *Hub) applyLocked(cfg *Config, cmd command) error {
	msg := cmd.msg

	if cmd.client.viewerID == "" || cmd.client.viewerID != h.hostID {
		return errNotHost
	}

	switch msg.Type {
	case "rename":
		if msg.Team == nil {
			return errBadRequest
		}
		if !h.board.EditTeamName(*msg.Team, msg.Name) {
			logf(cfg, "BOARD: Ignored rename of team %d in %s", *msg.Team, h.id)
			return nil
		}
		logf(cfg, "BOARD: Team %d renamed to %q in %s", *msg.Team, msg.Name, h.id)

	case "finish_round":
		if h.board.Finished() {
			return errGameOver
		}
		entries := msg.Entries
		if n := len(scoring.Roster); len(entries) > n {
			entries = entries[:n]
		}
		if !anySubmitted(entries) {
			return errNoSubmissions
		}

		round := h.board.Round()
		placings := h.board.CalculateRoundResults(entries)

		roundsFinished.Inc()
		for _, p := range placings {
			pointsAwarded.Add(float64(p.Points))
		}

		logf(cfg, "BOARD: Round %d finished in %s with %d placed teams", round, h.id, len(placings))

		h.broadcastLocked(RoundResultsMessage{
			Type:     "round_results",
			Round:    round,
			Placings: placings,
		})

	case "reset":
		h.board.Reset()
		logf(cfg, "BOARD: Reset %s", h.id)

	default:
		return errBadRequest
	}

	return nil
}

// anySubmitted reports whether at least one time field was filled in.
func anySubmitted(entries []scoring.Entry) bool {
	for _, e := range entries {
		if strings.TrimSpace(e.Time) != "" {
			return true
		}
	}
	return false
}

func (h *Hub) stateLocked() BoardStateMessage {
	snap := h.board.Snapshot()

	return BoardStateMessage{
		Type:        "board_state",
		BoardID:     h.id,
		Round:       snap.Round,
		TotalRounds: scoring.TotalRounds,
		Coefficient: scoring.RoundCoefficients.Lookup(snap.Round),
		Finished:    snap.Finished,
		Teams:       snap.Teams,
		Leaderboard: snap.Leaderboard,
		Rules:       rules(),
		CreatedAt:   h.createdAt,
		LastActive:  h.lastActive,
	}
}

func (h *Hub) state() BoardStateMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.stateLocked()
}

func (h *Hub) snapshot() scoring.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.board.Snapshot()
}

// deliverLocked queues msg for one client, dropping the client if its
// buffer is full.
func (h *Hub) deliverLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
		viewersConnected.Dec()
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.deliverLocked(c, msg)
	}
}

// idleSince reports when the hub was last used. A hub with viewers still
// connected is never idle.
func (h *Hub) idleSince() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive, len(h.clients) == 0
}

// closeAll disconnects all clients of this hub and stops it.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(h.clients, c)
		viewersConnected.Dec()
	}

	close(h.done)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func getOrSetViewerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(viewerCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     viewerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// BoardManager holds a set of hubs keyed by board ID.
type BoardManager struct {
	mu          sync.Mutex
	cfg         *Config
	hubs        map[string]*Hub
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func newBoardManager(cfg *Config) *BoardManager {
	bm := &BoardManager{
		cfg:         cfg,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		stop:        make(chan struct{}),
	}
	if bm.idleTimeout > 0 {
		go bm.reaperLoop()
	}
	return bm
}

func validBoardID(id string) bool {
	if id == "" || len(id) > 32 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func (bm *BoardManager) lookup(boardID string) (*Hub, bool) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	hub, ok := bm.hubs[boardID]
	return hub, ok
}

func (bm *BoardManager) startLocked(boardID string) *Hub {
	hub := newHub(boardID)
	bm.hubs[boardID] = hub
	boardsActive.Inc()
	go hub.run(bm.cfg)
	return hub
}

// newBoard starts a board under a fresh crypto-random ID.
func (bm *BoardManager) newBoard() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	bm.mu.Lock()
	defer bm.mu.Unlock()

	for {
		buf := make([]byte, boardIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, boardIDLength)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		if _, exists := bm.hubs[id]; !exists {
			bm.startLocked(id)
			return id
		}
	}
}

// reap discards boards nobody is watching that have been idle since before
// cutoff, and returns how many went.
func (bm *BoardManager) reap(cutoff time.Time) int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	reaped := 0
	for id, hub := range bm.hubs {
		if since, idle := hub.idleSince(); idle && since.Before(cutoff) {
			delete(bm.hubs, id)
			boardsActive.Dec()
			go hub.closeAll()
			reaped++
			logf(bm.cfg, "BOARD: Reaped idle board %s", id)
		}
	}
	return reaped
}

func (bm *BoardManager) reaperLoop() {
	ticker := time.NewTicker(bm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bm.reap(time.Now().Add(-bm.idleTimeout))
		case <-bm.stop:
			return
		}
	}
}

// Close stops the reaper and disconnects every board.
func (bm *BoardManager) Close() {
	bm.stopOnce.Do(func() {
		close(bm.stop)
	})

	bm.mu.Lock()
	hubs := make([]*Hub, 0, len(bm.hubs))
	for id, hub := range bm.hubs {
		hubs = append(hubs, hub)
		delete(bm.hubs, id)
		boardsActive.Dec()
	}
	bm.mu.Unlock()

	for _, hub := range hubs {
		hub.closeAll()
	}
}

// WebSocket handler that picks the hub based on :boardid
func serveWSForManager(cfg *Config, bm *BoardManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		boardID := ps.ByName("boardid")
		if !validBoardID(boardID) {
			http.Error(w, "invalid board id", http.StatusBadRequest)
			return
		}

		hub, ok := bm.lookup(boardID)
		if !ok {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}

		viewerID := getOrSetViewerID(w, r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			viewerID: viewerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "SERVE: Board %s socket opened by %s", boardID, realIP(r))

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = ClientMessage{Type: "malformed"}
		}

		switch msg.Type {
		case "rename", "finish_round", "reset", "malformed":
			select {
			case h.commands <- command{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the board URL using go-qrcode.
func qrHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validBoardID(ps.ByName("boardid")) {
			http.Error(w, "invalid board id", http.StatusBadRequest)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

func serveState(cfg *Config, bm *BoardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		hub, ok := bm.lookup(ps.ByName("boardid"))
		if !ok {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}

		data, err := json.Marshal(hub.state())
		if err != nil {
			errs <- err
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: Board %s state (%s) to %s in %s",
			hub.id,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectNewBoard starts a board under a new random ID and redirects to it.
func redirectNewBoard(cfg *Config, path string, bm *BoardManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		boardID := bm.newBoard()
		logf(cfg, "BOARD: Created board %s%s/%s", cfg.prefix, path, boardID)
		http.Redirect(w, r, fmt.Sprintf("%s%s/%s", cfg.prefix, path, boardID), http.StatusTemporaryRedirect)
	}
}

// registerBoard sets up routes so that:
//   - $path                     → redirects to a new board
//   - $path/:boardid            → HTML client
//   - $path/:boardid/ws         → WebSocket for that board
//   - $path/:boardid/state      → JSON snapshot
//   - $path/:boardid/export.yaml → YAML standings and history
//   - $path/:boardid/qr         → PNG QR code for the board URL
func registerBoard(cfg *Config, path string, mux *httprouter.Router, bm *BoardManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewBoard(cfg, path, bm))

	mux.GET(cfg.prefix+path+"/:boardid", serveBoardPage(cfg, errs))

	mux.GET(cfg.prefix+"/assets/board/:file", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+path+"/:boardid/ws", serveWSForManager(cfg, bm))

	mux.GET(cfg.prefix+path+"/:boardid/state", serveState(cfg, bm, errs))

	mux.GET(cfg.prefix+path+"/:boardid/export.yaml", serveExport(cfg, bm, errs))

	mux.GET(cfg.prefix+path+"/:boardid/qr", qrHandler(cfg, errs))
}
