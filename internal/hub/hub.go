package hub

import (
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/kwakchaewon/surveypulse/internal/domain"
	"github.com/kwakchaewon/surveypulse/internal/metrics"
)

// maxClientsPerUser bounds how many simultaneous devices/tabs one user may
// hold. High enough to never matter for real users.
const maxClientsPerUser = 50

type userClients map[*websocket.Conn]*clientWriter

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	username string
	conn     *websocket.Conn
	errCh    chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	username string
	conn     *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdDeliver struct {
	username string
	payload  []byte
}

func (cmdDeliver) hubCmd() {}

type cmdClientCount struct {
	username string
	replyCh  chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// Hub is the per-process connection registry: username -> set of open push
// connections. All map access happens on the run goroutine.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[string]userClients
	clock   clockwork.Clock
}

func New(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[string]userClients),
		clock:   clock,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.username, c.conn)
		case cmdDeliver:
			h.handleDeliver(c)
		case cmdClientCount:
			c.replyCh <- len(h.clients[c.username])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	clients, exists := h.clients[c.username]
	if !exists {
		clients = make(userClients)
		h.clients[c.username] = clients
		metrics.HubActiveUsers.Inc()
	}

	if len(clients) >= maxClientsPerUser {
		slog.Warn("Rejecting connection: max clients reached", "username", c.username, "max", maxClientsPerUser)
		_ = c.conn.Close()
		c.errCh <- fmt.Errorf("%w: limit is %d", domain.ErrTooManyConnections, maxClientsPerUser)
		return
	}

	cw := newClientWriter(c.conn, h.clock)
	clients[c.conn] = cw
	metrics.HubConnectedClients.Inc()
	slog.Info("Client registered", "username", c.username, "total_clients", len(clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(username string, conn *websocket.Conn) {
	clients, exists := h.clients[username]
	if !exists {
		return
	}

	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.HubConnectedClients.Dec()

	if len(clients) == 0 {
		delete(h.clients, username)
		metrics.HubActiveUsers.Dec()
		slog.Info("Last client disconnected", "username", username)
	} else {
		slog.Debug("Client unregistered", "username", username, "remaining_clients", len(clients))
	}
}

func (h *Hub) handleDeliver(c cmdDeliver) {
	clients, exists := h.clients[c.username]
	if !exists {
		// Normal in multi-instance deployments: the user's connections
		// live on another process.
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendChannel <- c.payload:
		default:
			// send buffer full, client can't keep up
			slow = append(slow, conn)
		}
	}
	metrics.HubDeliveries.Inc()

	for _, conn := range slow {
		metrics.HubSendFailures.Inc()
		slog.Warn("Disconnecting slow client", "username", c.username)
		h.handleUnregister(c.username, conn)
	}
}

func (h *Hub) handleStop() {
	for username, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
			metrics.HubConnectedClients.Dec()
		}
		delete(h.clients, username)
		metrics.HubActiveUsers.Dec()
	}
}

// --- Public API ---

// Register adds a connection to the user's set. Returns an error only when
// the per-user connection cap is reached.
func (h *Hub) Register(username string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{username: username, conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a connection from the user's set. Unknown users or
// connections are a no-op; disconnect races are expected.
func (h *Hub) Unregister(username string, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{username: username, conn: conn}
}

// Deliver fans payload out to every open connection of the user. A slow or
// dead connection is dropped without affecting its siblings. Users with no
// local connections are a silent no-op.
func (h *Hub) Deliver(username string, payload []byte) {
	h.cmdCh <- cmdDeliver{username: username, payload: payload}
}

// ClientCount returns the number of open connections for the user.
func (h *Hub) ClientCount(username string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{username: username, replyCh: replyCh}
	return <-replyCh
}

// Stop closes every connection and shuts the hub down. The command loop
// exits, so no method may be called after Stop; shut the HTTP server down
// first so no handler can still reach the hub.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
