// Package broadcast owns the set of live observer connections and pushes
// update messages to all of them. Delivery is best effort: a failed send
// removes the observer and is never surfaced to the caller, so ingestion can
// treat every broadcast as fire-and-forget.
package broadcast

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/unifi-tools/threatwatch/pkg/metrics"
)

// Sender is one live observer connection. Send must have bounded latency so
// a slow observer cannot stall a broadcast; a timeout counts as a failure.
type Sender interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

type Manager struct {
	mu     sync.Mutex
	conns  map[string]Sender
	logger *log.Entry
}

func NewManager() *Manager {
	return &Manager{
		conns:  make(map[string]Sender),
		logger: log.StandardLogger().WithField("service", "broadcast"),
	}
}

// Register adds a newly-handshaken connection to the live set.
func (m *Manager) Register(conn Sender) {
	m.mu.Lock()
	m.conns[conn.ID()] = conn
	count := len(m.conns)
	m.mu.Unlock()

	metrics.ActiveObservers.Set(float64(count))
	m.logger.Infof("observer connected, total connections: %d", count)
}

// Unregister removes a connection; removing an absent connection is a no-op.
func (m *Manager) Unregister(conn Sender) {
	m.remove(conn.ID())
}

func (m *Manager) remove(id string) {
	m.mu.Lock()

	conn, ok := m.conns[id]
	if ok {
		delete(m.conns, id)
	}

	count := len(m.conns)
	m.mu.Unlock()

	if !ok {
		return
	}

	conn.Close()
	metrics.ActiveObservers.Set(float64(count))
	m.logger.Infof("observer disconnected, total connections: %d", count)
}

// Count returns the number of currently-registered observers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.conns)
}

type envelope struct {
	Type   string `json:"type"`
	Device any    `json:"device,omitempty"`
	Status any    `json:"status,omitempty"`
}

// BroadcastEvent pushes a device_update envelope to every observer.
func (m *Manager) BroadcastEvent(device any) {
	m.broadcast(envelope{Type: "device_update", Device: device})
}

// BroadcastStatus pushes a status_update envelope to every observer.
func (m *Manager) BroadcastStatus(status any) {
	m.broadcast(envelope{Type: "status_update", Status: status})
}

// Broadcast pushes an arbitrary payload with no envelope, for callers that
// already supply a complete message.
func (m *Manager) Broadcast(payload any) {
	m.broadcast(payload)
}

func (m *Manager) broadcast(payload any) {
	m.mu.Lock()

	if len(m.conns) == 0 {
		m.mu.Unlock()
		return
	}

	targets := make([]Sender, 0, len(m.conns))
	for _, conn := range m.conns {
		targets = append(targets, conn)
	}

	m.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		m.logger.Errorf("unable to marshal broadcast payload: %s", err)
		return
	}

	// each delivery is independent: one failure must not affect the others
	failed := make(chan string, len(targets))

	var wg sync.WaitGroup

	for _, conn := range targets {
		wg.Add(1)

		go func(conn Sender) {
			defer wg.Done()

			if err := conn.Send(data); err != nil {
				m.logger.Errorf("error sending to observer %s: %s", conn.ID(), err)
				metrics.BroadcastFailures.Inc()
				failed <- conn.ID()

				return
			}

			metrics.BroadcastDeliveries.Inc()
		}(conn)
	}

	wg.Wait()
	close(failed)

	// membership is reconciled with actual reachability before returning
	for id := range failed {
		m.remove(id)
	}
}

// Shutdown closes every observer connection and empties the live set.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]Sender)
	m.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}

	metrics.ActiveObservers.Set(0)

	if len(conns) > 0 {
		m.logger.Infof("closed %d observer connections", len(conns))
	}
}
