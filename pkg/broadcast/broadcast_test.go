package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records everything it is asked to deliver; failing=true makes
// every send fail.
type fakeSender struct {
	id      string
	failing bool

	mu       sync.Mutex
	payloads [][]byte
	closed   bool
}

func (f *fakeSender) ID() string { return f.id }

func (f *fakeSender) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return errors.New("connection reset")
	}

	f.payloads = append(f.payloads, payload)

	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *fakeSender) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]byte{}, f.payloads...)
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

func TestBroadcastDeliversToAll(t *testing.T) {
	m := NewManager()

	senders := []*fakeSender{{id: "a"}, {id: "b"}, {id: "c"}}
	for _, s := range senders {
		m.Register(s)
	}

	m.BroadcastEvent(map[string]string{"signature": "ET SCAN"})

	for _, s := range senders {
		payloads := s.received()
		require.Len(t, payloads, 1)

		var msg map[string]any
		require.NoError(t, json.Unmarshal(payloads[0], &msg))
		assert.Equal(t, "device_update", msg["type"])
		assert.NotNil(t, msg["device"])
		assert.Nil(t, msg["status"])
	}

	assert.Equal(t, 3, m.Count())
}

func TestBroadcastStatusEnvelope(t *testing.T) {
	m := NewManager()

	s := &fakeSender{id: "a"}
	m.Register(s)

	m.BroadcastStatus(map[string]int{"total_events": 7})

	payloads := s.received()
	require.Len(t, payloads, 1)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, "status_update", msg["type"])
	assert.NotNil(t, msg["status"])
	assert.Nil(t, msg["device"])
}

func TestBroadcastPrunesFailedObservers(t *testing.T) {
	m := NewManager()

	good := &fakeSender{id: "good"}
	bad := &fakeSender{id: "bad", failing: true}
	alsoBad := &fakeSender{id: "also-bad", failing: true}

	m.Register(good)
	m.Register(bad)
	m.Register(alsoBad)

	m.BroadcastEvent(map[string]string{"signature": "ET SCAN"})

	// failed observers are gone before the broadcast returns
	assert.Equal(t, 1, m.Count())
	assert.True(t, bad.isClosed())
	assert.True(t, alsoBad.isClosed())
	assert.False(t, good.isClosed())

	// the survivor keeps receiving
	m.BroadcastEvent(map[string]string{"signature": "ET SCAN"})
	assert.Len(t, good.received(), 2)
}

func TestBroadcastNoObservers(t *testing.T) {
	m := NewManager()

	// nothing to deliver to, nothing to do
	m.BroadcastEvent(map[string]string{"signature": "ET SCAN"})
	m.BroadcastStatus(map[string]int{"total_events": 0})

	assert.Zero(t, m.Count())
}

func TestUnregisterIdempotent(t *testing.T) {
	m := NewManager()

	s := &fakeSender{id: "a"}
	m.Register(s)

	m.Unregister(s)
	assert.Zero(t, m.Count())
	assert.True(t, s.isClosed())

	// a second unregister is a no-op
	m.Unregister(s)
	assert.Zero(t, m.Count())
}

func TestRegisterDuringBroadcast(t *testing.T) {
	m := NewManager()

	for i := range 10 {
		m.Register(&fakeSender{id: string(rune('a' + i))})
	}

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			m.BroadcastEvent(map[string]string{"signature": "ET SCAN"})
		}()

		wg.Add(1)

		go func() {
			defer wg.Done()

			s := &fakeSender{id: "late-" + string(rune('a'))}
			m.Register(s)
			m.Unregister(s)
		}()
	}

	wg.Wait()
	assert.Equal(t, 10, m.Count())
}

func TestShutdownClosesEverything(t *testing.T) {
	m := NewManager()

	senders := []*fakeSender{{id: "a"}, {id: "b"}}
	for _, s := range senders {
		m.Register(s)
	}

	m.Shutdown()

	assert.Zero(t, m.Count())

	for _, s := range senders {
		assert.True(t, s.isClosed())
	}
}

func TestBroadcastRaw(t *testing.T) {
	m := NewManager()

	s := &fakeSender{id: "a"}
	m.Register(s)

	m.Broadcast(map[string]string{"type": "ping"})

	payloads := s.received()
	require.Len(t, payloads, 1)
	assert.JSONEq(t, `{"type":"ping"}`, string(payloads[0]))
}
