package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{}) {}
func (quietLogger) Warn(module, message string, details map[string]interface{}) {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error { return nil }

func register(t *testing.T, h *Hub, userID uuid.UUID, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: h, UserID: userID, Send: make(chan []byte, buffer)}
	select {
	case h.register <- c:
	case <-time.After(time.Second):
		t.Fatal("register blocked")
	}

	// Run processes registrations asynchronously; wait until the client
	// is visible before sending to it.
	deadline := time.Now().Add(time.Second)
	for {
		h.mu.RLock()
		registered := false
		for _, existing := range h.clients[userID] {
			if existing == c {
				registered = true
			}
		}
		h.mu.RUnlock()
		if registered {
			return c
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSendReachesEveryConnectionOfOneUser(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	userID := uuid.New()
	a := register(t, h, userID, 4)
	b := register(t, h, userID, 4)
	other := register(t, h, uuid.New(), 4)

	h.Send(userID, "decision", map[string]interface{}{"status": "approved"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			if len(msg) == 0 {
				t.Error("empty payload delivered")
			}
		case <-time.After(time.Second):
			t.Fatal("targeted connection did not receive the message")
		}
	}
	select {
	case <-other.Send:
		t.Error("message leaked to another user's connection")
	default:
	}
}

// A connection that stops draining its buffer gets dropped instead of
// wedging the hub for everyone else.
func TestSendDropsSlowConnectionWithoutBlocking(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	userID := uuid.New()
	slow := register(t, h, userID, 1)
	h.Send(userID, "preview", "frame-1") // fills the buffer

	done := make(chan struct{})
	go func() {
		h.Send(userID, "preview", "frame-2")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a slow connection")
	}

	// The unregister path closes Send exactly once.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-slow.Send:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("slow connection was never unregistered")
		}
	}
}
