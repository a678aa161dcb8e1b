package realtime

import (
	"encoding/json"
	"testing"

	"github.com/fossuok/qr-event-backend/internal/models"
)

func TestBroadcastCheckinReachesClients(t *testing.T) {
	h := NewHub(nil)
	ch := h.register()
	defer h.unregister(ch)

	h.BroadcastCheckin(models.ScanView{ID: "tok-1", Name: "Ada"})

	select {
	case msg := <-ch:
		var ev CheckinEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type != "checkin" || ev.User.ID != "tok-1" {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	h := NewHub(nil)
	ch := h.register()

	// Fill the client's buffer so the next broadcast cannot be delivered.
	for i := 0; i < sendBuffer; i++ {
		h.BroadcastCheckin(models.ScanView{ID: "tok-fill"})
	}
	h.BroadcastCheckin(models.ScanView{ID: "tok-overflow"})

	h.mu.Lock()
	_, stillRegistered := h.clients[ch]
	h.mu.Unlock()
	if stillRegistered {
		t.Fatal("slow client not dropped")
	}

	// The channel was closed on drop; draining must terminate.
	n := 0
	for range ch {
		n++
	}
	if n != sendBuffer {
		t.Fatalf("drained %d buffered messages, want %d", n, sendBuffer)
	}

	// Dropping again via unregister must be a no-op, not a double close.
	h.unregister(ch)
}
