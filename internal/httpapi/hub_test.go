package httpapi

import (
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chokepoint-radar/internal/domain"
	"chokepoint-radar/internal/storage/memory"
)

func TestHub_BroadcastCycle(t *testing.T) {
	srv := NewServer(Options{
		Store:  memory.NewSignalStore(),
		Logger: log.New(io.Discard, "", 0),
	})
	go srv.Hub().Run()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the hub a moment to register the client before broadcasting.
	time.Sleep(50 * time.Millisecond)

	srv.Hub().BroadcastCycle(3, 1, []domain.Signal{{ID: 42, Title: "saved"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg cycleMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}

	if msg.Type != "cycle" || msg.Detected != 3 || msg.Saved != 1 {
		t.Errorf("msg = %+v", msg)
	}
	if len(msg.Signals) != 1 || msg.Signals[0].ID != 42 {
		t.Errorf("signals = %+v", msg.Signals)
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	go hub.Run()

	// No panic, no block.
	hub.BroadcastCycle(0, 0, nil)
}
