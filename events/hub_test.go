package events

import (
	"testing"
	"time"

	"github.com/skillsenselab/speakerline/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(logger.Get("hub-test"))
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func waitClients(t *testing.T, h *Hub, streamID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount(streamID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count for %s never reached %d", streamID, want)
		}
		time.Sleep(time.Millisecond)
	}
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data, ok := <-c.Events():
		if !ok {
			t.Fatal("client channel closed")
		}
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHubFanoutPerStream(t *testing.T) {
	h := startHub(t)

	a1 := NewClient("c1", "stream-a", logger.Get("hub-test"))
	a2 := NewClient("c2", "stream-a", logger.Get("hub-test"))
	b1 := NewClient("c3", "stream-b", logger.Get("hub-test"))
	h.Register(a1)
	h.Register(a2)
	h.Register(b1)
	waitClients(t, h, "stream-a", 2)
	waitClients(t, h, "stream-b", 1)

	h.Broadcast("stream-a", []byte("hello"))
	if got := recv(t, a1); string(got) != "hello" {
		t.Errorf("a1 received %q", got)
	}
	if got := recv(t, a2); string(got) != "hello" {
		t.Errorf("a2 received %q", got)
	}
	select {
	case data := <-b1.Events():
		t.Errorf("stream-b client received %q", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	h := startHub(t)

	c := NewClient("c1", "stream-a", logger.Get("hub-test"))
	h.Register(c)
	waitClients(t, h, "stream-a", 1)

	h.Unregister(c)
	waitClients(t, h, "stream-a", 0)

	select {
	case _, ok := <-c.Events():
		if ok {
			t.Error("expected closed channel, got an event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unregister")
	}
}

func TestHubStopClosesAllClients(t *testing.T) {
	h := NewHub(logger.Get("hub-test"))
	go h.Run()

	c := NewClient("c1", "stream-a", logger.Get("hub-test"))
	h.Register(c)
	waitClients(t, h, "stream-a", 1)

	h.Stop()
	select {
	case _, ok := <-c.Events():
		if ok {
			t.Error("expected closed channel, got an event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}

	// Safe after shutdown.
	h.Stop()
	h.Broadcast("stream-a", []byte("late"))
}

func TestClientDropsWhenFull(t *testing.T) {
	c := NewClient("c1", "stream-a", logger.Get("hub-test"))

	for i := 0; i < 256; i++ {
		if !c.Send([]byte("x")) {
			t.Fatalf("send %d dropped below capacity", i)
		}
	}
	if c.Send([]byte("overflow")) {
		t.Error("send beyond capacity not dropped")
	}
}
