package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
	return ""
}

func TestHubPublishLocal(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("viewer-1")
	defer hub.Unregister(client)
	other := hub.Register("viewer-2")
	defer hub.Unregister(other)

	hub.Publish("viewer-1", []byte("hello"))
	if got := receive(t, client); got != "hello" {
		t.Fatalf("unexpected message %q", got)
	}
	select {
	case <-other.Send:
		t.Fatalf("message leaked to another viewer")
	default:
	}
}

func TestHubPublishJSON(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("viewer-1")
	defer hub.Unregister(client)

	if err := hub.PublishJSON("viewer-1", map[string]int{"generation": 3}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := receive(t, client); got != `{"generation":3}` {
		t.Fatalf("unexpected payload %s", got)
	}
	if err := hub.PublishJSON("viewer-1", func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestHubGreeter(t *testing.T) {
	hub := NewHub(nil)
	hub.SetGreeter(func(viewerID string) []byte {
		if viewerID == "known" {
			return []byte("state")
		}
		return nil
	})

	known := hub.Register("known")
	defer hub.Unregister(known)
	if got := receive(t, known); got != "state" {
		t.Fatalf("unexpected greeting %q", got)
	}

	unknown := hub.Register("unknown")
	defer hub.Unregister(unknown)
	if len(unknown.Send) != 0 {
		t.Fatalf("expected no greeting")
	}
}

func TestHubChannelHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "opotopo:viewer:abc:sync" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if viewerIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected viewer id")
	}
	if viewerIDFromChannel("bad") != "" || viewerIDFromChannel("opotopo:viewer::sync") != "" {
		t.Fatalf("expected empty viewer id")
	}
}

func TestUnregisterClosesOnce(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("viewer-2")
	if hub.Clients("viewer-2") != 1 {
		t.Fatalf("expected one client")
	}
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Clients("viewer-2") != 0 {
		t.Fatalf("expected no clients")
	}
}

func TestHubRedisFanOut(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	first := NewHub(rdb)
	defer first.Close()
	second := NewHub(rdb)
	defer second.Close()

	ws := second.Register("viewer-redis")
	defer second.Unregister(ws)

	first.Publish("viewer-redis", []byte("ping"))
	if got := receive(t, ws); got != "ping" {
		t.Fatalf("unexpected message %q", got)
	}

	if err := rdb.Publish(context.Background(), redisChannel("viewer-redis"), "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if got := receive(t, ws); got != "pong" {
		t.Fatalf("unexpected message from redis %q", got)
	}
}

func TestHubRedisUnavailableFallsBack(t *testing.T) {
	server := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	server.Close()
	defer rdb.Close()

	hub := NewHub(rdb)
	client := hub.Register("viewer-bad")
	defer hub.Unregister(client)

	hub.Publish("viewer-bad", []byte("ping"))
	if got := receive(t, client); got != "ping" {
		t.Fatalf("expected local delivery, got %q", got)
	}
}
