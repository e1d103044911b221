package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-1")
	defer hub.Unregister(client)

	hub.Broadcast("trip-1", []byte("hello"))

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubRoomIsolation(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Register("trip-a")
	b := hub.Register("trip-b")
	defer hub.Unregister(a)
	defer hub.Unregister(b)

	hub.Broadcast("trip-a", []byte("only-a"))

	select {
	case <-a.Send:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}

	select {
	case <-b.Send:
		t.Fatalf("message leaked across rooms")
	default:
	}
}

func TestHubSlowClientDrops(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-slow")
	defer hub.Unregister(client)

	for i := 0; i < 200; i++ {
		hub.Broadcast("trip-slow", []byte("x"))
	}
	// Buffer is 64; the rest were dropped rather than blocking Broadcast.
	if len(client.Send) != 64 {
		t.Fatalf("expected full buffer, got %d", len(client.Send))
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if tripIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected trip id")
	}
	if tripIDFromChannel("bad") != "" {
		t.Fatalf("expected empty trip id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("trip-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("trip-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// A publish from another instance arrives through the backplane.
	remote := hub.Register("trip-remote")
	defer hub.Unregister(remote)

	time.Sleep(20 * time.Millisecond)
	frame, _ := json.Marshal(backplaneFrame{Src: "other-instance", Payload: []byte("pong")})
	if err := client.Publish(context.Background(), "trip:trip-remote:chat", frame).Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-remote.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisDeliversOncePerBroadcast(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("trip-once")
	defer hub.Unregister(ws)

	// Let the backplane subscriber attach so the publish would echo back
	// if self-echoes were not filtered.
	time.Sleep(20 * time.Millisecond)
	hub.Broadcast("trip-once", []byte("ping"))

	time.Sleep(200 * time.Millisecond)
	if got := len(ws.Send); got != 1 {
		t.Fatalf("expected exactly one delivery, got %d", got)
	}
}

func TestHubRedisIgnoresJunkFrames(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("trip-junk")
	defer hub.Unregister(ws)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), "trip:trip-junk:chat", "not a frame").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	select {
	case msg := <-ws.Send:
		t.Fatalf("junk frame was delivered: %s", msg)
	default:
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("trip-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("trip-bad", []byte("ping"))
}
