// Package realtime propagates room-state changes to subscribed
// clients.  Notifications are triggers only: they carry no state, and
// subscribers respond by refetching the full room snapshot.
package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Notifier is the abstract change-notification transport: publish a
// trigger for a room, or subscribe to a room's triggers.  Delivery is
// at-least-once and payloads must never be trusted.
type Notifier interface {
	Publish(ctx context.Context, roomCode string) error
	Subscribe(roomCode string, onChange func()) (unsubscribe func(), err error)
}

const channelPrefix = "room:"

// RedisNotifier fans change triggers out over Redis pub/sub, one
// channel per room, so every server instance sees every mutation.
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier wraps a Redis client.  Callers should fall back to
// NewMemoryNotifier when no client could be established.
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

// Publish sends an empty trigger on the room's channel.
func (n *RedisNotifier) Publish(ctx context.Context, roomCode string) error {
	return n.rdb.Publish(ctx, channelPrefix+roomCode, "").Err()
}

// Subscribe listens on the room's channel and invokes onChange for
// every message until the returned unsubscribe function is called.
func (n *RedisNotifier) Subscribe(roomCode string, onChange func()) (func(), error) {
	sub := n.rdb.Subscribe(context.Background(), channelPrefix+roomCode)
	// Force the subscription to be established before returning so no
	// trigger published after Subscribe returns can be missed.
	if _, err := sub.Receive(context.Background()); err != nil {
		_ = sub.Close()
		return nil, err
	}
	ch := sub.Channel()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				onChange()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}, nil
}

// MemoryNotifier is the in-process fallback used when Redis is
// unavailable, and the transport of choice in tests.  Single-instance
// deployments lose nothing by it.
type MemoryNotifier struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func()
}

// NewMemoryNotifier returns an empty in-process notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[string]map[int]func())}
}

// Publish invokes every subscriber for the room.  Callbacks run on the
// publisher's goroutine; subscribers are expected to be fast (the
// watcher only resets a timer).
func (n *MemoryNotifier) Publish(_ context.Context, roomCode string) error {
	n.mu.Lock()
	callbacks := make([]func(), 0, len(n.subs[roomCode]))
	for _, fn := range n.subs[roomCode] {
		callbacks = append(callbacks, fn)
	}
	n.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Subscribe registers a callback for a room's triggers.
func (n *MemoryNotifier) Subscribe(roomCode string, onChange func()) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs[roomCode] == nil {
		n.subs[roomCode] = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[roomCode][id] = onChange
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[roomCode], id)
	}, nil
}
