package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/planning-poker/internal/model"
)

// SnapshotFetcher loads the authoritative room snapshot in one
// consistent read.  The room service satisfies this.
type SnapshotFetcher interface {
	GetRoomState(ctx context.Context, code string) (*model.RoomSnapshot, error)
}

// DefaultDebounce is the trailing-edge window for coalescing
// notification bursts.  Reordering five stories fires five triggers;
// without coalescing that is five redundant full-room reads.
const DefaultDebounce = 150 * time.Millisecond

// Watcher keeps one client's view of a room synchronized.  Each
// notification only arms (or re-arms) a trailing-edge timer; when the
// quiet period elapses the watcher refetches the full snapshot,
// pushes it to OnUpdate, and checks whether the locally-known
// participant is still on the roster, firing OnKicked exactly once if
// not.  Refetch failures are logged and swallowed; the next trigger
// retries implicitly.
type Watcher struct {
	code        string
	participant string // empty for anonymous spectators
	fetcher     SnapshotFetcher
	notifier    Notifier
	debounce    time.Duration

	// OnUpdate receives every refetched snapshot.  OnKicked fires at
	// most once, after the participant disappears from the roster.
	OnUpdate func(*model.RoomSnapshot)
	OnKicked func()

	mu          sync.Mutex
	timer       *time.Timer
	unsubscribe func()
	kicked      bool
	closed      bool
}

// NewWatcher builds a watcher for a room.  participant may be empty
// when kick detection is not wanted.  A non-positive debounce falls
// back to DefaultDebounce.
func NewWatcher(code, participant string, fetcher SnapshotFetcher, notifier Notifier, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		code:        code,
		participant: participant,
		fetcher:     fetcher,
		notifier:    notifier,
		debounce:    debounce,
	}
}

// Start performs the initial fetch, delivers it, and subscribes to the
// room's change stream.  ctx bounds the lifetime of every refetch.
func (w *Watcher) Start(ctx context.Context) error {
	snap, err := w.fetcher.GetRoomState(ctx, w.code)
	if err != nil {
		return err
	}
	w.deliver(snap)

	unsub, err := w.notifier.Subscribe(w.code, func() { w.schedule(ctx) })
	if err != nil {
		return err
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		unsub()
		return nil
	}
	w.unsubscribe = unsub
	w.mu.Unlock()
	return nil
}

// schedule arms the trailing-edge timer, cancelling and rescheduling
// on every trigger inside the window so a burst collapses into a
// single refetch after the quiet period.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.refetch(ctx) })
}

func (w *Watcher) refetch(ctx context.Context) {
	snap, err := w.fetcher.GetRoomState(ctx, w.code)
	if err != nil {
		log.Printf("room-watcher: refetch %s failed: %v", w.code, err)
		return
	}
	w.deliver(snap)
}

func (w *Watcher) deliver(snap *model.RoomSnapshot) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	kick := w.participant != "" && !w.kicked && !snap.HasParticipant(w.participant)
	if kick {
		w.kicked = true
	}
	onUpdate, onKicked := w.OnUpdate, w.OnKicked
	w.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snap)
	}
	if kick && onKicked != nil {
		onKicked()
	}
}

// Close stops the timer and unsubscribes.  Safe to call more than
// once.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	unsub := w.unsubscribe
	w.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
