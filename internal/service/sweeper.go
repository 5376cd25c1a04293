package service

import (
	"context"
	"log"
	"time"
)

// SweepInactiveRooms deletes rooms idle for longer than maxIdle.
// Child rows (participants, stories, votes, history) cascade with the
// room.  It returns the number of rooms removed.
func (s *RoomService) SweepInactiveRooms(ctx context.Context, maxIdle time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-maxIdle).UnixMilli()
	return s.store.DeleteRoomsInactiveBefore(ctx, cutoff)
}

// RunSweeper periodically sweeps inactive rooms until the context is
// cancelled.  Sweep failures are logged and retried on the next tick.
func (s *RoomService) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepInactiveRooms(ctx, maxIdle)
			if err != nil {
				log.Printf("room-sweeper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("room-sweeper: removed %d inactive room(s)", n)
			}
		}
	}
}
