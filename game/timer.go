package game

import (
	"context"
	"time"
)

// roundTimer drives one game: a countdown followed by the round itself. Its
// counters are only touched while the owning room's lock is held.
type roundTimer struct {
	cancel    context.CancelFunc
	done      chan struct{}
	countdown int
	remaining int
}

func (r *Room) startTimerLocked() {
	r.cancelTimerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	t := &roundTimer{
		cancel:    cancel,
		done:      make(chan struct{}),
		countdown: r.deps.settings.CountdownTicks,
		remaining: r.deps.settings.RoundTicks,
	}
	r.timer = t

	ticks, stop := r.deps.tickers.Create(r.deps.settings.TickInterval)
	go t.run(ctx, r, ticks, stop)
}

// cancelTimerLocked detaches and stops the current timer. A tick already waiting
// on the room lock sees it is no longer current and does nothing.
func (r *Room) cancelTimerLocked() {
	if r.timer == nil {
		return
	}
	r.timer.cancel()
	r.timer = nil
}

func (t *roundTimer) run(ctx context.Context, r *Room, ticks <-chan time.Time, stop func()) {
	defer close(t.done)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok || !r.tick(t) {
				return
			}
		}
	}
}

// tick advances the timer by one step and reports whether it should keep going.
func (r *Room) tick(t *roundTimer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != t {
		return false
	}

	if t.countdown > 0 {
		r.broadcastLocked(EventCountdown, Response{Status: true, Data: timeLeftData{TimeLeft: t.countdown}})
		t.countdown--
		return true
	}

	if r.winner == "" && t.remaining > 0 {
		r.broadcastLocked(EventTime, Response{Status: true, Data: timeLeftData{TimeLeft: t.remaining}})
		t.remaining--
		return true
	}

	ended := r.finishLocked()
	r.broadcastLocked(EventGameEnded, Response{Status: true, Data: ended})
	return false
}
