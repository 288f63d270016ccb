package session

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically runs a sweep function so idle players still receive
// their timeout summary without sending another command. The function itself
// lives with the session orchestrator, which serializes removal against
// in-flight commands; the sweeper only owns the ticker.
type Sweeper struct {
	interval time.Duration
	sweep    func(now time.Time) int
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper calling sweep every interval. sweep reports
// how many sessions it removed; it must not block for long.
func NewSweeper(interval time.Duration, sweep func(now time.Time) int) *Sweeper {
	return &Sweeper{
		interval: interval,
		sweep:    sweep,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (w *Sweeper) Start() {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count := w.sweep(time.Now()); count > 0 {
					log.Debug().Int("count", count).Msg("Swept expired sessions")
				}
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to finish.
func (w *Sweeper) Stop() {
	close(w.stop)
	<-w.done
}
