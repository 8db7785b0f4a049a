// Package playback steps through the frames of the current group.
package playback

import "time"

// FPS bounds and default.
const (
	MinFPS     = 1
	MaxFPS     = 60
	DefaultFPS = 12
)

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime clock.
type RealScheduler struct{}

// AfterFunc implements Scheduler with time.AfterFunc.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Sequencer tracks the current frame and drives playback ticks.
//
// It is not safe for concurrent use. Timer callbacks do not touch the
// sequencer directly: they call the owner's tick function with a token, and
// the owner calls Advance with that token while holding its own lock.
type Sequencer struct {
	frame   int
	playing bool
	engaged bool // animation mode: entered by play or stepping, left by stop
	fps     int

	sched  Scheduler
	timer  Timer
	gen    uint64
	onTick func(token uint64)
}

// New creates a stopped sequencer. onTick is invoked from the scheduler's
// goroutine each time a tick is due.
func New(sched Scheduler, fps int, onTick func(token uint64)) *Sequencer {
	if sched == nil {
		sched = RealScheduler{}
	}
	if fps == 0 {
		fps = DefaultFPS
	}
	return &Sequencer{fps: ClampFPS(fps), sched: sched, onTick: onTick}
}

// ClampFPS limits fps to [MinFPS, MaxFPS].
func ClampFPS(fps int) int {
	return max(MinFPS, min(MaxFPS, fps))
}

func (s *Sequencer) Frame() int   { return s.frame }
func (s *Sequencer) Playing() bool { return s.playing }
func (s *Sequencer) FPS() int      { return s.fps }

// AnimationMode reports whether only the current frame should be shown.
func (s *Sequencer) AnimationMode() bool { return s.engaged }

// Interval is the time between ticks at the current rate.
func (s *Sequencer) Interval() time.Duration {
	return time.Second / time.Duration(s.fps)
}

// Play starts playback over n frames, or pauses if already playing.
// It reports whether playback is running afterwards.
func (s *Sequencer) Play(n int) bool {
	if s.playing {
		s.Pause()
		return false
	}
	if n <= 1 {
		return false
	}
	s.frame = wrap(s.frame, n)
	s.playing = true
	s.engaged = true
	s.schedule()
	return true
}

// Pause stops ticking and keeps the current frame.
func (s *Sequencer) Pause() {
	s.playing = false
	s.cancel()
}

// Stop pauses, leaves animation mode and rewinds to the first frame.
func (s *Sequencer) Stop() {
	s.Pause()
	s.engaged = false
	s.frame = 0
}

// Reset is Stop under the name used when the current group changes.
func (s *Sequencer) Reset() { s.Stop() }

// Next steps forward one frame with wraparound. No-op for n <= 1.
func (s *Sequencer) Next(n int) bool {
	if n <= 1 {
		return false
	}
	s.engaged = true
	s.frame = (wrap(s.frame, n) + 1) % n
	return true
}

// Prev steps back one frame with wraparound. No-op for n <= 1.
func (s *Sequencer) Prev(n int) bool {
	if n <= 1 {
		return false
	}
	s.engaged = true
	s.frame = (wrap(s.frame, n) - 1 + n) % n
	return true
}

// SetFPS changes the rate, restarting the tick when playing.
func (s *Sequencer) SetFPS(fps int) {
	s.fps = ClampFPS(fps)
	if s.playing {
		s.cancel()
		s.schedule()
	}
}

// Clamp keeps the frame valid after the frame count changed to n. Playback
// stops when fewer than two frames remain.
func (s *Sequencer) Clamp(n int) {
	if n <= 0 {
		s.frame = 0
	} else if s.frame >= n {
		s.frame = n - 1
	}
	if s.playing && n <= 1 {
		s.Pause()
	}
}

// Advance handles a tick delivered with token. Stale tokens from cancelled
// timers are ignored. It reports whether the frame changed.
func (s *Sequencer) Advance(token uint64, n int) bool {
	if !s.playing || token != s.gen {
		return false
	}
	s.timer = nil
	if n <= 1 {
		s.Pause()
		return false
	}
	s.frame = (wrap(s.frame, n) + 1) % n
	s.schedule()
	return true
}

func (s *Sequencer) schedule() {
	token := s.gen
	s.timer = s.sched.AfterFunc(s.Interval(), func() {
		if s.onTick != nil {
			s.onTick(token)
		}
	})
}

func (s *Sequencer) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func wrap(frame, n int) int {
	if frame < 0 || frame >= n {
		return 0
	}
	return frame
}
