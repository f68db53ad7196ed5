// Package debounce откладывает выполнение действия до окончания периода тишины.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Debouncer хранит одно отложенное действие. Новое Schedule отменяет предыдущее и
// перезапускает таймер, поэтому после серии вызовов выполняется только последнее действие.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	timer   *clock.Timer
	pending func()
	gen     uint64
	stopped bool
}

// Option настраивает Debouncer.
type Option func(*Debouncer)

// WithClock подменяет часы, по которым отсчитывается задержка.
func WithClock(c clock.Clock) Option {
	return func(d *Debouncer) {
		d.clock = c
	}
}

// New создаёт Debouncer с задержкой delay.
func New(delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		clock: clock.New(),
		delay: delay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schedule планирует fn через delay после последнего вызова. Ранее запланированное действие отбрасывается.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.stopTimerLocked()
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// Pending сообщает, ожидает ли действие выполнения.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush немедленно выполняет ожидающее действие в текущей горутине.
// Возвращает false, если выполнять было нечего.
func (d *Debouncer) Flush() bool {
	fn := d.take()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop отменяет ожидающее действие и запрещает планирование новых.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopTimerLocked()
	d.gen++
	d.pending = nil
	d.stopped = true
}

func (d *Debouncer) take() func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn := d.pending
	d.stopTimerLocked()
	d.gen++
	d.pending = nil
	return fn
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
