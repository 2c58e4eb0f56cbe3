package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDelay is the fixed delay between a result that asks for more and
// the follow-up fetch.
const DefaultDelay = 5 * time.Second

// State is the poller's position in its fetch cycle.
type State int

const (
	Idle State = iota
	Fetching
	Scheduled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Scheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// Outcome is what a Job reports back.
type Outcome struct {
	// Commit applies the result. It runs under the poller lock and only when
	// the fetch has not been superseded.
	Commit func()
	// Again schedules a follow-up fetch after the poller delay.
	Again bool
	// After runs once the result has been committed, without any poller lock
	// held.
	After func()
}

// Job performs one fetch. It must read its parameters when called, not when
// the poller was created, so a scheduled fetch always sees live inputs.
type Job func(ctx context.Context) Outcome

// Poller runs a Job, optionally re-running it after a fixed delay.
//
// Every Start or Stop bumps a generation counter, stops the pending timer and
// cancels the in-flight request. A result whose generation is no longer
// current is discarded. At most one timer is pending and at most one fetch is
// in flight.
type Poller struct {
	name  string
	job   Job
	delay time.Duration
	clock Clock
	log   *slog.Logger
	base  context.Context

	mu      sync.Mutex
	idle    *sync.Cond
	gen     uint64
	state   State
	timer   Timer
	cancel  context.CancelFunc
	running int
	closed  bool
}

// Option customises a Poller.
type Option func(*Poller)

// WithDelay sets the follow-up delay.
func WithDelay(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.delay = d
		}
	}
}

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger used for scheduling decisions.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// WithContext sets the parent of every request context.
func WithContext(ctx context.Context) Option {
	return func(p *Poller) {
		if ctx != nil {
			p.base = ctx
		}
	}
}

// New returns an idle poller.
func New(name string, job Job, opts ...Option) *Poller {
	p := &Poller{
		name:  name,
		job:   job,
		delay: DefaultDelay,
		clock: RealClock{},
		log:   slog.Default(),
		base:  context.Background(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.idle = sync.NewCond(&p.mu)
	p.log = p.log.With("poller", name)
	return p
}

// Name returns the poller name.
func (p *Poller) Name() string { return p.name }

// Start supersedes any pending or in-flight work and fetches immediately.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.resetLocked()
	p.launchLocked()
}

// Stop supersedes any pending or in-flight work and leaves the poller idle.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// Refresh fetches now unless a fetch is already in flight. A pending timer is
// replaced by the immediate fetch. Reports whether a fetch was launched.
func (p *Poller) Refresh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.state == Fetching {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.launchLocked()
	return true
}

// Close stops the poller for good and waits for an in-flight job to return.
// No Commit or After runs once Close has returned.
func (p *Poller) Close() {
	p.mu.Lock()
	p.resetLocked()
	p.closed = true
	for p.running > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Wait blocks until no job is running, including its After hook.
func (p *Poller) Wait() {
	p.mu.Lock()
	for p.running > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// State returns the current cycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Busy reports whether a job is still running.
func (p *Poller) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running > 0
}

// PendingTimers returns 1 while a follow-up fetch is scheduled, else 0.
func (p *Poller) PendingTimers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		return 1
	}
	return 0
}

func (p *Poller) resetLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = Idle
}

func (p *Poller) launchLocked() {
	gen := p.gen
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel
	p.state = Fetching
	p.running++
	go p.run(ctx, cancel, gen)
}

func (p *Poller) run(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer p.finish()
	defer cancel()

	out := p.job(ctx)

	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		p.log.Debug("discarding superseded result", "generation", gen)
		return
	}
	if out.Commit != nil {
		out.Commit()
	}
	p.cancel = nil
	if out.Again {
		p.state = Scheduled
		p.timer = p.clock.AfterFunc(p.delay, func() { p.fire(gen) })
		p.log.Debug("follow-up scheduled", "delay", p.delay)
	} else {
		p.state = Idle
	}
	p.mu.Unlock()

	if out.After != nil {
		out.After()
	}
}

func (p *Poller) fire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen || p.state != Scheduled {
		return
	}
	p.timer = nil
	p.launchLocked()
}

func (p *Poller) finish() {
	p.mu.Lock()
	p.running--
	if p.running == 0 {
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}
