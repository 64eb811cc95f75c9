// Package scheduler coalesces bursts of repository mutations into single
// outbound publishes.
//
// Mutations signal a dirty channel; one consumer goroutine re-arms a
// debounce timer on every signal and, once the window elapses uninterrupted,
// snapshots the repositories and hands the snapshot to the publisher in a
// fresh goroutine. Publishes may overlap: a mutation arriving while a
// publish is in flight arms a new window and triggers another publish when
// it elapses. Failures are logged and never retried — the next mutation
// naturally schedules a fresh attempt.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/subhan7575/rozanews-sub000/internal/model"
)

// Snapshotter assembles the full dataset for publishing.
type Snapshotter interface {
	Snapshot() *model.Snapshot
}

// Publisher commits a snapshot to the remote content store.
type Publisher interface {
	Publish(ctx context.Context, snap *model.Snapshot) error
}

// Config holds scheduler configuration.
type Config struct {
	// Debounce is how long mutations must stay quiet before a publish
	// fires. Every mutation restarts the window.
	Debounce time.Duration

	// Logger for scheduler activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 10 * time.Second,
		Logger:   log.New(os.Stderr, "[scheduler] ", log.LstdFlags),
	}
}

// Scheduler owns the debounce timer and the publish pipeline. Construct
// with New and inject into the repository layer as its dirty trigger.
type Scheduler struct {
	snap   Snapshotter
	pub    Publisher
	config *Config

	dirty chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler. config may be nil for defaults.
func New(snap Snapshotter, pub Publisher, config *Config) (*Scheduler, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshotter cannot be nil")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		snap:   snap,
		pub:    pub,
		config: config,
		dirty:  make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// MarkDirty requests a publish after the debounce window. Safe to call from
// any goroutine; bursts coalesce.
func (s *Scheduler) MarkDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Start launches the debounce loop. Returns an error if already running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true

	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop cancels the debounce loop and waits for in-flight publishes started
// by the loop to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// Flush snapshots and publishes immediately, bypassing the debounce window.
// Used by the one-shot publish command.
func (s *Scheduler) Flush(ctx context.Context) error {
	snap := s.snap.Snapshot()
	if err := s.pub.Publish(ctx, snap); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// run is the debounce loop: every dirty signal restarts the timer, and an
// uninterrupted window triggers exactly one publish.
func (s *Scheduler) run() {
	defer s.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-s.dirty:
			stopTimer()
			timer = time.NewTimer(s.config.Debounce)
			timerC = timer.C

		case <-timerC:
			timer = nil
			timerC = nil
			s.launchPublish()
		}
	}
}

// launchPublish takes the snapshot now and publishes in its own goroutine.
// The loop keeps running, so an overlapping window can start another
// publish before this one returns.
func (s *Scheduler) launchPublish() {
	snap := s.snap.Snapshot()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		start := time.Now()
		if err := s.pub.Publish(s.ctx, snap); err != nil {
			s.config.Logger.Printf("Publish failed: %v", err)
			return
		}
		s.config.Logger.Printf("Published snapshot in %v", time.Since(start).Round(time.Millisecond))
	}()
}
