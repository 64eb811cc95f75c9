package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/subhan7575/rozanews-sub000/internal/model"
)

// stubSnapshotter returns a fixed snapshot and counts calls.
type stubSnapshotter struct {
	mu    sync.Mutex
	calls int
}

func (s *stubSnapshotter) Snapshot() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &model.Snapshot{Generation: int64(s.calls)}
}

// stubPublisher records publish invocations.
type stubPublisher struct {
	mu    sync.Mutex
	times []time.Time
	err   error
}

func (p *stubPublisher) Publish(ctx context.Context, snap *model.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.times = append(p.times, time.Now())
	return p.err
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.times)
}

func quietConfig(debounce time.Duration) *Config {
	return &Config{
		Debounce: debounce,
		Logger:   log.New(io.Discard, "", 0),
	}
}

func TestNew(t *testing.T) {
	snap := &stubSnapshotter{}
	pub := &stubPublisher{}

	tests := []struct {
		name    string
		snap    Snapshotter
		pub     Publisher
		wantErr bool
	}{
		{"valid", snap, pub, false},
		{"nil snapshotter", nil, pub, true},
		{"nil publisher", snap, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.snap, tt.pub, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	snap := &stubSnapshotter{}
	pub := &stubPublisher{}

	sched, err := New(snap, pub, quietConfig(80*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	// A burst of mutations well inside one debounce window.
	for i := 0; i < 10; i++ {
		sched.MarkDirty()
		time.Sleep(5 * time.Millisecond)
	}

	// Half a window later nothing should have fired yet.
	time.Sleep(20 * time.Millisecond)
	if got := pub.count(); got != 0 {
		t.Fatalf("publish fired inside debounce window (%d times)", got)
	}

	// After the window elapses from the last mutation, exactly one publish.
	deadline := time.After(2 * time.Second)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("publish never fired after debounce window")
		case <-time.After(10 * time.Millisecond):
		}
	}

	time.Sleep(200 * time.Millisecond)
	if got := pub.count(); got != 1 {
		t.Errorf("burst produced %d publishes, want exactly 1", got)
	}
}

func TestMutationAfterPublishTriggersAnother(t *testing.T) {
	snap := &stubSnapshotter{}
	pub := &stubPublisher{}

	sched, err := New(snap, pub, quietConfig(40*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	sched.MarkDirty()
	waitForCount(t, pub, 1)

	sched.MarkDirty()
	waitForCount(t, pub, 2)
}

func waitForCount(t *testing.T, pub *stubPublisher, want int) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for pub.count() < want {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d publishes (got %d)", want, pub.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPublishFailureIsNotRetried(t *testing.T) {
	snap := &stubSnapshotter{}
	pub := &stubPublisher{err: errors.New("remote revision mismatch")}

	sched, err := New(snap, pub, quietConfig(30*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	sched.MarkDirty()
	waitForCount(t, pub, 1)

	// No retry or backoff: the count stays where it is.
	time.Sleep(150 * time.Millisecond)
	if got := pub.count(); got != 1 {
		t.Errorf("failed publish was retried (%d attempts)", got)
	}

	// The next mutation schedules a fresh attempt.
	sched.MarkDirty()
	waitForCount(t, pub, 2)
}

func TestFlushPublishesImmediately(t *testing.T) {
	snap := &stubSnapshotter{}
	pub := &stubPublisher{}

	sched, err := New(snap, pub, quietConfig(10*time.Second))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := sched.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := pub.count(); got != 1 {
		t.Errorf("Flush produced %d publishes, want 1", got)
	}
}

func TestFlushSurfacesPublishError(t *testing.T) {
	snap := &stubSnapshotter{}
	pub := &stubPublisher{err: errors.New("credential rejected")}

	sched, err := New(snap, pub, quietConfig(time.Second))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := sched.Flush(context.Background()); err == nil {
		t.Error("Flush swallowed the publish error")
	}
}

func TestStartTwice(t *testing.T) {
	sched, err := New(&stubSnapshotter{}, &stubPublisher{}, quietConfig(time.Second))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	if err := sched.Start(); err == nil {
		t.Error("second Start did not fail")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sched, err := New(&stubSnapshotter{}, &stubPublisher{}, quietConfig(time.Second))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sched.Stop()
	sched.Stop()
}
