// Package notify propagates a "latest event" payload to other processes
// sharing the same data directory.
//
// Broadcast writes the JSON-encoded event to a dedicated store key and
// rewrites a sidecar latest-event.json file; other processes observe the
// file change through fsnotify and dispatch the event to their in-process
// subscribers. The originating process dispatches to its own subscribers
// directly and suppresses the echo of its own file write.
//
// Delivery is last-write-visible only: rapid consecutive broadcasts are not
// queued, so an observer that misses an intermediate event never sees it.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/subhan7575/rozanews-sub000/internal/model"
	"github.com/subhan7575/rozanews-sub000/internal/store"
)

// EventFile is the sidecar file name holding the latest broadcast payload.
const EventFile = "latest-event.json"

// Event is the broadcast payload. Origin identifies the emitting process so
// receivers can drop echoes of their own writes.
type Event struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"` // article, video, message
	RefID  string    `json:"ref_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin"`
}

// Notifier broadcasts events and watches for broadcasts from other
// processes. Start() must be called before external events are observed.
type Notifier struct {
	store  *store.Store
	path   string // sidecar event file
	origin string
	logger *log.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	mu       sync.Mutex
	subs     []chan Event
	lastSeen string
	running  bool
}

// New creates a Notifier writing its sidecar file into dir. A nil logger
// defaults to stderr.
func New(s *store.Store, dir string, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	return &Notifier{
		store:  s,
		path:   filepath.Join(dir, EventFile),
		origin: model.NewID(),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Broadcast publishes ev to the store key, the sidecar file, and all
// in-process subscribers. Missing ID/At/Origin fields are filled in. Only
// the latest broadcast is retained anywhere.
func (n *Notifier) Broadcast(ev Event) error {
	if ev.ID == "" {
		ev.ID = model.NewID()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	ev.Origin = n.origin

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.store.Set(store.KeyLastEvent, string(data)); err != nil {
		n.logger.Printf("Warning: failed to persist event: %v", err)
	}
	if err := n.writeEventFile(data); err != nil {
		n.logger.Printf("Warning: failed to write event file: %v", err)
	}

	n.mu.Lock()
	n.lastSeen = ev.ID
	n.mu.Unlock()

	n.dispatch(ev)
	return nil
}

// RecordCreated emits a creation event for a feed-type record. It satisfies
// the repository layer's event sink.
func (n *Notifier) RecordCreated(kind, id, title string) {
	if err := n.Broadcast(Event{Kind: kind, RefID: id, Title: title}); err != nil {
		n.logger.Printf("Warning: failed to broadcast %s creation: %v", kind, err)
	}
}

// Subscribe registers a channel receiving future events. The channel holds
// one event; when a subscriber lags, older events are replaced by newer
// ones rather than queued.
func (n *Notifier) Subscribe() <-chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()
	return ch
}

// Start begins watching the sidecar file's directory for broadcasts made by
// other processes.
func (n *Notifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return fmt.Errorf("notifier already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(n.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch event directory: %w", err)
	}

	n.watcher = watcher
	n.running = true
	n.wg.Add(1)
	go n.processEvents()

	return nil
}

// Stop stops watching and closes all subscriber channels.
func (n *Notifier) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	n.mu.Unlock()

	close(n.done)
	if err := n.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	n.wg.Wait()

	n.mu.Lock()
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
	n.mu.Unlock()

	return nil
}

// processEvents converts file change events on the sidecar into subscriber
// dispatches.
func (n *Notifier) processEvents() {
	defer n.wg.Done()

	for {
		select {
		case <-n.done:
			return

		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != EventFile {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			n.handleFileChange()

		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Printf("Watcher error: %v", err)
		}
	}
}

func (n *Notifier) handleFileChange() {
	data, err := os.ReadFile(n.path)
	if err != nil {
		// The file may be mid-rename; the follow-up event will catch it.
		return
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		n.logger.Printf("Warning: corrupt event file: %v", err)
		return
	}

	n.mu.Lock()
	if ev.Origin == n.origin || ev.ID == n.lastSeen {
		n.mu.Unlock()
		return
	}
	n.lastSeen = ev.ID
	n.mu.Unlock()

	n.dispatch(ev)
}

// dispatch delivers ev to every subscriber, replacing any undelivered
// previous event.
func (n *Notifier) dispatch(ev Event) {
	n.mu.Lock()
	subs := make([]chan Event, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// writeEventFile atomically replaces the sidecar file so watchers never
// observe a partial write.
func (n *Notifier) writeEventFile(data []byte) error {
	tmp := n.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, n.path)
}
