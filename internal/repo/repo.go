// Package repo provides typed collection access over the local store.
//
// Each collection is persisted as one JSON array under a single store key.
// Every mutation rewrites the complete array, so concurrency within one
// process is last-write-wins by construction. Mutations mark the sync
// scheduler dirty; creations of feed-type records (articles, videos,
// messages) additionally notify the event sink so other processes can react
// live.
package repo

import (
	"encoding/json"
	"log"
	"os"

	"github.com/subhan7575/rozanews-sub000/internal/model"
	"github.com/subhan7575/rozanews-sub000/internal/store"
)

// Position controls where a novel record is inserted in its collection.
type Position int

const (
	// Front puts new records first. Used for content feeds, where newest
	// entries surface at the top.
	Front Position = iota
	// Back appends new records. Used for config tables with no temporal
	// meaning.
	Back
)

// Trigger is notified after every mutating call so the sync scheduler can
// debounce an outbound publish.
type Trigger interface {
	MarkDirty()
}

// EventSink receives creation notifications for feed-type records.
type EventSink interface {
	RecordCreated(kind, id, title string)
}

// Collection provides CRUD over one entity kind stored as a JSON array.
type Collection[T any] struct {
	store  *store.Store
	key    string
	id     func(*T) string
	pos    Position
	logger *log.Logger

	onChange func()
	onCreate func(*T)
}

// NewCollection builds a collection over the given store key. id extracts
// the unique key of a record.
func NewCollection[T any](s *store.Store, key string, id func(*T) string, pos Position, logger *log.Logger) *Collection[T] {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Collection[T]{store: s, key: key, id: id, pos: pos, logger: logger}
}

// List returns the full collection in stored order. Storage failures are
// logged and yield an empty list; the store is best-effort by design.
func (c *Collection[T]) List() []T {
	raw, ok, err := c.store.Get(c.key)
	if err != nil {
		c.logger.Printf("Warning: failed to load %s: %v", c.key, err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logger.Printf("Warning: corrupt %s collection, starting empty: %v", c.key, err)
		return nil
	}
	return items
}

// Upsert inserts or replaces the record with item's id. An existing id is
// overwritten in place; a novel id is inserted at the collection's insert
// position. The entire array is written back synchronously.
func (c *Collection[T]) Upsert(item T) error {
	items := c.List()
	id := c.id(&item)

	found := false
	for i := range items {
		if c.id(&items[i]) == id {
			items[i] = item
			found = true
			break
		}
	}
	if !found {
		if c.pos == Front {
			items = append([]T{item}, items...)
		} else {
			items = append(items, item)
		}
	}

	err := c.save(items)
	if !found && c.onCreate != nil {
		c.onCreate(&item)
	}
	c.changed()
	return err
}

// Remove deletes the record with the given id. Returns true if a record was
// removed.
func (c *Collection[T]) Remove(id string) (bool, error) {
	items := c.List()
	for i := range items {
		if c.id(&items[i]) == id {
			items = append(items[:i], items[i+1:]...)
			err := c.save(items)
			c.changed()
			return true, err
		}
	}
	return false, nil
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(pred func(*T) bool) (T, bool) {
	items := c.List()
	for i := range items {
		if pred(&items[i]) {
			return items[i], true
		}
	}
	var zero T
	return zero, false
}

// Replace overwrites the entire collection. Used by the bootstrap
// reconciler; does not mark the scheduler dirty, since reconciliation must
// not republish what was just pulled.
func (c *Collection[T]) Replace(items []T) error {
	return c.save(items)
}

func (c *Collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Printf("Warning: failed to marshal %s: %v", c.key, err)
		return err
	}
	if err := c.store.Set(c.key, string(data)); err != nil {
		// Quota or disabled storage. The mutation is lost on restart but
		// callers keep going; the store is best-effort.
		c.logger.Printf("Warning: failed to persist %s: %v", c.key, err)
		return err
	}
	return nil
}

func (c *Collection[T]) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Singleton persists one record under one key, replaced wholesale.
type Singleton[T any] struct {
	store    *store.Store
	key      string
	logger   *log.Logger
	onChange func()
}

// NewSingleton builds a singleton record holder over the given store key.
func NewSingleton[T any](s *store.Store, key string, logger *log.Logger) *Singleton[T] {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Singleton[T]{store: s, key: key, logger: logger}
}

// Get returns the stored record, or false when never set.
func (s *Singleton[T]) Get() (T, bool) {
	var out T
	raw, ok, err := s.store.Get(s.key)
	if err != nil {
		s.logger.Printf("Warning: failed to load %s: %v", s.key, err)
		return out, false
	}
	if !ok || raw == "" {
		return out, false
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logger.Printf("Warning: corrupt %s record: %v", s.key, err)
		return out, false
	}
	return out, true
}

// Set replaces the stored record.
func (s *Singleton[T]) Set(v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Printf("Warning: failed to marshal %s: %v", s.key, err)
		return err
	}
	if err := s.store.Set(s.key, string(data)); err != nil {
		s.logger.Printf("Warning: failed to persist %s: %v", s.key, err)
		return err
	}
	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// Replace overwrites the stored record without signaling the sync
// scheduler. Used by the bootstrap reconciler.
func (s *Singleton[T]) Replace(v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Printf("Warning: failed to marshal %s: %v", s.key, err)
		return err
	}
	if err := s.store.Set(s.key, string(data)); err != nil {
		s.logger.Printf("Warning: failed to persist %s: %v", s.key, err)
		return err
	}
	return nil
}

// Repositories aggregates every collection over one store, wires mutation
// notifications, and assembles full-dataset snapshots.
type Repositories struct {
	store  *store.Store
	dirty  Trigger
	sink   EventSink
	logger *log.Logger

	Articles *Collection[model.Article]
	Videos   *Collection[model.VideoPost]
	Ads      *Collection[model.AdConfig]
	Users    *Collection[model.UserProfile]
	Messages *Collection[model.Message]
	Files    *Collection[model.VirtualFile]
	Ticker   *Singleton[model.TickerConfig]
}

// New builds the full repository set over s. dirty and sink may be nil; a
// nil logger defaults to stderr.
func New(s *store.Store, dirty Trigger, sink EventSink, logger *log.Logger) *Repositories {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	r := &Repositories{store: s, dirty: dirty, sink: sink, logger: logger}

	r.Articles = NewCollection(s, store.KeyArticles, func(a *model.Article) string { return a.ID }, Front, logger)
	r.Videos = NewCollection(s, store.KeyVideos, func(v *model.VideoPost) string { return v.ID }, Front, logger)
	r.Messages = NewCollection(s, store.KeyMessages, func(m *model.Message) string { return m.ID }, Front, logger)
	r.Ads = NewCollection(s, store.KeyAds, func(a *model.AdConfig) string { return a.ID }, Back, logger)
	r.Users = NewCollection(s, store.KeyUsers, func(u *model.UserProfile) string { return u.ID }, Back, logger)
	r.Files = NewCollection(s, store.KeyFiles, func(f *model.VirtualFile) string { return f.Path }, Back, logger)
	r.Ticker = NewSingleton[model.TickerConfig](s, store.KeyTicker, logger)

	r.Articles.onChange = r.markDirty
	r.Videos.onChange = r.markDirty
	r.Messages.onChange = r.markDirty
	r.Ads.onChange = r.markDirty
	r.Users.onChange = r.markDirty
	r.Files.onChange = r.markDirty
	r.Ticker.onChange = r.markDirty

	r.Articles.onCreate = func(a *model.Article) { r.recordCreated("article", a.ID, a.Title) }
	r.Videos.onCreate = func(v *model.VideoPost) { r.recordCreated("video", v.ID, v.Title) }
	r.Messages.onCreate = func(m *model.Message) { r.recordCreated("message", m.ID, m.Name) }

	return r
}

// SetTrigger installs the sync scheduler's dirty trigger. The scheduler is
// constructed after the repositories it snapshots, so the trigger arrives
// late.
func (r *Repositories) SetTrigger(t Trigger) {
	r.dirty = t
}

// Store returns the underlying local store.
func (r *Repositories) Store() *store.Store {
	return r.store
}

func (r *Repositories) markDirty() {
	if r.dirty != nil {
		r.dirty.MarkDirty()
	}
}

func (r *Repositories) recordCreated(kind, id, title string) {
	if r.sink != nil {
		r.sink.RecordCreated(kind, id, title)
	}
}

// Snapshot assembles the complete dataset from every collection plus the
// current generation marker.
func (r *Repositories) Snapshot() *model.Snapshot {
	ticker, _ := r.Ticker.Get()
	return &model.Snapshot{
		Generation: r.store.Generation(),
		Collections: model.Collections{
			Articles: r.Articles.List(),
			Videos:   r.Videos.List(),
			Ads:      r.Ads.List(),
			Users:    r.Users.List(),
			Messages: r.Messages.List(),
		},
		Ticker: ticker,
		Files:  r.Files.List(),
	}
}
