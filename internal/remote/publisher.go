package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/subhan7575/rozanews-sub000/internal/model"
	"github.com/subhan7575/rozanews-sub000/internal/store"
)

// Publisher serializes the full dataset and commits it to the remote
// content store.
//
// Target resolution probes a small ordered list of candidate paths; the
// first one that exists on the remote wins, and its revision id gates the
// conditional write. When no candidate exists the primary path is created
// without a revision id. There is no retry loop: a failed publish leaves
// local data intact and the next debounce cycle attempts a fresh GET/PUT.
type Publisher struct {
	client *Client
	store  *store.Store
	paths  []string // candidate target paths, primary first
	logger *log.Logger
}

// NewPublisher creates a Publisher. paths must contain at least one
// candidate; a nil logger defaults to stderr.
func NewPublisher(client *Client, s *store.Store, paths []string, logger *log.Logger) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if s == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one target path is required")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[publisher] ", log.LstdFlags)
	}
	return &Publisher{client: client, store: s, paths: paths, logger: logger}, nil
}

// Publish mints a fresh generation marker, serializes snap, and commits it
// to the resolved remote path with an optimistic-concurrency write. On
// success the minted generation is persisted locally.
func (p *Publisher) Publish(ctx context.Context, snap *model.Snapshot) error {
	prev := snap.Generation
	if local := p.store.Generation(); local > prev {
		prev = local
	}
	snap.Generation = model.NextGeneration(prev)
	if snap.PublishedAt.IsZero() {
		snap.PublishedAt = time.Now().UTC()
	}

	payload, err := model.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	path, sha, err := p.resolveTarget(ctx)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("content sync: generation %d", snap.Generation)
	newSHA, err := p.client.PutFile(ctx, path, message, payload, sha)
	if err != nil {
		return fmt.Errorf("failed to publish snapshot to %s: %w", path, err)
	}

	if err := p.store.SetGeneration(snap.Generation); err != nil {
		p.logger.Printf("Warning: published generation %d but failed to persist it locally: %v", snap.Generation, err)
	}

	p.logger.Printf("Published generation %d to %s (revision %s)", snap.Generation, path, newSHA)
	return nil
}

// resolveTarget probes the candidate paths in order. The first existing one
// is authoritative and its revision id is returned; if none exist, the
// primary path is targeted for creation with no revision id.
func (p *Publisher) resolveTarget(ctx context.Context) (string, string, error) {
	for _, path := range p.paths {
		info, err := p.client.GetFile(ctx, path)
		if err == nil {
			return path, info.SHA, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return "", "", fmt.Errorf("failed to resolve target path: %w", err)
	}
	return p.paths[0], "", nil
}
