package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Collections bundles every id-keyed collection in the dataset.
type Collections struct {
	Articles []Article     `json:"articles"`
	Videos   []VideoPost   `json:"videos"`
	Ads      []AdConfig    `json:"ads"`
	Users    []UserProfile `json:"users"`
	Messages []Message     `json:"messages"`
}

// Snapshot is the versioned envelope published to the remote content store
// and shipped back as the bundled "last known good" dataset on deploy.
//
// Generation is a monotonically increasing marker: every publish mints a
// value strictly greater than any previously published one. Credentials are
// never part of the snapshot; the publisher reads them from its own
// configuration.
type Snapshot struct {
	Generation  int64         `json:"generation"`
	PublishedAt time.Time     `json:"published_at"`
	Collections Collections   `json:"collections"`
	Ticker      TickerConfig  `json:"ticker"`
	Files       []VirtualFile `json:"files,omitempty"`
}

// NextGeneration returns a marker strictly greater than prev. Wall-clock
// milliseconds are used when they are ahead, so markers from independent
// writers stay roughly comparable; a clock stuck behind prev still advances
// by one.
func NextGeneration(prev int64) int64 {
	now := time.Now().UnixMilli()
	if now > prev {
		return now
	}
	return prev + 1
}

// EncodeSnapshot serializes a snapshot to its canonical JSON form.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot from its JSON form.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &s, nil
}
