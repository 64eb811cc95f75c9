// Package bootstrap merges a previously published snapshot back into the
// local store, once, at process start.
//
// The deploy pipeline ships the last published snapshot alongside the
// binary. When its generation marker is newer than the locally persisted
// one, every collection is replaced by the id-keyed union of bundled and
// local records, with the bundled value winning on conflicting ids. Records
// that exist only locally are kept. The bundled value replacing a locally
// different record is silent: there is no field-level conflict detection,
// which is a known data-loss risk accepted by this design.
package bootstrap

import (
	"fmt"
	"log"
	"os"

	"github.com/subhan7575/rozanews-sub000/internal/model"
	"github.com/subhan7575/rozanews-sub000/internal/repo"
)

// Reconcile runs the one-time startup merge against the bundled snapshot at
// bundlePath. A missing bundle or a bundle no newer than local state is a
// no-op. A nil logger defaults to stderr.
func Reconcile(repos *repo.Repositories, bundlePath string, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(os.Stderr, "[reconcile] ", log.LstdFlags)
	}

	data, err := os.ReadFile(bundlePath)
	if os.IsNotExist(err) {
		logger.Printf("No bundled snapshot at %s (skipping)", bundlePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read bundled snapshot: %w", err)
	}

	bundled, err := model.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("failed to parse bundled snapshot: %w", err)
	}

	local := repos.Store().Generation()
	if bundled.Generation <= local {
		logger.Printf("Bundled generation %d <= local %d, nothing to do", bundled.Generation, local)
		return nil
	}

	logger.Printf("Merging bundled generation %d over local %d", bundled.Generation, local)

	if err := repos.Articles.Replace(mergeByID(repos.Articles.List(), bundled.Collections.Articles,
		func(a *model.Article) string { return a.ID })); err != nil {
		return fmt.Errorf("failed to merge articles: %w", err)
	}
	if err := repos.Videos.Replace(mergeByID(repos.Videos.List(), bundled.Collections.Videos,
		func(v *model.VideoPost) string { return v.ID })); err != nil {
		return fmt.Errorf("failed to merge videos: %w", err)
	}
	if err := repos.Ads.Replace(mergeByID(repos.Ads.List(), bundled.Collections.Ads,
		func(a *model.AdConfig) string { return a.ID })); err != nil {
		return fmt.Errorf("failed to merge ads: %w", err)
	}
	if err := repos.Users.Replace(mergeByID(repos.Users.List(), bundled.Collections.Users,
		func(u *model.UserProfile) string { return u.ID })); err != nil {
		return fmt.Errorf("failed to merge users: %w", err)
	}
	if err := repos.Messages.Replace(mergeByID(repos.Messages.List(), bundled.Collections.Messages,
		func(m *model.Message) string { return m.ID })); err != nil {
		return fmt.Errorf("failed to merge messages: %w", err)
	}
	if err := repos.Files.Replace(mergeByID(repos.Files.List(), bundled.Files,
		func(f *model.VirtualFile) string { return f.Path })); err != nil {
		return fmt.Errorf("failed to merge files: %w", err)
	}

	// The ticker is a singleton, not id-keyed: overwritten wholesale.
	if err := repos.Ticker.Replace(bundled.Ticker); err != nil {
		return fmt.Errorf("failed to replace ticker: %w", err)
	}

	if err := repos.Store().SetGeneration(bundled.Generation); err != nil {
		return fmt.Errorf("failed to persist generation marker: %w", err)
	}

	logger.Printf("Reconciliation complete, local generation is now %d", bundled.Generation)
	return nil
}

// mergeByID computes the id-keyed union of local and bundled records.
// Bundled records come first in bundled order and win on conflicting ids;
// local-only records follow in local order.
func mergeByID[T any](local, bundled []T, id func(*T) string) []T {
	merged := make([]T, 0, len(bundled)+len(local))
	seen := make(map[string]struct{}, len(bundled))

	for i := range bundled {
		seen[id(&bundled[i])] = struct{}{}
		merged = append(merged, bundled[i])
	}
	for i := range local {
		if _, ok := seen[id(&local[i])]; !ok {
			merged = append(merged, local[i])
		}
	}
	return merged
}
