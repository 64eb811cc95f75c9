package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/subhan7575/rozanews-sub000/internal/config"
	"github.com/subhan7575/rozanews-sub000/internal/remote"
	"github.com/subhan7575/rozanews-sub000/internal/repo"
	"github.com/subhan7575/rozanews-sub000/internal/store"
	"github.com/subhan7575/rozanews-sub000/internal/ui"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the current dataset to the remote content store",
	Long: `Serialize every collection plus a freshly minted generation marker
into one snapshot and commit it to the remote content store with an
optimistic-concurrency write. No retry: rerun on failure.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cfg.Remote.BaseURL == "" {
			fmt.Fprintf(os.Stderr, "Error: remote.base_url is not configured\n")
			os.Exit(1)
		}

		s, err := store.Open(cfg.StorePath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()

		repos := repo.New(s, nil, nil, nil)

		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Branch, nil)
		publisher, err := remote.NewPublisher(client, s, cfg.Remote.Paths, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating publisher: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		snap := repos.Snapshot()
		start := time.Now()
		if err := publisher.Publish(ctx, snap); err != nil {
			fmt.Printf("%s Publish failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}

		fmt.Printf("%s Published generation %s in %v\n",
			ui.RenderPass("✓"),
			ui.RenderAccent(fmt.Sprintf("%d", snap.Generation)),
			time.Since(start).Round(time.Millisecond))
	},
}
