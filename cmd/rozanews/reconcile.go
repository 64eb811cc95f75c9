package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/subhan7575/rozanews-sub000/internal/bootstrap"
	"github.com/subhan7575/rozanews-sub000/internal/config"
	"github.com/subhan7575/rozanews-sub000/internal/repo"
	"github.com/subhan7575/rozanews-sub000/internal/store"
	"github.com/subhan7575/rozanews-sub000/internal/ui"
)

var reconcileBundle string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge a bundled snapshot into the local store",
	Long: `Merge a published snapshot into the local store when its generation
marker is newer than the local one. Collections are unioned by id with the
bundled value winning on conflicts; the ticker is overwritten wholesale.

This normally runs automatically at serve startup.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		bundle := cfg.BundlePath
		if reconcileBundle != "" {
			bundle = reconcileBundle
		}

		s, err := store.Open(cfg.StorePath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()

		repos := repo.New(s, nil, nil, nil)

		before := s.Generation()
		if err := bootstrap.Reconcile(repos, bundle, nil); err != nil {
			fmt.Printf("%s Reconciliation failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}
		after := s.Generation()

		if after == before {
			fmt.Printf("%s Local generation %d already current\n", ui.RenderPass("✓"), before)
		} else {
			fmt.Printf("%s Merged bundle, generation %d -> %d\n", ui.RenderPass("✓"), before, after)
		}
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileBundle, "bundle", "", "bundled snapshot path (default from config)")
}
