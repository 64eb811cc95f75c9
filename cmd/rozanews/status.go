package main

import (
	"context"
	"errors"
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

var statusProbeRemote bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local dataset and remote target status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		s, err := store.Open(cfg.StorePath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()

		repos := repo.New(s, nil, nil, nil)

		fmt.Printf("Store:      %s\n", ui.RenderAccent(cfg.StorePath()))
		fmt.Printf("Generation: %s\n", ui.RenderAccent(fmt.Sprintf("%d", s.Generation())))
		fmt.Printf("Articles:   %d\n", len(repos.Articles.List()))
		fmt.Printf("Videos:     %d\n", len(repos.Videos.List()))
		fmt.Printf("Ads:        %d\n", len(repos.Ads.List()))
		fmt.Printf("Users:      %d\n", len(repos.Users.List()))
		fmt.Printf("Messages:   %d\n", len(repos.Messages.List()))
		fmt.Printf("Files:      %d\n", len(repos.Files.List()))

		if !statusProbeRemote {
			return
		}
		if cfg.Remote.BaseURL == "" {
			fmt.Printf("\nRemote:     %s\n", ui.RenderDim("not configured"))
			return
		}

		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Branch, nil)
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		fmt.Printf("\nRemote:     %s (branch %s)\n", cfg.Remote.BaseURL, cfg.Remote.Branch)
		for _, path := range cfg.Remote.Paths {
			info, err := client.GetFile(ctx, path)
			switch {
			case err == nil:
				fmt.Printf("  %s %s (revision %s)\n", ui.RenderPass("✓"), path, ui.RenderDim(info.SHA))
			case errors.Is(err, remote.ErrNotFound):
				fmt.Printf("  %s %s (absent)\n", ui.RenderDim("-"), path)
			default:
				fmt.Printf("  %s %s: %v\n", ui.RenderFail("✗"), path, err)
			}
		}
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusProbeRemote, "remote", false, "probe remote candidate paths")
}
