package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/subhan7575/rozanews-sub000/internal/bootstrap"
	"github.com/subhan7575/rozanews-sub000/internal/config"
	"github.com/subhan7575/rozanews-sub000/internal/live"
	"github.com/subhan7575/rozanews-sub000/internal/notify"
	"github.com/subhan7575/rozanews-sub000/internal/remote"
	"github.com/subhan7575/rozanews-sub000/internal/repo"
	"github.com/subhan7575/rozanews-sub000/internal/scheduler"
	"github.com/subhan7575/rozanews-sub000/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the content backend",
	Long: `Run the content backend:

  1. Opens the local store
  2. Merges the bundled snapshot if its generation is newer
  3. Starts the cross-process notifier and the live WebSocket hub
  4. Starts the debounced sync scheduler

Blocks until SIGINT or SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger := newLogger(cfg)

		s, err := store.Open(cfg.StorePath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()

		notifier := notify.New(s, cfg.DataDir, logger)
		if err := notifier.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting notifier: %v\n", err)
			os.Exit(1)
		}
		defer notifier.Stop()

		repos := repo.New(s, nil, notifier, logger)

		if err := bootstrap.Reconcile(repos, cfg.BundlePath, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error reconciling bundled snapshot: %v\n", err)
			os.Exit(1)
		}

		var sched *scheduler.Scheduler
		if cfg.Remote.BaseURL == "" {
			logger.Println("remote.base_url not configured, publishing disabled")
		} else {
			client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Branch, nil)
			publisher, err := remote.NewPublisher(client, s, cfg.Remote.Paths, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating publisher: %v\n", err)
				os.Exit(1)
			}

			sched, err = scheduler.New(repos, publisher, &scheduler.Config{
				Debounce: cfg.Debounce,
				Logger:   logger,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating scheduler: %v\n", err)
				os.Exit(1)
			}
			repos.SetTrigger(sched)

			if err := sched.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting scheduler: %v\n", err)
				os.Exit(1)
			}
			defer sched.Stop()
		}

		hub := live.NewServer(notifier.Subscribe(), &live.Config{
			Port:   cfg.LivePort,
			Logger: logger,
		})
		if err := hub.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting live hub: %v\n", err)
			os.Exit(1)
		}
		defer hub.Stop()

		logger.Printf("rozanews backend running (store=%s, generation=%d)", cfg.StorePath(), s.Generation())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logger.Println("Shutdown signal received")
	},
}

// newLogger builds the shared service logger, routing through a rotating
// file when log_file is configured.
func newLogger(cfg *config.Config) *log.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}
	return log.New(out, "[rozanews] ", log.LstdFlags)
}
