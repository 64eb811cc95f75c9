// Command rozanews runs the content-management backend for the rozanews
// site: a local-first store of articles, videos, ads, users and messages,
// a debounced publisher that commits the full dataset to a remote content
// store, and a startup reconciler that merges the last published snapshot
// back in.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "rozanews",
	Short: "Content backend for the rozanews site",
	Long: `rozanews manages the site's content dataset.

All content lives in a local SQLite key/value store and is published as a
single versioned JSON snapshot to a remote content store. On startup the
bundled last-published snapshot is merged back into local state when its
generation marker is newer.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: ./rozanews.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reconcileCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
