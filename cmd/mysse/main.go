// mysse is the command-line entry point for the semantic search engine:
// it serves the HTTP/JSON API, optionally preloading an index snapshot.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thewizster/mysse/internal/server"
	"github.com/thewizster/mysse/pkg/engine"
	"github.com/thewizster/mysse/pkg/powers"
)

var version = "dev"

var (
	configPath string
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "mysse",
	Short: "In-memory semantic search engine",
	Long:  "mysse is an in-memory semantic search engine with hybrid dense+keyword retrieval, served over a small HTTP/JSON API.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := server.DefaultConfig()
		if configPath != "" {
			loaded, err := server.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if addr != "" {
			cfg.Addr = addr
		}

		log := engine.NewStdLogger(cfg.Level())
		eng := engine.New(append(cfg.EngineOptions(), engine.WithLogger(log))...)

		if cfg.Hybrid.Enabled {
			if err := eng.Use(powers.NewHybridSearch(powers.HybridOptions{Alpha: cfg.Hybrid.Alpha})); err != nil {
				return err
			}
		}
		if cfg.Cache.Enabled {
			ttl := time.Duration(cfg.Cache.TTLMillis) * time.Millisecond
			if err := eng.Use(powers.NewQueryCache(cfg.Cache.MaxSize, ttl)); err != nil {
				return err
			}
		}

		snapshotPath, _ := cmd.Flags().GetString("load")
		if snapshotPath != "" {
			f, err := os.Open(snapshotPath)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if err := eng.Restore(context.Background(), f); err != nil {
				return err
			}
			log.Info("snapshot loaded", "path", snapshotPath, "size", eng.Size())
		}

		return server.New(eng, log).ListenAndServe(cfg.Addr)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mysse %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	serveCmd.Flags().String("load", "", "snapshot file to import on startup")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
