// dexlens — self-hosted DEX token screener
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dexlens/dexlens/api"
	"github.com/dexlens/dexlens/internal/config"
	"github.com/dexlens/dexlens/internal/datasource"
	"github.com/dexlens/dexlens/internal/screener"
	"github.com/dexlens/dexlens/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dexlens",
	Short: "dexlens — live DEX token screener",
	Long: `dexlens polls a DEX token-rank feed and serves a live, filterable,
sortable token table with liquidity flags, holder concentration, and
deploy-age tracking.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		slog.SetDefault(config.SetupLogger(cfg.Logging))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dexlens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API server + poller) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screener: poll the rank feed and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := cfg.Overrides()
		if err != nil {
			return err
		}

		engine := screener.NewEngine(overrides)
		if cfg.Screener.TokenLinkBase != "" {
			engine.SetTokenLinkBase(cfg.Screener.TokenLinkBase)
		}

		var news *datasource.News
		if cfg.News.Enabled {
			news = datasource.NewNews(cfg.News.Feeds)
		}

		var archive *store.Archive
		if cfg.Archive.DSN != "" {
			archive, err = store.Open(cfg.Archive.DSN)
			if err != nil {
				return fmt.Errorf("open snapshot archive: %w", err)
			}
			defer archive.Close()
		}

		srv := api.NewServer(cfg, engine, news)

		poller, err := buildPoller(engine, srv, archive)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go poller.Run(ctx)

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		slog.Info("starting dexlens", "addr", addr, "feed", cfg.Source.RankURL)
		return srv.ListenAndServe(addr)
	},
}

// buildPoller wires the feed, enrichment, and reference price into a
// poller that feeds the engine, the archive, and WebSocket clients.
func buildPoller(engine *screener.Engine, srv *api.Server, archive *store.Archive) (*datasource.Poller, error) {
	feed, err := datasource.NewRankFeed(cfg.Source.RankURL, cfg.Source.Proxy)
	if err != nil {
		return nil, err
	}

	var enricher *datasource.HolderEnricher
	if cfg.Source.EnrichHolders && cfg.Source.ExplorerURL != "" {
		enricher, err = datasource.NewHolderEnricher(cfg.Source.ExplorerURL, cfg.Source.Proxy)
		if err != nil {
			return nil, err
		}
	}

	var ref *datasource.RefPrice
	if cfg.Source.RefPrice {
		ref = datasource.NewRefPrice()
	}

	return datasource.NewPoller(datasource.PollerOptions{
		Feed:       feed,
		Enricher:   enricher,
		RefPrice:   ref,
		Interval:   time.Duration(cfg.Source.RefreshInterval) * time.Second,
		MaxRetries: cfg.Source.MaxRetries,
		OnSnapshot: func(snap datasource.Snapshot) {
			engine.Replace(snap.Records, snap.FetchedAt, snap.RefPriceUSD)
			srv.NotifyRefresh(snap)
			if archive != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := archive.SaveSnapshot(ctx, snap); err != nil {
					slog.Error("archive snapshot failed", "err", err)
				}
			}
		},
		OnError: srv.NotifyLoadError,
	}), nil
}

// --- Snapshot Command (one-shot fetch, print to stdout) ---

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch the rank feed once and print the table",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := cfg.Overrides()
		if err != nil {
			return err
		}

		feed, err := datasource.NewRankFeed(cfg.Source.RankURL, cfg.Source.Proxy)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		records, err := feed.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch rank feed: %w", err)
		}

		engine := screener.NewEngine(overrides)
		engine.Replace(records, time.Now().UTC(), 0)
		view := engine.Table()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for i, col := range view.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, col.Label)
		}
		fmt.Fprintln(tw)
		for _, row := range view.Rows {
			for i, cell := range row.Cells {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, cell.Text)
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d tokens, fetched %s\n", view.Total, view.FetchedAt.Format(time.RFC3339))
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  dexlens — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Rank Feed:     %s\n", cfg.Source.RankURL)
		fmt.Printf("    Refresh:       %ds (max %d retries)\n", cfg.Source.RefreshInterval, cfg.Source.MaxRetries)
		fmt.Printf("    Enrichment:    %v\n", cfg.Source.EnrichHolders)
		fmt.Printf("    Ref Price:     %v\n", cfg.Source.RefPrice)
		fmt.Printf("    News:          %v\n", cfg.News.Enabled)
		archiveState := "disabled"
		if cfg.Archive.DSN != "" {
			archiveState = "enabled"
		}
		fmt.Printf("    Archive:       %s\n", archiveState)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)

		overrides, err := cfg.Overrides()
		if err != nil {
			return err
		}
		fmt.Printf("    Deploy fixes:  %d\n", len(overrides))
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
