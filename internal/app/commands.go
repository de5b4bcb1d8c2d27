package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZhanYiHui06/EveryPaste/internal/assets"
	"github.com/ZhanYiHui06/EveryPaste/internal/clipboard"
	"github.com/ZhanYiHui06/EveryPaste/internal/config"
	"github.com/ZhanYiHui06/EveryPaste/internal/database"
	"github.com/ZhanYiHui06/EveryPaste/internal/logging"
)

// Build-time variables (set via -ldflags).
var (
	Version = "0.0.0-dev"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// Execute runs the everypaste command tree.
func Execute() error {
	root := &cobra.Command{
		Use:           "everypaste",
		Short:         "Clipboard history daemon",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.ParseFormat(flagLogFormat), logging.ParseLevel(flagLogLevel))
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "auto", "log format (auto, text, json)")

	root.AddCommand(
		watchCommand(),
		listCommand(),
		searchCommand(),
		pinCommand(true),
		pinCommand(false),
		deleteCommand(),
		clearCommand(),
		countCommand(),
		pasteCommand(),
		limitCommand(),
	)

	return root.Execute()
}

func loadConfig() (*config.Config, string, error) {
	path := flagConfig
	if path == "" {
		dir, err := DataDir(nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve data directory: %w", err)
		}
		path = filepath.Join(dir, "config.json")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func openRepository(cfg *config.Config) (*database.Repository, string, error) {
	dataDir, err := DataDir(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	repo, err := database.NewRepository(filepath.Join(dataDir, "data.db"))
	if err != nil {
		return nil, "", err
	}
	return repo, dataDir, nil
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the clipboard capture daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(cfgPath); os.IsNotExist(statErr) {
				if err := cfg.Save(cfgPath); err != nil {
					slog.Warn("failed to write default config", "err", err)
				}
			}

			repo, dataDir, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			assetStore, err := assets.NewStore(dataDir)
			if err != nil {
				return err
			}

			svc := NewService(cfg, repo, assetStore, clipboard.NewSystemDevice(), LogNotifier{})
			svc.Start()
			defer svc.Stop()

			slog.Info("everypaste running", "version", Version, "data_dir", dataDir)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			slog.Info("shutting down")
			return nil
		},
	}
}

func listCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clipboard history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			repo, _, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			items, err := repo.RecentItems(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printItems(items)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 = all)")
	return cmd
}

func searchCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search clipboard history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			repo, _, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			items, err := repo.SearchItems(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printItems(items)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 = all)")
	return cmd
}

func pinCommand(pin bool) *cobra.Command {
	use, short := "pin <id>", "Pin a history record so eviction never removes it"
	if !pin {
		use, short = "unpin <id>", "Unpin a history record"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			repo, _, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			return repo.SetPinned(cmd.Context(), id, pin)
		},
	}
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a history record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			repo, _, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			deleted, err := repo.DeleteItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no record with id %d", id)
			}
			fmt.Printf("deleted %d\n", id)
			return nil
		},
	}
}

func clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history records, pinned ones included",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			repo, _, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			return repo.ClearAllItems(cmd.Context())
		},
	}
}

func countCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			repo, _, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := repo.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
}

func pasteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "paste <id>",
		Short: "Copy a history record back to the system clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			repo, dataDir, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			assetStore, err := assets.NewStore(dataDir)
			if err != nil {
				return err
			}

			svc := NewService(cfg, repo, assetStore, clipboard.NewSystemDevice(), LogNotifier{})
			return svc.PasteItem(cmd.Context(), id)
		},
	}
}

func limitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "limit <n>",
		Short: "Set the storage limit and evict records past it (0 or less = unlimited)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid limit %q", args[0])
			}
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			repo, dataDir, err := openRepository(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			assetStore, err := assets.NewStore(dataDir)
			if err != nil {
				return err
			}

			svc := NewService(cfg, repo, assetStore, clipboard.NewSystemDevice(), LogNotifier{})
			return svc.SetStorageLimit(cmd.Context(), limit, cfgPath)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printItems(items []*database.HistoryItem) {
	for _, it := range items {
		marker := " "
		if it.Pinned {
			marker = "*"
		}
		fmt.Printf("%s %4d  %-9s  %s  %s\n",
			marker, it.ID, it.ContentType,
			it.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			it.Preview)
	}
}
