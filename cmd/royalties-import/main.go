// Command royalties-import loads upstream JSON exports into the SQLite store
// and writes the store back out in the same format.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"royalties/internal/cli"
	"royalties/internal/config"
)

var (
	dbPath   string
	logLevel string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "royalties-import",
	Short: "Move royalty data between JSON exports and SQLite",
	Long: `royalties-import normalizes exports of users, companies, works and log
sheets and upserts them into the SQLite database used by the dashboard.
Files ending in .zst are compressed with zstd.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = cli.SetupLogger(logLevel)
		if dbPath != "" {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dbPath = cfg.SQLiteDBPath
		return nil
	},
}

func init() {
	cli.LoadEnvFile()

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: SQLITE_DB_PATH or ./data/royalties.db)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "level", "l", "info", "log level: debug, info, warn, error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
