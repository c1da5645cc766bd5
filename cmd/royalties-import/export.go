package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"royalties/internal/ingest"
	"royalties/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the SQLite contents as a JSON export",
	Long: `Export users, works and log sheets in the format read by import. The
file is zstd-compressed when its name ends in .zst.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	b, err := repo.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	data, err := ingest.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := ingest.WriteFile(args[0], data); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}

	logger.Info("Export written",
		"file", args[0],
		"users", len(b.Users),
		"tracks", len(b.Tracks),
		"log_sheets", len(b.LogSheets))
	return nil
}
