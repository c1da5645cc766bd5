package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"royalties/internal/ingest"
	"royalties/internal/storage"
)

var dryRun bool

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import JSON exports into SQLite",
	Long: `Import one or more exports. Each file is an object with users, companies,
tracks and logSheets arrays; missing arrays are skipped.

Examples:
  royalties-import import export.json
  royalties-import import --db ./data/royalties.db weekly.json.zst
  royalties-import import --dry-run export.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and count records without writing")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	bundles := make([]ingest.Bundle, 0, len(args))
	for _, path := range args {
		data, err := ingest.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		b, err := ingest.NewNormalizer().Bundle(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		logger.Info("Parsed export",
			"file", path,
			"users", len(b.Users),
			"companies", len(b.Companies),
			"tracks", len(b.Tracks),
			"log_sheets", len(b.LogSheets))
		bundles = append(bundles, b)
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "parsed %d file(s), nothing written\n", len(bundles))
		return nil
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	for i, b := range bundles {
		stats, err := repo.Import(ctx, b)
		if err != nil {
			return fmt.Errorf("import %s: %w", args[i], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[i], stats)
	}
	return nil
}
