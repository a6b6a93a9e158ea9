package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/cadenza/internal/dupes"
	"github.com/franz/cadenza/internal/ingest"
	"github.com/franz/cadenza/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Ingest a music folder into the library",
	Long: `Scan walks a folder for audio files, extracts their metadata, and ingests
them into the library database. Files already in the library are skipped
unless they changed on disk. Duplicate groups are reconciled afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntP("concurrency", "c", 4, "extraction workers")
	viper.BindPFlag("concurrency", scanCmd.Flags().Lookup("concurrency"))
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	folder := args[0]

	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", folder)
	}
	folder, err = filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("failed to resolve folder: %w", err)
	}

	logger := newLogger()
	db, err := openStore(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	folderID, err := db.UpsertFolder(filepath.Base(folder), folder)
	if err != nil {
		return fmt.Errorf("failed to register folder: %w", err)
	}

	// Discovery
	bar := discoveryBar()
	var paths []string
	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("walk error, skipping")
			return nil
		}
		if d.IsDir() || !ingest.IsAudioPath(path) {
			return nil
		}
		paths = append(paths, path)
		bar.Add(1)
		return nil
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	logger.WithField("files", len(paths)).Info("discovery complete")

	// Ingestion
	pipeline := ingest.New(&ingest.Config{
		Store:       db,
		Detector:    dupes.New(db, logger),
		Logger:      logger,
		Concurrency: viper.GetInt("concurrency"),
	})

	start := time.Now()
	result, err := pipeline.ProcessBatch(ctx, folderID, paths)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	logger.Infof("scan complete in %v", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Scanned:    %d\n", result.Scanned)
	fmt.Printf("  Added:      %d\n", result.Added)
	fmt.Printf("  Updated:    %d\n", result.Updated)
	fmt.Printf("  Skipped:    %d\n", result.Skipped)
	fmt.Printf("  Duplicates: %d\n", result.Duplicates)
	return nil
}

// discoveryBar builds a spinner for file discovery, silenced when stdout is
// not a terminal
func discoveryBar() *progressbar.ProgressBar {
	if !util.IsTerminal(os.Stdout.Fd()) {
		return progressbar.DefaultSilent(-1)
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("discovering audio files"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(util.GetTerminalWidth()/3),
		progressbar.OptionClearOnFinish(),
	)
}
