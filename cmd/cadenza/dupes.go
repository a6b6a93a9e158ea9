package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/cadenza/internal/dupes"
	"github.com/franz/cadenza/internal/store"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Reconcile and report duplicate recordings",
	Long: `Dupes re-runs duplicate detection across the whole library and prints the
resulting groups: for each group the kept primary and the shadowed copies,
with codec and size details.`,
	RunE: runDupes,
}

func init() {
	rootCmd.AddCommand(dupesCmd)
}

func runDupes(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	db, err := openStore(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	detector := dupes.New(db, logger)
	result, err := detector.Reconcile(context.Background())
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	fmt.Printf("Tracks:     %d\n", result.Tracks)
	fmt.Printf("Groups:     %d\n", result.Groups)
	fmt.Printf("Duplicates: %d\n", result.Duplicates)

	if result.Duplicates == 0 {
		return nil
	}

	tracks, err := db.ListTracks()
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	byGroup := make(map[string][]store.Track)
	for _, t := range tracks {
		if t.DuplicateGroupID != "" {
			byGroup[t.DuplicateGroupID] = append(byGroup[t.DuplicateGroupID], t)
		}
	}

	var wasted int64
	fmt.Println()
	for _, group := range byGroup {
		for _, t := range group {
			marker := "  shadow "
			if !t.IsDuplicate {
				marker = "* primary"
			} else {
				wasted += t.SizeBytes
			}
			fmt.Printf("%s  %s - %s  [%s %s, %s]\n",
				marker, t.Artist, t.Title,
				t.Codec, bitrateLabel(&t), humanize.Bytes(uint64(t.SizeBytes)))
		}
		fmt.Println()
	}
	fmt.Printf("Reclaimable: %s across %d groups\n", humanize.Bytes(uint64(wasted)), result.Groups)
	return nil
}

func bitrateLabel(t *store.Track) string {
	if t.Lossless {
		return "lossless"
	}
	return fmt.Sprintf("%d kbps", t.BitrateKbps)
}
