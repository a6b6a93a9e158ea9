package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/franz/cadenza/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database health",
	Long: `Doctor runs the SQLite integrity check, verifies the search index covers
every track, and lists the registered folders, flagging any whose path no
longer exists on disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(runDoctor)
	},
}

func runDoctor(db *store.Store) error {
	if err := db.CheckIntegrity(); err != nil {
		return err
	}
	fmt.Println("Integrity:    ok")

	var tracks, indexed int
	if err := db.DB().QueryRow("SELECT COUNT(*) FROM tracks").Scan(&tracks); err != nil {
		return err
	}
	if err := db.DB().QueryRow("SELECT COUNT(*) FROM track_search").Scan(&indexed); err != nil {
		return err
	}
	if tracks == indexed {
		fmt.Printf("Search index: ok (%d tracks)\n", tracks)
	} else {
		fmt.Printf("Search index: MISMATCH (%d tracks, %d indexed)\n", tracks, indexed)
	}

	folders, err := db.ListFolders()
	if err != nil {
		return err
	}
	fmt.Printf("Folders:      %d\n", len(folders))
	for _, f := range folders {
		status := ""
		if _, err := os.Stat(f.Path); err != nil {
			status = "  (missing on disk)"
		}
		fmt.Printf("  %-20s %5d tracks  %s%s\n", f.Name, f.TrackCount, f.Path, status)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
