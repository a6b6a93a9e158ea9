package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/cadenza/internal/query"
	"github.com/franz/cadenza/internal/store"
)

var includeDupes bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every track in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueryService(func(svc *query.Service) error {
			tracks, err := svc.AllTracks()
			if err != nil {
				return err
			}
			printTracks(tracks)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search across track metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueryService(func(svc *query.Service) error {
			tracks, err := svc.Search(joinArgs(args))
			if err != nil {
				return err
			}
			printTracks(tracks)
			return nil
		})
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse <artist|album|genre|year> [value]",
	Short: "Enumerate a category, or list the tracks under one value",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueryService(func(svc *query.Service) error {
			if len(args) == 1 {
				values, err := svc.DistinctValues(args[0])
				if err != nil {
					return err
				}
				for _, v := range values {
					fmt.Println(v)
				}
				return nil
			}
			tracks, err := svc.TracksByFilter(args[0], args[1])
			if err != nil {
				return err
			}
			printTracks(tracks)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueryService(func(svc *query.Service) error {
			stats, err := svc.LibraryStats()
			if err != nil {
				return err
			}
			fmt.Printf("Tracks:     %d\n", stats.Tracks)
			fmt.Printf("Artists:    %d\n", stats.Artists)
			fmt.Printf("Albums:     %d\n", stats.Albums)
			fmt.Printf("Genres:     %d\n", stats.Genres)
			fmt.Printf("Playlists:  %d\n", stats.Playlists)
			fmt.Printf("Duplicates: %d\n", stats.Duplicates)
			fmt.Printf("Total size: %s\n", humanize.Bytes(uint64(stats.SizeBytes)))
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, searchCmd, browseCmd} {
		cmd.Flags().BoolVar(&includeDupes, "include-dupes", false, "do not hide tracks flagged as duplicates")
	}
	rootCmd.AddCommand(listCmd, searchCmd, browseCmd, statsCmd)
}

// withQueryService opens the store, builds a query service honoring the
// duplicate flag, and runs fn against it
func withQueryService(fn func(*query.Service) error) error {
	logger := newLogger()
	db, err := openStore(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := query.New(db, logger)
	svc.ExcludeDuplicates = !includeDupes
	return fn(svc)
}

func printTracks(tracks []store.Track) {
	for _, t := range tracks {
		fav := " "
		if t.Favorite {
			fav = "*"
		}
		fmt.Printf("%6d %s %-30.30s %-25.25s %-25.25s %s\n",
			t.ID, fav, t.Title, t.Artist, t.Album, formatDuration(t.DurationMs))
	}
	fmt.Printf("%d tracks\n", len(tracks))
}

func formatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}
