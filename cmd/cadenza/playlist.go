package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/franz/cadenza/internal/playlist"
	"github.com/franz/cadenza/internal/smart"
	"github.com/franz/cadenza/internal/store"
)

var playlistCmd = &cobra.Command{
	Use:     "playlist",
	Aliases: []string{"pl"},
	Short:   "Manage playlists",
}

var playlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playlists",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(db *store.Store, svc *playlist.Service) error {
			for _, p := range svc.List() {
				editable := " "
				if p.IsUserEditable {
					editable = "e"
				}
				fmt.Printf("%-40s %-6s %s %s\n", p.ID, p.Type, editable, p.Name)
			}
			return nil
		})
	},
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a playlist's tracks (smart playlists are evaluated live)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(db *store.Store, svc *playlist.Service) error {
			p := svc.Get(args[0])
			if p == nil {
				return fmt.Errorf("no such playlist: %s", args[0])
			}
			fmt.Printf("%s (%s)\n", p.Name, p.Type)

			var tracks []store.Track
			var err error
			if p.Type == store.PlaylistSmart {
				criteria, perr := smart.Parse(p.SmartCriteria)
				if perr != nil {
					return perr
				}
				universe, uerr := db.ListTracks()
				if uerr != nil {
					return uerr
				}
				tracks = criteria.Evaluate(universe)
			} else {
				tracks, err = db.GetTracksByIDs(svc.TrackIDs(p.ID))
				if err != nil {
					return err
				}
			}
			printTracks(tracks)
			return nil
		})
	},
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(db *store.Store, svc *playlist.Service) error {
			p, err := svc.Create(args[0])
			if err != nil {
				return err
			}
			fmt.Println(p.ID)
			return nil
		})
	},
}

var playlistRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(db *store.Store, svc *playlist.Service) error {
			return svc.Rename(args[0], args[1])
		})
	},
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(db *store.Store, svc *playlist.Service) error {
			return svc.Delete(args[0])
		})
	},
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <id> <track-id>...",
	Short: "Add tracks to a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(db *store.Store, svc *playlist.Service) error {
			ids, err := parseTrackIDs(args[1:])
			if err != nil {
				return err
			}
			return svc.AddTracks(args[0], ids)
		})
	},
}

var playlistRemoveCmd = &cobra.Command{
	Use:   "remove <id> <track-id>...",
	Short: "Remove tracks from a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(db *store.Store, svc *playlist.Service) error {
			ids, err := parseTrackIDs(args[1:])
			if err != nil {
				return err
			}
			return svc.RemoveTracks(args[0], ids)
		})
	},
}

var favCmd = &cobra.Command{
	Use:   "fav <track-id>",
	Short: "Toggle a track's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		db, err := openStore(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid track id: %s", args[0])
		}
		t, err := db.GetTrackByID(id)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("no such track: %d", id)
		}
		return db.SetFavorite(id, !t.Favorite)
	},
}

var playCmd = &cobra.Command{
	Use:   "played <track-id>",
	Short: "Record a play of a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		db, err := openStore(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid track id: %s", args[0])
		}
		return db.RecordPlay(id, time.Now())
	},
}

func init() {
	playlistCmd.AddCommand(playlistListCmd, playlistShowCmd, playlistCreateCmd,
		playlistRenameCmd, playlistDeleteCmd, playlistAddCmd, playlistRemoveCmd)
	rootCmd.AddCommand(playlistCmd, favCmd, playCmd)
}

// withPlaylists opens the store, starts the playlist coordinator and runs fn
func withPlaylists(fn func(*store.Store, *playlist.Service) error) error {
	logger := newLogger()
	db, err := openStore(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := playlist.New(db, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(db, svc)
}

func parseTrackIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid track id: %s", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
