package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franz/cadenza/internal/meta"
	"github.com/franz/cadenza/internal/store"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage pinned sidebar shortcuts",
}

var pinListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show pinned shortcuts in sidebar order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			items, err := db.ListPinnedItems()
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Printf("%4d  %-8s  %s\n", item.ID, item.ItemType, item.DisplayName)
			}
			fmt.Printf("%d pinned\n", len(items))
			return nil
		})
	},
}

var pinAddCmd = &cobra.Command{
	Use:   "add <playlist|artist|genre> <value>",
	Short: "Pin a playlist id, artist name, or genre to the sidebar",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			item, err := buildPin(db, args[0], args[1])
			if err != nil {
				return err
			}
			if err := db.PinItem(item); err != nil {
				return err
			}
			fmt.Printf("Pinned %s %q at position %d\n", item.ItemType, item.DisplayName, item.SortPosition)
			return nil
		})
	},
}

var pinRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a pinned shortcut by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid pin id %q", args[0])
		}
		return withStore(func(db *store.Store) error {
			return db.UnpinItem(id)
		})
	},
}

func buildPin(db *store.Store, kind, value string) (*store.PinnedItem, error) {
	switch kind {
	case "playlist":
		p, err := db.GetPlaylist(value)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("no playlist with id %q", value)
		}
		return &store.PinnedItem{ItemType: store.PinPlaylist, PlaylistID: p.ID, DisplayName: p.Name}, nil
	case "artist":
		a, err := db.GetArtistByName(meta.NormalizeName(value))
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("no artist named %q", value)
		}
		return &store.PinnedItem{ItemType: store.PinArtist, ArtistID: &a.ID, DisplayName: a.Name}, nil
	case "genre":
		return &store.PinnedItem{ItemType: store.PinGenre, EntityValue: value, DisplayName: value}, nil
	default:
		return nil, fmt.Errorf("unknown pin kind %q, expected playlist, artist, or genre", kind)
	}
}

func init() {
	pinCmd.AddCommand(pinListCmd, pinAddCmd, pinRemoveCmd)
	rootCmd.AddCommand(pinCmd)
}
