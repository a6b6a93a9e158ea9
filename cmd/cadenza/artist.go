package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/franz/cadenza/internal/meta"
	"github.com/franz/cadenza/internal/store"
)

var (
	artistBio        string
	artistExternalID string
	artistGenres     []string
	artistWebsites   []string
	artistMembers    []string
)

var artistCmd = &cobra.Command{
	Use:   "artist <name>",
	Short: "Show an artist profile, optionally updating it first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(db *store.Store) error {
			a, err := db.GetArtistByName(meta.NormalizeName(args[0]))
			if err != nil {
				return err
			}
			if a == nil {
				return fmt.Errorf("no artist named %q", args[0])
			}

			if cmd.Flags().NFlag() > 0 {
				if !cmd.Flags().Changed("bio") {
					artistBio = a.Biography
				}
				if !cmd.Flags().Changed("external-id") {
					artistExternalID = a.ExternalID
				}
				if !cmd.Flags().Changed("genre") {
					artistGenres = a.Genres
				}
				if !cmd.Flags().Changed("website") {
					artistWebsites = a.Websites
				}
				if !cmd.Flags().Changed("member") {
					artistMembers = a.Members
				}
				if err := db.UpdateArtistProfile(a.ID, artistExternalID, artistBio,
					artistGenres, artistWebsites, artistMembers); err != nil {
					return err
				}
				a, err = db.GetArtistByName(a.NameNorm)
				if err != nil {
					return err
				}
			}

			printArtist(a)
			return nil
		})
	},
}

func printArtist(a *store.Artist) {
	fmt.Println(a.Name)
	fmt.Printf("  Tracks: %d   Albums: %d\n", a.TotalTracks, a.TotalAlbums)
	if len(a.Genres) > 0 {
		fmt.Printf("  Genres: %s\n", strings.Join(a.Genres, ", "))
	}
	if len(a.Members) > 0 {
		fmt.Printf("  Members: %s\n", strings.Join(a.Members, ", "))
	}
	if len(a.Websites) > 0 {
		for _, w := range a.Websites {
			fmt.Printf("  Web: %s\n", w)
		}
	}
	if a.Biography != "" {
		fmt.Printf("\n%s\n", a.Biography)
	}
}

func init() {
	artistCmd.Flags().StringVar(&artistBio, "bio", "", "set the artist biography")
	artistCmd.Flags().StringVar(&artistExternalID, "external-id", "", "set the external catalog id")
	artistCmd.Flags().StringSliceVar(&artistGenres, "genre", nil, "set artist genres (repeatable)")
	artistCmd.Flags().StringSliceVar(&artistWebsites, "website", nil, "set artist websites (repeatable)")
	artistCmd.Flags().StringSliceVar(&artistMembers, "member", nil, "set band members (repeatable)")
	rootCmd.AddCommand(artistCmd)
}
