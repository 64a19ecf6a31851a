package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/segue/internal/adapters/csvfile"
	"github.com/ewilliams-labs/segue/internal/adapters/spotify"
	"github.com/ewilliams-labs/segue/internal/config"
	"github.com/ewilliams-labs/segue/internal/core/domain"
)

var (
	fetchArtists      []string
	fetchOut          string
	fetchClientID     string
	fetchClientSecret string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Build a catalog CSV from artists' top tracks",
	Long: `Fetch pulls the top tracks and audio features for each --artist from the
Spotify Web API and writes them as a catalog CSV that recommend, search,
evaluate, and import all accept. Tracks shared between artists are kept
once.

Credentials come from --client-id/--client-secret, the config file, or
SEGUE_SPOTIFY__CLIENT_ID and SEGUE_SPOTIFY__CLIENT_SECRET.

Examples:
  segue fetch --artist "Dream Theater" --artist Opeth --out prog.csv`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringArrayVar(&fetchArtists, "artist", nil, "artist name to fetch (repeatable)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "catalog.csv", "catalog CSV to write")
	fetchCmd.Flags().StringVar(&fetchClientID, "client-id", "", "Spotify client id")
	fetchCmd.Flags().StringVar(&fetchClientSecret, "client-secret", "", "Spotify client secret")
	_ = fetchCmd.MarkFlagRequired("artist")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	clientID, clientSecret := fetchClientID, fetchClientSecret
	if clientID == "" || clientSecret == "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if clientID == "" {
			clientID = cfg.Spotify.ClientID
		}
		if clientSecret == "" {
			clientSecret = cfg.Spotify.ClientSecret
		}
	}
	if clientID == "" || clientSecret == "" {
		return errors.New("spotify credentials are required; set --client-id/--client-secret or the SEGUE_SPOTIFY__* environment variables")
	}

	client := spotify.NewClient(
		spotify.Config{ClientID: clientID, ClientSecret: clientSecret},
		spotify.WithLogger(logger),
	)

	var tracks []domain.Track
	seen := make(map[string]struct{})
	for _, artist := range fetchArtists {
		fetched, err := client.FetchArtistTracks(ctx, artist)
		if err != nil {
			return err
		}
		kept := 0
		for _, t := range fetched {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			tracks = append(tracks, t)
			kept++
		}
		logger.Info().Str("artist", artist).Int("tracks", kept).Msg("fetched")
	}

	catalog, err := domain.NewCatalog(tracks)
	if err != nil {
		return err
	}

	f, err := os.Create(fetchOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", fetchOut, err)
	}
	if err := csvfile.WriteCatalog(f, catalog); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fetchOut, err)
	}

	logger.Info().Int("tracks", catalog.Len()).Str("path", fetchOut).Msg("catalog written")
	return nil
}
