// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/georelay/georelay/revgeo"
	"github.com/georelay/georelay/utils/textutils"
)

var warmOptions = struct {
	Language            string
	UpstreamURL         string
	MinInterval         time.Duration
	MaxWait             time.Duration
	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
}{}

var warmCmd = &cobra.Command{
	Use:   "warm [file]",
	Short: "Pre-resolve a list of coordinates to prime the cache",
	Long: `Reads one "lat,lon" pair per line from a file or stdin and resolves each
through the regular pipeline: already-cached cells are skipped, missing cells
are fetched from the upstream at the configured pacing. Blank lines and lines
starting with # are ignored.

$ printf '52.516340,13.377616\n40.7484,-73.9857\n' | georelay warm
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		input := os.Stdin

		if len(args) == 1 {
			f, err := os.Open(args[0]) // #nosec G304 - filepath is provided by admin
			if err != nil {
				return fmt.Errorf("opening input file: %w", err)
			}
			defer f.Close()

			input = f
		} else if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter coordinates to resolve, one lat,lon per line…")
		}

		pairs, err := revgeo.ReadCoordinatePairs(input)
		if err != nil {
			return err
		}

		if len(pairs) == 0 {
			fmt.Println("Nothing to warm.")

			return nil
		}

		db, repo, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		geocoder := revgeo.NewNominatimGeocoder(&revgeo.NominatimOptions{
			BaseURL:             upstreamURL(warmOptions.UpstreamURL),
			UserAgent:           userAgent(),
			EnableHTTPTrace:     warmOptions.EnableHTTPTrace,
			EnableHTTPBodyTrace: warmOptions.EnableHTTPBodyTrace,
		})

		resolver := revgeo.NewResolver(
			repo,
			geocoder,
			revgeo.NewLimiter(),
			warmOptions.MinInterval,
			warmOptions.MaxWait,
		)

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(pairs),
				progressbar.OptionSetDescription("Warming cache"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		stats := resolver.Warm(context.Background(), pairs, warmOptions.Language,
			func(pair revgeo.CoordinatePair, _ *revgeo.ResolveResult, err error) {
				if err != nil {
					logger.WithError(err).WithField("line", pair.Line).Warn("warm-up resolution failed")
				}

				if bar == nil {
					log.Printf("Resolved %s", pair.Line)
				} else if err := bar.Add(1); err != nil {
					log.Printf("updating progress bar: %v", err)
				}
			})

		fmt.Printf("✅ Warmed %s cells: %s already cached, %s fetched, %s failed\n",
			textutils.FormatInt(int64(len(pairs))),
			textutils.FormatInt(int64(stats.Hits)),
			textutils.FormatInt(int64(stats.Fetched)),
			textutils.FormatInt(int64(stats.Failed)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(warmCmd)
	warmCmd.Flags().StringVar(
		&warmOptions.Language,
		"language",
		"en",
		"Language to resolve the addresses in (ISO 639-1)",
	)
	warmCmd.Flags().StringVar(
		&warmOptions.UpstreamURL,
		"upstream-url",
		"",
		"Upstream Nominatim base URL. Defaults to $GEORELAY_UPSTREAM_URL, then the public instance",
	)
	warmCmd.Flags().DurationVar(
		&warmOptions.MinInterval,
		"min-interval",
		time.Second,
		"Minimum spacing between upstream requests",
	)
	warmCmd.Flags().DurationVar(
		&warmOptions.MaxWait,
		"max-wait",
		time.Hour,
		"Longest a single warm-up entry may wait for an upstream permit",
	)
	warmCmd.Flags().BoolVar(
		&warmOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	warmCmd.Flags().BoolVar(
		&warmOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
