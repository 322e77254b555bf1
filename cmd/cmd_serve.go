// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/georelay/georelay/revgeo"
)

var serveOptions = struct {
	Listen              string
	MaxConns            int
	UpstreamURL         string
	MinInterval         time.Duration
	MaxWait             time.Duration
	Seed                string
	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resolver HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, repo, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		if serveOptions.Seed != "" {
			seeded, count, err := revgeo.SeedIfEmpty(repo, serveOptions.Seed)
			if err != nil {
				return fmt.Errorf("seeding cache: %w", err)
			}

			if seeded {
				logger.WithField("entries", count).Info("cache seeded")
			}
		}

		geocoder := revgeo.NewNominatimGeocoder(&revgeo.NominatimOptions{
			BaseURL:             upstreamURL(serveOptions.UpstreamURL),
			UserAgent:           userAgent(),
			EnableHTTPTrace:     serveOptions.EnableHTTPTrace,
			EnableHTTPBodyTrace: serveOptions.EnableHTTPBodyTrace,
		})

		resolver := revgeo.NewResolver(
			repo,
			geocoder,
			revgeo.NewLimiter(),
			serveOptions.MinInterval,
			serveOptions.MaxWait,
		)

		server := revgeo.NewServer(repo, resolver, logger, &revgeo.ServerOptions{
			ListenAddr: serveOptions.Listen,
			MaxConns:   serveOptions.MaxConns,
			APIKey:     revgeo.LookupAPIKey(context.Background(), logger),
		})

		fmt.Println("🗺️  Reverse-geocoding mediator starting...")
		fmt.Printf("📍 Resolve endpoint at http://%s/api/v1/resolve\n", serveOptions.Listen)

		return server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveOptions.Listen,
		"listen",
		"localhost:8080",
		"Address to bind the HTTP server to",
	)
	serveCmd.Flags().IntVar(
		&serveOptions.MaxConns,
		"max-conns",
		0,
		"Maximum concurrent connections, 0 means unlimited",
	)
	serveCmd.Flags().StringVar(
		&serveOptions.UpstreamURL,
		"upstream-url",
		"",
		"Upstream Nominatim base URL. Defaults to $GEORELAY_UPSTREAM_URL, then the public instance",
	)
	serveCmd.Flags().DurationVar(
		&serveOptions.MinInterval,
		"min-interval",
		time.Second,
		"Minimum spacing between upstream requests",
	)
	serveCmd.Flags().DurationVar(
		&serveOptions.MaxWait,
		"max-wait",
		5*time.Second,
		"Longest a request may wait for an upstream permit before giving up",
	)
	serveCmd.Flags().StringVar(
		&serveOptions.Seed,
		"seed",
		"",
		"JSON snapshot to seed an empty cache from",
	)
	serveCmd.Flags().BoolVar(
		&serveOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	serveCmd.Flags().BoolVar(
		&serveOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
