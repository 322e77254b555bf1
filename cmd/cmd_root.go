// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/georelay/georelay/revgeo"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})

	rootCmd.PersistentFlags().StringVar(
		&rootOptions.DbPath,
		"db-path",
		"data",
		"Directory holding the cache database",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.LogLevel,
		"log-level",
		"info",
		"Log level (trace, debug, info, warn, error)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.LogJSON,
		"log-json",
		false,
		"Emit logs as JSON",
	)
}

var rootOptions = struct {
	DbPath   string
	LogLevel string
	LogJSON  bool
}{}

// logger is the structured logger shared by all commands. Level and format
// are set from the root flags before any command runs.
var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "georelay",
	Short: "reverse-geocoding request mediator",
	Long: `
georelay answers "which address is at this location?" by mediating between
clients and the OSM Nominatim API: coordinates are bucketed into geohash
cells, resolved addresses are cached for good, and all upstream traffic is
spaced out to honor the Nominatim usage policy.
`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}

		level, err := logrus.ParseLevel(rootOptions.LogLevel)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}

		logger.SetLevel(level)

		if rootOptions.LogJSON {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// openCache opens (creating if needed) the DuckDB-backed address cache.
func openCache() (*sql.DB, revgeo.AddressRepository, error) {
	if err := os.MkdirAll(rootOptions.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	dbpath := filepath.Join(rootOptions.DbPath, "georelay.duckdb")

	db, err := sql.Open("duckdb", dbpath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := revgeo.NewAddressRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return db, repo, nil
}

// userAgent identifies this instance against the upstream, as its usage
// policy requires.
func userAgent() string {
	return fmt.Sprintf("georelay/%s (+https://github.com/georelay/georelay)", Version)
}

// upstreamURL picks the upstream base URL: the flag wins, then the
// environment, then the client falls back to the public instance.
func upstreamURL(flag string) string {
	if flag != "" {
		return flag
	}

	return os.Getenv("GEORELAY_UPSTREAM_URL")
}
