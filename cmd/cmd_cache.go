// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uber/h3-go/v4"

	"github.com/georelay/georelay/revgeo"
	"github.com/georelay/georelay/utils/textutils"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the address cache",
}

var cacheExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the cache to a JSON snapshot",
	Long:  `Exports every cached address to a JSON snapshot file. The snapshot is sorted by key to minimize diffs when checking it into version control.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, repo, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		exported, err := revgeo.ExportToJSON(repo, args[0])
		if err != nil {
			return fmt.Errorf("exporting cache: %w", err)
		}

		fmt.Printf("✅ Exported %s cache entries to %s\n",
			textutils.FormatInt(int64(exported)), args[0])

		return nil
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import cache entries from a JSON snapshot",
	Long: `Imports cached addresses from a JSON snapshot file. Keys that already have
an entry keep it, so importing a snapshot never overwrites local entries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, repo, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		imported, err := revgeo.ImportFromJSON(repo, args[0])
		if err != nil {
			return fmt.Errorf("importing cache: %w", err)
		}

		fmt.Printf("✅ Imported %s cache entries from %s\n",
			textutils.FormatInt(int64(imported)), args[0])

		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts grouped by region",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, repo, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		count, err := repo.Count()
		if err != nil {
			return fmt.Errorf("counting cache entries: %w", err)
		}

		if count == 0 {
			fmt.Println("The cache is empty.")

			return nil
		}

		stats, err := repo.StatsByRegion()
		if err != nil {
			return fmt.Errorf("aggregating cache stats: %w", err)
		}

		a, b := strings.Repeat("─", 15), strings.Repeat("─", 10)
		fmt.Printf("Cached addresses: %s\n", textutils.FormatInt(int64(count)))
		fmt.Printf("╭─%-15s─┬─%-10s─╮\n", a, b)
		fmt.Printf("│ %-15s │ %10s │\n", "Region", "Entries")
		fmt.Printf("├─%-15s─┼─%-10s─┤\n", a, b)

		for _, stat := range stats {
			fmt.Printf("│ %-15s │ %10s │\n",
				h3.Cell(stat.Region).String(),
				textutils.FormatInt(int64(stat.Count)))
		}

		fmt.Printf("╰─%-15s─┴─%-10s─╯\n", a, b)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
