// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/georelay/georelay/geohash"
	"github.com/georelay/georelay/spatial"
)

// isTerminal reports whether f is attached to a terminal. If we can't tell,
// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugGeohashCmd = &cobra.Command{
	Use:   "geohash",
	Short: "Interact with the geohash bucketing used for cache keys",
	Long: `Reads one "lat,lon" pair or geohash per line, and prints in stdout the line
followed by the cache key it maps to, the cell center that is sent upstream,
and the distance between the coordinate and that center. A bare geohash is
decoded to its center.

$ echo 52.516340,13.377616 | georelay debug geohash
52.516340,13.377616	u33db2m3	POINT(13.377740 52.516280)	10.7m
	`,
	Run: func(_ *cobra.Command, _ []string) {
		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter coordinates or geohashes to inspect, one per line…")
		}
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.Contains(line, ",") {
				inspectCoordinate(line)
			} else {
				inspectGeohash(line)
			}
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
			os.Exit(1)
		}
	},
}

func inspectCoordinate(line string) {
	latStr, lonStr, _ := strings.Cut(line, ",")

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		fmt.Printf("%s\t%q\n", line, err)

		return
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		fmt.Printf("%s\t%q\n", line, err)

		return
	}

	hash, err := geohash.Encode(lat, lon, geohash.Precision)
	if err != nil {
		fmt.Printf("%s\t%q\n", line, err)

		return
	}

	center, err := geohash.DecodeToCenter(hash)
	if err != nil {
		fmt.Printf("%s\t%q\n", line, err)

		return
	}

	point := spatial.Point{Lat: lat, Lon: lon}
	fmt.Printf("%s\t%s\t%s\t%.1fm\n", line, hash, center, point.HaversineDistance(&center))
}

func inspectGeohash(line string) {
	center, err := geohash.DecodeToCenter(line)
	if err != nil {
		fmt.Printf("%s\t%q\n", line, err)

		return
	}

	fmt.Printf("%s\t%s\n", line, center)
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugGeohashCmd)
}
