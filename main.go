// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/georelay/georelay/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
