// Copyright 2026 The Georelay Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides small formatting helpers for CLI output.
package textutils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatInt formats an integer with thousands separators for human
// readability.
func FormatInt(n int64) string {
	return printer.Sprintf("%d", n)
}
