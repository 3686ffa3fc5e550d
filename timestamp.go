// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import "fmt"

// DefaultIntervalMs is the default time between captured frames.
const DefaultIntervalMs = 500

// Elapsed returns the time in milliseconds at which frame index was
// captured, counting from the start of the experiment.
func Elapsed(startOffsetMs, intervalMs int64, index int) int64 {
	return startOffsetMs + int64(index)*intervalMs
}

// FormatElapsed renders ms as zero padded minutes and seconds, e.g.
// "01m 05s". Minutes wrap at 60, so an hour reads as "00m 00s".
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := (ms / 1000) % 60
	minutes := (ms / (1000 * 60)) % 60
	return fmt.Sprintf("%02dm %02ds", minutes, seconds)
}
