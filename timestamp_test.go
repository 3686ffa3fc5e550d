// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00m 00s"},
		{999, "00m 00s"},
		{1000, "00m 01s"},
		{65000, "01m 05s"},
		{3599000, "59m 59s"},
		{3600000, "00m 00s"}, // minutes wrap at the hour
		{3665000, "01m 05s"},
		{-5, "00m 00s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.ms), "ms=%d", tt.ms)
	}
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, int64(0), Elapsed(0, 500, 0))
	assert.Equal(t, int64(1500), Elapsed(0, 500, 3))
	assert.Equal(t, int64(60000+2500), Elapsed(60000, 500, 5))
}
