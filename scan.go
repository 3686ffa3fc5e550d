// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"context"
)

// ScanCorpusMax reads every frame of src once and returns the largest pixel
// value seen.
func ScanCorpusMax(ctx context.Context, src FrameSource) (uint16, error) {
	if src == nil || src.Len() == 0 {
		return 0, &EmptyInputError{}
	}
	var maxP uint16
	for i := 0; i < src.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		frame, err := src.Read(i)
		if err != nil {
			return 0, err
		}
		if m := frame.Max(); m > maxP {
			maxP = m
		}
	}
	return maxP, nil
}
