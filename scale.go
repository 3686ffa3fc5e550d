// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"errors"
	"fmt"
	"image"

	"github.com/cedarwarman/micromovie/movieframe"
)

// ScaleMode selects where the scale ceiling comes from.
type ScaleMode struct {
	corpus bool
	value  uint16
}

// Fixed returns a ScaleMode with a constant ceiling.
func Fixed(max uint16) ScaleMode {
	return ScaleMode{value: max}
}

// CorpusMax returns a ScaleMode whose ceiling is the largest pixel value
// of the whole input sequence.
func CorpusMax() ScaleMode {
	return ScaleMode{corpus: true}
}

// IsCorpusMax reports whether the ceiling needs a corpus scan.
func (m ScaleMode) IsCorpusMax() bool {
	return m.corpus
}

// Value returns the fixed ceiling. It is zero in corpus max mode.
func (m ScaleMode) Value() uint16 {
	return m.value
}

func (m ScaleMode) String() string {
	if m.corpus {
		return "corpus-max"
	}
	return fmt.Sprintf("fixed(%d)", m.value)
}

// ScaleRange is the intensity range mapped linearly onto 0-255.
type ScaleRange struct {
	Min uint16
	Max uint16
}

// Validate returns a DegenerateRangeError when Max is not above Min.
func (r ScaleRange) Validate() error {
	if r.Max <= r.Min {
		return &DegenerateRangeError{Min: r.Min, Max: r.Max}
	}
	return nil
}

// Scale maps a single pixel value into 0-255, rounding to nearest and
// clamping values outside the range. The range must be valid.
func (r ScaleRange) Scale(p uint16) uint8 {
	if p <= r.Min {
		return 0
	}
	if p >= r.Max {
		return 255
	}
	num := uint32(p-r.Min) * 255
	den := uint32(r.Max - r.Min)
	return uint8((num + den/2) / den)
}

// Normalize converts a raw frame to 8 bits using the frame's own minimum
// and the shared ceiling scaleMax.
//
// Frames are not stretched individually: a dim frame stays dim relative
// to the rest of the sequence.
func Normalize(frame *movieframe.Frame, scaleMax uint16) (*image.Gray, error) {
	return NormalizeRange(frame, ScaleRange{Min: frame.Min(), Max: scaleMax})
}

// NormalizeRange converts a raw frame to 8 bits using an explicit range.
func NormalizeRange(frame *movieframe.Frame, r ScaleRange) (*image.Gray, error) {
	if err := r.Validate(); err != nil {
		var degenerate *DegenerateRangeError
		if errors.As(err, &degenerate) {
			degenerate.Frame = frame.Meta.Name
		}
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, frame.ResX(), frame.ResY()))
	for y, row := range frame.Pix {
		out := img.Pix[y*img.Stride:]
		for x, p := range row {
			out[x] = r.Scale(p)
		}
	}
	return img, nil
}
