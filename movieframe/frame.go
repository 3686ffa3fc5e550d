// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package movieframe

// Frame holds the raw intensity readings for a single image of a
// sequence. Values are up to 16 bits wide; 12-bit sensors only use the
// bottom 4096 values.
type Frame struct {
	Pix  [][]uint16
	Meta Meta
}

// NewFrame creates a new frame sized for the provided spec.
func NewFrame(s Spec) *Frame {
	frame := new(Frame)
	frame.Pix = make([][]uint16, s.ResY())
	for i := range frame.Pix {
		frame.Pix[i] = make([]uint16, s.ResX())
	}
	return frame
}

// ResX returns the width of the frame.
func (fr *Frame) ResX() int {
	if len(fr.Pix) == 0 {
		return 0
	}
	return len(fr.Pix[0])
}

// ResY returns the height of the frame.
func (fr *Frame) ResY() int {
	return len(fr.Pix)
}

// Copy sets current frame as other frame
func (fr *Frame) Copy(orig *Frame) {
	fr.Meta = orig.Meta
	for y, row := range orig.Pix {
		copy(fr.Pix[y][:], row)
	}
}

// Clone returns a deep copy of the frame.
func (fr *Frame) Clone() *Frame {
	c := NewFrame(fr)
	c.Copy(fr)
	return c
}

// MinMax returns the smallest and largest pixel values in the frame.
// Both are zero for an empty frame.
func (fr *Frame) MinMax() (uint16, uint16) {
	var minP, maxP uint16
	first := true
	for _, row := range fr.Pix {
		for _, p := range row {
			if first {
				minP, maxP = p, p
				first = false
				continue
			}
			if p < minP {
				minP = p
			}
			if p > maxP {
				maxP = p
			}
		}
	}
	return minP, maxP
}

// Min returns the smallest pixel value in the frame.
func (fr *Frame) Min() uint16 {
	m, _ := fr.MinMax()
	return m
}

// Max returns the largest pixel value in the frame.
func (fr *Frame) Max() uint16 {
	_, m := fr.MinMax()
	return m
}
