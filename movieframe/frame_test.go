// Copyright 2018 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package movieframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type TestCamera struct {
}

func (cam *TestCamera) ResX() int {
	return 160
}
func (cam *TestCamera) ResY() int {
	return 320
}

func TestNewFrameDimensions(t *testing.T) {
	frame := NewFrame(new(TestCamera))
	assert.Equal(t, 160, frame.ResX())
	assert.Equal(t, 320, frame.ResY())
	assert.Equal(t, Size{X: 160, Y: 320}, SizeOf(frame))
	assert.Equal(t, "160x320", SizeOf(frame).String())
}

func TestFrameCopy(t *testing.T) {
	camera := new(TestCamera)
	frame := NewFrame(camera)
	// Pixel values.
	frame.Pix[0][0] = 1
	frame.Pix[9][7] = 2
	frame.Pix[camera.ResY()-1][0] = 3
	frame.Pix[0][camera.ResX()-1] = 4
	frame.Pix[camera.ResY()-1][camera.ResX()-1] = 5
	frame.Meta = Meta{Name: "img_000000012.tif", Index: 12}

	frame2 := NewFrame(camera)
	frame2.Copy(frame)

	assert.Equal(t, 1, int(frame2.Pix[0][0]))
	assert.Equal(t, 2, int(frame2.Pix[9][7]))
	assert.Equal(t, 3, int(frame2.Pix[camera.ResY()-1][0]))
	assert.Equal(t, 4, int(frame2.Pix[0][camera.ResX()-1]))
	assert.Equal(t, 5, int(frame2.Pix[camera.ResY()-1][camera.ResX()-1]))
	assert.Equal(t, frame.Meta, frame2.Meta)
}

func TestFrameCloneIsDeep(t *testing.T) {
	frame := NewFrame(Size{X: 3, Y: 2})
	frame.Pix[1][2] = 77
	c := frame.Clone()
	c.Pix[1][2] = 1
	assert.Equal(t, uint16(77), frame.Pix[1][2])
}

func TestMinMax(t *testing.T) {
	frame := NewFrame(Size{X: 4, Y: 3})
	for y := range frame.Pix {
		for x := range frame.Pix[y] {
			frame.Pix[y][x] = 500
		}
	}
	frame.Pix[0][3] = 4095
	frame.Pix[2][1] = 120

	minP, maxP := frame.MinMax()
	assert.Equal(t, uint16(120), minP)
	assert.Equal(t, uint16(4095), maxP)
	assert.Equal(t, uint16(120), frame.Min())
	assert.Equal(t, uint16(4095), frame.Max())
}

func TestMinMaxEmpty(t *testing.T) {
	minP, maxP := new(Frame).MinMax()
	assert.Zero(t, minP)
	assert.Zero(t, maxP)
}
