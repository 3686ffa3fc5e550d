// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFontMissing(t *testing.T) {
	fs := newTestFs(t)
	_, err := LoadFont(fs, "/fonts/arial.ttf", DefaultFontSize)
	var fontErr *FontResourceError
	require.True(t, errors.As(err, &fontErr))
	assert.Equal(t, "/fonts/arial.ttf", fontErr.Path)
}

func TestLoadFontInvalid(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "/fonts/bad.ttf", []byte("not a font"), 0644))
	_, err := LoadFont(fs, "/fonts/bad.ttf", DefaultFontSize)
	var fontErr *FontResourceError
	assert.True(t, errors.As(err, &fontErr))

	_, err = LoadFont(fs, testFontPath, 0)
	assert.True(t, errors.As(err, &fontErr))
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, image.Pt(1748, 1948), Anchor(image.Rect(0, 0, 2048, 2048)))
}

func TestOverlayDraw(t *testing.T) {
	fs := newTestFs(t)
	o, err := LoadFont(fs, testFontPath, DefaultFontSize)
	require.NoError(t, err)
	assert.Equal(t, testFontPath, o.Path())

	src := image.NewGray(image.Rect(0, 0, 640, 480))
	out, err := o.Draw(src, 65000)
	require.NoError(t, err)

	// Input untouched.
	for _, v := range src.Pix {
		require.Equal(t, uint8(0), v)
	}
	assert.Equal(t, src.Bounds(), out.Bounds())

	anchor := Anchor(out.Bounds())
	var lit int
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := out.GrayAt(x, y).Y
			if v == 0 {
				continue
			}
			lit++
			// Everything drawn sits below and right of the anchor, give
			// or take the stroke.
			require.GreaterOrEqual(t, x, anchor.X-4, "pixel at %d,%d", x, y)
			require.GreaterOrEqual(t, y, anchor.Y-4, "pixel at %d,%d", x, y)
		}
	}
	assert.Greater(t, lit, 100)
}

func TestOverlayLabelsDiffer(t *testing.T) {
	fs := newTestFs(t)
	o, err := LoadFont(fs, testFontPath, DefaultFontSize)
	require.NoError(t, err)
	src := image.NewGray(image.Rect(0, 0, 640, 480))

	a, err := o.Draw(src, 0)
	require.NoError(t, err)
	b, err := o.Draw(src, 0)
	require.NoError(t, err)
	c, err := o.Draw(src, 65000)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestOverlayConcurrent(t *testing.T) {
	fs := newTestFs(t)
	o, err := LoadFont(fs, testFontPath, 24)
	require.NoError(t, err)
	src := image.NewGray(image.Rect(0, 0, 400, 200))
	want, err := o.Draw(src, 1500)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*image.Gray, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = o.Draw(src, 1500)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.NotNil(t, got)
		assert.Equal(t, want.Pix, got.Pix)
	}
}
