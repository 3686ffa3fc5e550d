// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Timestamp label defaults.
const (
	DefaultFontSize = 70
	DefaultFontFile = "arial.ttf"

	// The label's top left corner sits this far in from the bottom right
	// corner of the frame.
	labelOffsetX = 300
	labelOffsetY = 100
)

// DefaultFontPath returns the font shipped next to the installed binary:
// <install prefix>/fonts/arial.ttf, where the binary lives in
// <install prefix>/bin.
func DefaultFontPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("fonts", DefaultFontFile)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(filepath.Dir(exe)), "fonts", DefaultFontFile)
}

// Overlay burns elapsed time labels into normalized frames.
type Overlay struct {
	font *opentype.Font
	path string

	Size        float64
	Fill        uint8
	Stroke      uint8
	StrokeWidth int
}

// LoadFont reads a TrueType or OpenType font from fs and returns an
// Overlay that draws with it at the given point size.
func LoadFont(fs afero.Fs, path string, size float64) (*Overlay, error) {
	if size <= 0 {
		return nil, &FontResourceError{Path: path, Err: errors.New("font size must be positive")}
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &FontResourceError{Path: path, Err: err}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, &FontResourceError{Path: path, Err: err}
	}
	return &Overlay{
		font:        f,
		path:        path,
		Size:        size,
		Fill:        255,
		Stroke:      255,
		StrokeWidth: 1,
	}, nil
}

// Path returns the font file the overlay was loaded from.
func (o *Overlay) Path() string {
	return o.path
}

// Anchor returns the top left corner of the label for a frame with the
// given bounds.
func Anchor(b image.Rectangle) image.Point {
	return image.Pt(b.Max.X-labelOffsetX, b.Max.Y-labelOffsetY)
}

// Draw returns a copy of img with the elapsed time label drawn on it.
// img itself is left untouched. Draw is safe for concurrent use.
func (o *Overlay) Draw(img *image.Gray, elapsedMs int64) (*image.Gray, error) {
	b := img.Bounds()
	out := image.NewGray(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	// opentype faces are not safe for concurrent use, so each call gets
	// its own.
	face, err := opentype.NewFace(o.font, &opentype.FaceOptions{
		Size:    o.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &FontResourceError{Path: o.path, Err: err}
	}
	defer face.Close()

	label := FormatElapsed(elapsedMs)
	anchor := Anchor(b)
	dot := fixed.Point26_6{
		X: fixed.I(anchor.X),
		Y: fixed.I(anchor.Y) + face.Metrics().Ascent,
	}
	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(color.Gray{Y: o.Stroke}),
		Face: face,
	}
	w := o.StrokeWidth
	for dy := -w; dy <= w; dy++ {
		for dx := -w; dx <= w; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = dot.Add(fixed.P(dx, dy))
			d.DrawString(label)
		}
	}
	d.Src = image.NewUniform(color.Gray{Y: o.Fill})
	d.Dot = dot
	d.DrawString(label)
	return out, nil
}
