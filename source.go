// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/image/tiff"

	"github.com/cedarwarman/micromovie/movieframe"
)

// FrameSource is an ordered, random access collection of raw frames.
type FrameSource interface {
	Len() int
	Name(i int) string
	Read(i int) (*movieframe.Frame, error)
}

// NewDirSource returns a FrameSource over the TIFF files in dir, in
// lexicographic filename order. Callers are responsible for naming frames
// so that this matches capture order.
func NewDirSource(fs afero.Fs, dir string) (*DirSource, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory: %s is not a directory", dir)
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.Mode().IsRegular() || !isTIFF(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, &EmptyInputError{Dir: dir}
	}
	sort.Strings(names)
	src := &DirSource{
		fs:    fs,
		dir:   dir,
		names: names,
	}
	if err := src.readSpec(); err != nil {
		return nil, err
	}
	return src, nil
}

// DirSource reads frames from a directory of TIFF images.
type DirSource struct {
	fs    afero.Fs
	dir   string
	names []string
	size  movieframe.Size
}

func isTIFF(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}

// Len returns the number of frames.
func (s *DirSource) Len() int {
	return len(s.names)
}

// Name returns the filename of frame i.
func (s *DirSource) Name(i int) string {
	return s.names[i]
}

// Names returns the sorted frame filenames.
func (s *DirSource) Names() []string {
	return append([]string(nil), s.names...)
}

// Dir returns the input directory.
func (s *DirSource) Dir() string {
	return s.dir
}

// Spec returns the dimensions of the first frame. Every other frame must
// match it.
func (s *DirSource) Spec() movieframe.Size {
	return s.size
}

func (s *DirSource) readSpec() error {
	f, err := s.fs.Open(filepath.Join(s.dir, s.names[0]))
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, err := tiff.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%s: %w", s.names[0], err)
	}
	s.size = movieframe.Size{X: cfg.Width, Y: cfg.Height}
	return nil
}

// Read decodes frame i.
func (s *DirSource) Read(i int) (*movieframe.Frame, error) {
	name := s.names[i]
	f, err := s.fs.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	frame, err := DecodeFrame(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	frame.Meta = movieframe.Meta{Name: name, Index: i}

	if got := movieframe.SizeOf(frame); got != s.size {
		return nil, &FrameSizeError{Frame: name, Expected: s.size.String(), Got: got.String()}
	}
	return frame, nil
}

// DecodeFrame reads a single channel TIFF into a Frame. 16-bit grayscale
// values are kept as is, 8-bit grayscale values are widened without
// rescaling and colour images are converted to 16-bit luminance.
func DecodeFrame(r io.Reader) (*movieframe.Frame, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	frame := movieframe.NewFrame(movieframe.Size{X: b.Dx(), Y: b.Dy()})

	switch m := img.(type) {
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			row := m.Pix[y*m.Stride:]
			for x := 0; x < b.Dx(); x++ {
				frame.Pix[y][x] = uint16(row[2*x])<<8 | uint16(row[2*x+1])
			}
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			row := m.Pix[y*m.Stride:]
			for x := 0; x < b.Dx(); x++ {
				frame.Pix[y][x] = uint16(row[x])
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				frame.Pix[y][x] = c.Y
			}
		}
	}
	return frame, nil
}
