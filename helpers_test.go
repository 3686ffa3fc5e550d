// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/tiff"

	"github.com/cedarwarman/micromovie/movieframe"
)

const testFontPath = "/fonts/goregular.ttf"

func newTestFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testFontPath, goregular.TTF, 0644))
	return fs
}

func newTestLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// makeTestFrame returns a frame whose pixels run from base upwards.
func makeTestFrame(w, h int, base uint16) *movieframe.Frame {
	frame := movieframe.NewFrame(movieframe.Size{X: w, Y: h})
	for y := range frame.Pix {
		for x := range frame.Pix[y] {
			frame.Pix[y][x] = base + uint16(y*w+x)
		}
	}
	return frame
}

func writeTIFF16(t *testing.T, fs afero.Fs, path string, frame *movieframe.Frame) {
	img := image.NewGray16(image.Rect(0, 0, frame.ResX(), frame.ResY()))
	for y, row := range frame.Pix {
		for x, p := range row {
			i := y*img.Stride + 2*x
			img.Pix[i] = uint8(p >> 8)
			img.Pix[i+1] = uint8(p)
		}
	}
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	f, err := fs.Create(path)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, img, nil))
	require.NoError(t, f.Close())
}

func readGray(t *testing.T, fs afero.Fs, path string) *image.Gray {
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := tiff.Decode(f)
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "%s is %T, expected *image.Gray", path, img)
	return gray
}

// memSource is an in-memory FrameSource that counts reads.
type memSource struct {
	frames []*movieframe.Frame
	reads  []int
}

func (s *memSource) Len() int {
	return len(s.frames)
}

func (s *memSource) Name(i int) string {
	return fmt.Sprintf("frame%03d.tif", i)
}

func (s *memSource) Read(i int) (*movieframe.Frame, error) {
	if s.reads == nil {
		s.reads = make([]int, len(s.frames))
	}
	s.reads[i]++
	frame := s.frames[i].Clone()
	frame.Meta = movieframe.Meta{Name: s.Name(i), Index: i}
	return frame, nil
}

// fakeEncoder records what it was asked to encode and writes a
// placeholder video to fs.
type fakeEncoder struct {
	fs      afero.Fs
	err     error
	calls   int
	pattern string
	frames  []string
	check   func(frames []string)
}

func (e *fakeEncoder) Encode(ctx context.Context, pattern string, out string) (*VideoArtifact, error) {
	e.calls++
	e.pattern = pattern
	frames, err := afero.Glob(e.fs, pattern)
	if err != nil {
		return nil, err
	}
	e.frames = frames
	if e.check != nil {
		e.check(frames)
	}
	if e.err != nil {
		return nil, e.err
	}
	data := []byte(fmt.Sprintf("%d frames at %d fps", len(frames), FrameRate))
	if err := afero.WriteFile(e.fs, out, data, 0644); err != nil {
		return nil, err
	}
	return &VideoArtifact{
		Path:        out,
		FrameRate:   FrameRate,
		PixelFormat: PixelFormat,
		Codec:       Codec,
		Size:        int64(len(data)),
	}, nil
}
