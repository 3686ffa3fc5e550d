// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Output video parameters.
const (
	FrameRate   = 30
	Codec       = "libx264"
	PixelFormat = "yuv420p"
)

// VideoArtifact describes an encoded video.
type VideoArtifact struct {
	Path        string
	FrameRate   int
	PixelFormat string
	Codec       string
	Size        int64
}

// Encoder turns a sorted glob of still images into a video at out.
type Encoder interface {
	Encode(ctx context.Context, pattern string, out string) (*VideoArtifact, error)
}

// FFmpeg encodes with an external ffmpeg process.
type FFmpeg struct {
	// Binary is the ffmpeg executable. "ffmpeg" is looked up in PATH when
	// empty.
	Binary    string
	Overwrite bool
}

// Args returns the ffmpeg command line used to encode pattern into out.
func (e *FFmpeg) Args(pattern, out string) []string {
	overwrite := "-n"
	if e.Overwrite {
		overwrite = "-y"
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		overwrite,
		"-framerate", strconv.Itoa(FrameRate),
		"-pattern_type", "glob",
		"-i", pattern,
		// libx264 with yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", Codec,
		"-pix_fmt", PixelFormat,
		out,
	}
}

func (e *FFmpeg) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

// Encode runs ffmpeg and waits for it to finish. Any failure, including
// cancellation of ctx, removes a partially written output file.
func (e *FFmpeg) Encode(ctx context.Context, pattern string, out string) (*VideoArtifact, error) {
	cmd := exec.CommandContext(ctx, e.binary(), e.Args(pattern, out)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	fail := func(exitCode int, err error) (*VideoArtifact, error) {
		if !errors.Is(err, os.ErrExist) {
			os.Remove(out)
		}
		return nil, &EncodingError{
			Output:   out,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	if !e.Overwrite {
		if _, err := os.Stat(out); err == nil {
			return fail(0, fmt.Errorf("%s: %w", out, os.ErrExist))
		}
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(0, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fail(exitErr.ExitCode(), err)
		}
		return fail(0, err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return fail(0, fmt.Errorf("no output produced: %w", err))
	}
	if info.Size() == 0 {
		return fail(0, errors.New("output is empty"))
	}
	return &VideoArtifact{
		Path:        out,
		FrameRate:   FrameRate,
		PixelFormat: PixelFormat,
		Codec:       Codec,
		Size:        info.Size(),
	}, nil
}
