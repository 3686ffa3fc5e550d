// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"fmt"
	"strings"
)

// EmptyInputError is returned when the input directory holds no frames.
type EmptyInputError struct {
	Dir string
}

func (e *EmptyInputError) Error() string {
	if e.Dir == "" {
		return "no input frames"
	}
	return fmt.Sprintf("no input frames (*.tif) found in %s", e.Dir)
}

// DegenerateRangeError is returned when a frame cannot be scaled because
// the scale ceiling is not above the frame's minimum.
type DegenerateRangeError struct {
	Frame string
	Min   uint16
	Max   uint16
}

func (e *DegenerateRangeError) Error() string {
	name := e.Frame
	if name == "" {
		name = "frame"
	}
	return fmt.Sprintf("%s: degenerate scale range: max %d <= min %d", name, e.Max, e.Min)
}

// FontResourceError is returned when the timestamp font can't be loaded.
type FontResourceError struct {
	Path string
	Err  error
}

func (e *FontResourceError) Error() string {
	return fmt.Sprintf("loading font %s: %v", e.Path, e.Err)
}

func (e *FontResourceError) Unwrap() error {
	return e.Err
}

// EncodingError is returned when the video encoder fails or produces no
// output.
type EncodingError struct {
	Output   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EncodingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "encoding %s", e.Output)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	}
	return b.String()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// StagingConflictError is returned when the staging directory already
// holds files from an earlier run.
type StagingConflictError struct {
	Path    string
	Entries []string
}

func (e *StagingConflictError) Error() string {
	return fmt.Sprintf("staging directory %s is not empty (%s); remove it or clear it explicitly",
		e.Path, strings.Join(e.Entries, ", "))
}

// FrameSizeError is returned when a frame's dimensions differ from the
// first frame of the sequence.
type FrameSizeError struct {
	Frame    string
	Expected string
	Got      string
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("%s: frame is %s, expected %s", e.Frame, e.Got, e.Expected)
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// StageError names the pipeline stage an error happened in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
