// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// State is a step of a pipeline run.
type State int

const (
	StateInit State = iota
	StateScanning
	StateProcessing
	StateEncoding
	StateCleanup
	StateComplete
	StateFailed
)

var stateNames = map[State]string{
	StateInit:       "init",
	StateScanning:   "scanning",
	StateProcessing: "processing",
	StateEncoding:   "encoding",
	StateCleanup:    "cleanup",
	StateComplete:   "complete",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result summarises a finished run.
type Result struct {
	// Artifact is nil in frames only mode.
	Artifact *VideoArtifact
	Frames   int
	ScaleMax uint16
	// StagingDir is where frames were written. It no longer exists after
	// a successful encode.
	StagingDir string
	// Elapsed holds the timestamp of every frame in milliseconds, or nil
	// when timestamps are off.
	Elapsed []int64
	Took    time.Duration
}

// Pipeline converts a directory of raw frames into a video.
type Pipeline struct {
	cfg Config
	fs  afero.Fs
	enc Encoder
	log logrus.FieldLogger

	mu    sync.Mutex
	state State
}

// NewPipeline validates cfg and returns a Pipeline ready to Run. enc may
// be nil in frames only mode.
func NewPipeline(cfg Config, fs afero.Fs, enc Encoder, log logrus.FieldLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if enc == nil && !cfg.FramesOnly {
		return nil, errors.New("an encoder is required unless frames only mode is set")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		cfg:   cfg,
		fs:    fs,
		enc:   enc,
		log:   log,
		state: StateInit,
	}, nil
}

// State returns the current state of the run.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.log.WithFields(logrus.Fields{
		"stage": s.String(),
	}).Debug("pipeline state")
}

// fail records the failed stage. The staging directory is never removed
// here so that a failed run can be inspected.
func (p *Pipeline) fail(stage State, err error, staging *Staging) error {
	p.setState(StateFailed)
	fields := logrus.Fields{
		"stage": stage.String(),
	}
	if staging != nil {
		fields["staging"] = staging.Dir()
	}
	p.log.WithFields(fields).WithError(err).Error("pipeline failed")
	return &StageError{Stage: stage, Err: err}
}

// Run executes the whole pipeline.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	p.setState(StateInit)
	src, overlay, staging, err := p.init()
	if err != nil {
		return nil, p.fail(StateInit, err, staging)
	}
	res := &Result{
		Frames:     src.Len(),
		StagingDir: staging.Dir(),
	}

	mode := p.cfg.Mode()
	res.ScaleMax = mode.Value()
	if mode.IsCorpusMax() {
		p.setState(StateScanning)
		p.log.WithFields(logrus.Fields{
			"frames": src.Len(),
		}).Info("scanning for corpus max")
		res.ScaleMax, err = ScanCorpusMax(ctx, src)
		if err != nil {
			return nil, p.fail(StateScanning, err, staging)
		}
	}
	p.log.WithFields(logrus.Fields{
		"scale_mode": mode.String(),
		"scale_max":  res.ScaleMax,
	}).Info("scale ceiling")

	p.setState(StateProcessing)
	res.Elapsed, err = p.process(ctx, src, res.ScaleMax, overlay, staging)
	if err != nil {
		return nil, p.fail(StateProcessing, err, staging)
	}

	if p.cfg.FramesOnly {
		res.Took = time.Since(start)
		p.setState(StateComplete)
		p.log.WithFields(logrus.Fields{
			"frames": res.Frames,
			"dir":    staging.Dir(),
		}).Info("frames written")
		return res, nil
	}

	p.setState(StateEncoding)
	staged, err := staging.Frames()
	if err != nil {
		return nil, p.fail(StateEncoding, err, staging)
	}
	if len(staged) != res.Frames {
		err := fmt.Errorf("staged %d frames in %s, expected %d", len(staged), staging.Dir(), res.Frames)
		return nil, p.fail(StateEncoding, err, staging)
	}
	out := p.cfg.ArtifactPath()
	p.log.WithFields(logrus.Fields{
		"pattern": staging.Pattern(),
		"frames":  len(staged),
		"output":  out,
	}).Info("encoding video")
	artifact, err := p.enc.Encode(ctx, staging.Pattern(), out)
	if err != nil {
		var encErr *EncodingError
		if !errors.As(err, &encErr) {
			err = &EncodingError{Output: out, Err: err}
		}
		return nil, p.fail(StateEncoding, err, staging)
	}
	res.Artifact = artifact

	p.setState(StateCleanup)
	if err := staging.Remove(); err != nil {
		return nil, p.fail(StateCleanup, err, staging)
	}

	res.Took = time.Since(start)
	p.setState(StateComplete)
	p.log.WithFields(logrus.Fields{
		"output": artifact.Path,
		"frames": res.Frames,
		"took":   res.Took.Round(time.Millisecond).String(),
	}).Info("video written")
	return res, nil
}

func (p *Pipeline) init() (*DirSource, *Overlay, *Staging, error) {
	src, err := NewDirSource(p.fs, p.cfg.InputDir)
	if err != nil {
		return nil, nil, nil, err
	}
	p.log.WithFields(logrus.Fields{
		"input":  src.Dir(),
		"frames": src.Len(),
		"size":   src.Spec().String(),
	}).Info("found input frames")

	if err := p.fs.MkdirAll(p.cfg.OutputDir, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("creating output directory: %w", err)
	}
	if !p.cfg.FramesOnly && !p.cfg.Overwrite {
		out := p.cfg.ArtifactPath()
		if exists, err := afero.Exists(p.fs, out); err != nil {
			return nil, nil, nil, err
		} else if exists {
			return nil, nil, nil, fmt.Errorf("output %s already exists", out)
		}
	}

	var overlay *Overlay
	if p.cfg.Timestamp {
		overlay, err = LoadFont(p.fs, p.cfg.FontPath, p.cfg.FontSize)
		if err != nil {
			return nil, nil, nil, err
		}
		p.log.WithFields(logrus.Fields{
			"font":            overlay.Path(),
			"start_offset_ms": p.cfg.StartOffsetMs,
			"interval_ms":     p.cfg.IntervalMs,
		}).Info("timestamp enabled")
	}

	var staging *Staging
	if p.cfg.FramesOnly {
		staging, err = NewExportDir(p.fs, p.cfg.ExportDir(), p.cfg.ClearStaging, p.log)
	} else {
		staging, err = NewStaging(p.fs, p.cfg.StagingDir, p.cfg.ClearStaging, p.log)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return src, overlay, staging, nil
}

// process normalizes, stamps and stages every frame. Frames may be
// handled out of order by several workers but the elapsed time and the
// staged filename only depend on the frame index.
func (p *Pipeline) process(ctx context.Context, src FrameSource, scaleMax uint16, overlay *Overlay, staging *Staging) ([]int64, error) {
	n := src.Len()
	var elapsed []int64
	if overlay != nil {
		elapsed = make([]int64, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			ms, err := p.processFrame(gctx, src, i, scaleMax, overlay, staging)
			if err != nil {
				return err
			}
			if elapsed != nil {
				elapsed[i] = ms
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return elapsed, nil
}

func (p *Pipeline) processFrame(ctx context.Context, src FrameSource, i int, scaleMax uint16, overlay *Overlay, staging *Staging) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	frame, err := src.Read(i)
	if err != nil {
		return 0, err
	}
	img, err := Normalize(frame, scaleMax)
	if err != nil {
		return 0, err
	}

	var ms int64
	if overlay != nil {
		ms = Elapsed(p.cfg.StartOffsetMs, p.cfg.IntervalMs, i)
		img, err = overlay.Draw(img, ms)
		if err != nil {
			return 0, err
		}
	}

	path, err := staging.Write(i, img)
	if err != nil {
		return 0, err
	}
	fields := logrus.Fields{
		"frame":  frame.Meta.Name,
		"index":  i,
		"staged": path,
	}
	if overlay != nil {
		fields["elapsed"] = FormatElapsed(ms)
	}
	p.log.WithFields(fields).Debug("processed frame")
	return ms, nil
}
