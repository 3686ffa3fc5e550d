package main

// Copyright 2018 The Cacophony Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/cedarwarman/micromovie"
)

type options struct {
	cfg        micromovie.Config
	configFile string
	scan       bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := runMain(ctx, os.Args[1:], os.Stdout, afero.NewOsFs())
	stop()
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func parseArgs(fs afero.Fs, args []string, stderr io.Writer) (*options, error) {
	flags := flag.NewFlagSet("movietool", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: movietool -input-dir <dir> -output-dir <dir> [options]")
		flags.PrintDefaults()
	}

	def := micromovie.DefaultConfig()
	var fl micromovie.Config
	opts := &options{}
	flags.StringVar(&opts.configFile, "config", "", "YAML config file; flags override its values")
	flags.StringVar(&fl.InputDir, "input-dir", "", "directory of *.tif frames (required)")
	flags.StringVar(&fl.OutputDir, "output-dir", "", "output directory; the video is named <basename>.mp4 (required)")
	flags.BoolVar(&fl.Timestamp, "timestamp", false, "burn elapsed time into each frame")
	flags.Int64Var(&fl.IntervalMs, "interval-ms", def.IntervalMs, "time between frames in ms")
	flags.Int64Var(&fl.StartOffsetMs, "start-offset-ms", 0, "time from start of experiment to the first frame, in ms")
	flags.StringVar(&fl.FontPath, "font", "", "timestamp font (default <install>/fonts/arial.ttf)")
	flags.Float64Var(&fl.FontSize, "font-size", def.FontSize, "timestamp font size in points")
	flags.IntVar(&fl.ScaleMax, "scale-max", def.ScaleMax, "fixed intensity mapped to 255, e.g. 3300; 0 uses the corpus max")
	flags.BoolVar(&fl.CorpusMax, "corpus-max", false, "scan all frames for the intensity mapped to 255, even with -scale-max")
	flags.StringVar(&fl.StagingDir, "staging-dir", "", "staging root (default <output-dir>/.staging)")
	flags.BoolVar(&fl.ClearStaging, "clear-staging", false, "delete leftovers from an earlier run in the staging root")
	flags.IntVar(&fl.Workers, "workers", def.Workers, "frames processed in parallel")
	flags.BoolVar(&fl.Overwrite, "overwrite", false, "replace an existing video")
	flags.BoolVar(&fl.FramesOnly, "frames-only", false, "write 8-bit frames to <output-dir>/frames and skip encoding")
	flags.StringVar(&fl.FFmpeg, "ffmpeg", "", "ffmpeg binary (default ffmpeg from PATH)")
	flags.BoolVar(&opts.scan, "scan", false, "print frame count, size and corpus max of -input-dir and exit")
	flags.BoolVar(&opts.verbose, "verbose", false, "debug logging")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &usageError{msg: err.Error()}
	}
	if flags.NArg() > 0 {
		return nil, &usageError{msg: fmt.Sprintf("unexpected arguments: %v", flags.Args())}
	}

	opts.cfg = def
	if opts.configFile != "" {
		cfg, err := micromovie.LoadConfig(fs, opts.configFile)
		if err != nil {
			return nil, err
		}
		opts.cfg = *cfg
	}

	// Flags only override the config file when given explicitly.
	flags.Visit(func(f *flag.Flag) {
		c := &opts.cfg
		switch f.Name {
		case "input-dir":
			c.InputDir = fl.InputDir
		case "output-dir":
			c.OutputDir = fl.OutputDir
		case "timestamp":
			c.Timestamp = fl.Timestamp
		case "interval-ms":
			c.IntervalMs = fl.IntervalMs
		case "start-offset-ms":
			c.StartOffsetMs = fl.StartOffsetMs
		case "font":
			c.FontPath = fl.FontPath
		case "font-size":
			c.FontSize = fl.FontSize
		case "scale-max":
			c.ScaleMax = fl.ScaleMax
		case "corpus-max":
			c.CorpusMax = fl.CorpusMax
		case "staging-dir":
			c.StagingDir = fl.StagingDir
		case "clear-staging":
			c.ClearStaging = fl.ClearStaging
		case "workers":
			c.Workers = fl.Workers
		case "overwrite":
			c.Overwrite = fl.Overwrite
		case "frames-only":
			c.FramesOnly = fl.FramesOnly
		case "ffmpeg":
			c.FFmpeg = fl.FFmpeg
		}
	})

	if opts.cfg.InputDir == "" {
		return nil, &usageError{msg: "-input-dir is required"}
	}
	if opts.cfg.OutputDir == "" && !opts.scan {
		return nil, &usageError{msg: "-output-dir is required"}
	}
	return opts, nil
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func runMain(ctx context.Context, args []string, stdout io.Writer, fs afero.Fs) error {
	opts, err := parseArgs(fs, args, os.Stderr)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, opts.verbose)

	if opts.scan {
		return runScan(ctx, fs, opts.cfg.InputDir, stdout)
	}

	enc := &micromovie.FFmpeg{
		Binary:    opts.cfg.FFmpeg,
		Overwrite: opts.cfg.Overwrite,
	}
	p, err := micromovie.NewPipeline(opts.cfg, fs, enc, log)
	if err != nil {
		return err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if res.Artifact != nil {
		fmt.Fprintln(stdout, res.Artifact.Path)
	} else {
		fmt.Fprintln(stdout, res.StagingDir)
	}
	return nil
}

func runScan(ctx context.Context, fs afero.Fs, dir string, stdout io.Writer) error {
	src, err := micromovie.NewDirSource(fs, dir)
	if err != nil {
		return err
	}
	maxP, err := micromovie.ScanCorpusMax(ctx, src)
	if err != nil {
		return err
	}
	names := src.Names()
	fmt.Fprintln(stdout, "Frames:      ", src.Len())
	fmt.Fprintln(stdout, "Resolution:  ", src.Spec())
	fmt.Fprintln(stdout, "First frame: ", names[0])
	fmt.Fprintln(stdout, "Last frame:  ", names[len(names)-1])
	fmt.Fprintln(stdout, "Corpus max:  ", maxP)
	return nil
}
