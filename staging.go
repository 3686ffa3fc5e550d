// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/image/tiff"
)

const (
	stagedPrefix = "frame_"
	stagedExt    = ".tif"
	runDirPrefix = "run-"
)

// StagedName returns the filename a frame is staged under. The frame
// index is embedded so that sorted order is capture order no matter
// when the file was written.
func StagedName(index int) string {
	return fmt.Sprintf("%s%06d%s", stagedPrefix, index, stagedExt)
}

// Staging is the directory that holds processed frames until they are
// encoded. It is owned by a single pipeline run.
type Staging struct {
	fs        afero.Fs
	root      string
	dir       string
	runScoped bool
	log       logrus.FieldLogger
}

// NewStaging prepares root and creates a fresh run directory inside it.
// A root left over from an earlier run is refused with a
// StagingConflictError unless clear is set, in which case its contents
// are deleted first.
func NewStaging(fs afero.Fs, root string, clear bool, log logrus.FieldLogger) (*Staging, error) {
	if err := prepareDir(fs, root, clear, log); err != nil {
		return nil, err
	}
	dir := filepath.Join(root, runDirPrefix+uuid.NewString())
	if err := fs.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	log.WithFields(logrus.Fields{
		"staging": dir,
	}).Debug("created staging directory")
	return &Staging{
		fs:        fs,
		root:      root,
		dir:       dir,
		runScoped: true,
		log:       log,
	}, nil
}

// NewExportDir prepares dir to receive frames directly. The same rules
// about leftover content apply as for NewStaging.
func NewExportDir(fs afero.Fs, dir string, clear bool, log logrus.FieldLogger) (*Staging, error) {
	if err := prepareDir(fs, dir, clear, log); err != nil {
		return nil, err
	}
	return &Staging{
		fs:   fs,
		root: dir,
		dir:  dir,
		log:  log,
	}, nil
}

func prepareDir(fs afero.Fs, dir string, clear bool, log logrus.FieldLogger) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating staging root: %w", err)
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("reading staging root: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if !clear {
		return &StagingConflictError{Path: dir, Entries: names}
	}
	for _, name := range names {
		if err := fs.RemoveAll(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("clearing staging root: %w", err)
		}
	}
	log.WithFields(logrus.Fields{
		"staging": dir,
		"removed": len(names),
	}).Warn("cleared leftover staging content")
	return nil
}

// Dir returns the directory frames are written to.
func (s *Staging) Dir() string {
	return s.dir
}

// Root returns the staging root.
func (s *Staging) Root() string {
	return s.root
}

// Pattern returns a glob matching every staged frame, in frame order
// when sorted.
func (s *Staging) Pattern() string {
	return filepath.Join(s.dir, stagedPrefix+"*"+stagedExt)
}

// Write stores img as the staged frame for index and returns its path.
func (s *Staging) Write(index int, img image.Image) (string, error) {
	path := filepath.Join(s.dir, StagedName(index))
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", err
	}
	if err := tiff.Encode(f, img, nil); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Frames returns the staged frame filenames in sorted order.
func (s *Staging) Frames() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), stagedPrefix) && strings.HasSuffix(e.Name(), stagedExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes the staged frames. For a run directory the root is
// removed too once nothing else is left in it.
func (s *Staging) Remove() error {
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"staging": s.dir,
	}).Debug("removed staging directory")
	if !s.runScoped {
		return nil
	}
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil || len(entries) > 0 {
		return nil
	}
	return s.fs.Remove(s.root)
}
