// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package movieframe

import "fmt"

// Spec describes the dimensions shared by every frame of a sequence.
type Spec interface {
	ResX() int
	ResY() int
}

// Size is a fixed Spec.
type Size struct {
	X, Y int
}

func (s Size) ResX() int { return s.X }
func (s Size) ResY() int { return s.Y }

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.X, s.Y)
}

// SizeOf returns the dimensions of spec as a Size.
func SizeOf(spec Spec) Size {
	return Size{X: spec.ResX(), Y: spec.ResY()}
}
