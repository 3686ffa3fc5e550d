// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package movieframe

// Meta identifies where a frame came from in the input sequence.
type Meta struct {
	// Name is the source filename, without directory.
	Name string
	// Index is the position of the frame in sorted filename order.
	Index int
}
