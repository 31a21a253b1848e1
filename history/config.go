// Copyright © 2026 zhistory contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/config.go
// Summary: Tunable constants and per-window configuration.

package history

// StateBlockSize is the fixed interval (in characters) at which the
// writer emits a synthetic Font/Style/Colour state block, so that any
// cursor can reconstruct full attribute state with a bounded backward
// scan of at most StateBlockSize+maxRecordLen characters. A compile-time
// constant in the original; kept as a package-level variable rather than
// a const here so tests can exercise smaller block spacing without
// writing kilobytes of fixture text. Production callers should treat it
// as fixed at its default and leave it alone -- changing it invalidates
// no already-stored data (it only changes how densely blocks are spaced
// going forward), but mixing values within one process is not a
// supported configuration.
var StateBlockSize = 256

// repeatParagraphBufSize bounds the scratch buffer Cursor.Replay flushes
// to the render sink, matching libfizmo's REPEAT_PARAGRAPH_BUF_SIZE.
const repeatParagraphBufSize = 1280

// Config holds the per-window settings a Ring Store is created with.
type Config struct {
	// MaxBuffer is the hard upper bound on ring capacity, in characters.
	MaxBuffer int

	// GrowIncrement is how many characters capacity grows by each time
	// more space is needed and the ring hasn't yet hit MaxBuffer.
	GrowIncrement int

	// Font, Style, FG, BG are the initial attribute state a window opens
	// with, before any put_* call changes them.
	Font, Style, FG, BG int
}

// DefaultConfig returns sensible defaults for a new window history.
func DefaultConfig() Config {
	return Config{
		MaxBuffer:     64 * 1024,
		GrowIncrement: 4 * 1024,
		Font:          1,
		Style:         0,
		FG:            colourUndefined,
		BG:            colourUndefined,
	}
}
